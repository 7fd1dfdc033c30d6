package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sablebank/ledger/internal/models"
	"github.com/sablebank/ledger/internal/service"
)

type TransferHandler struct {
	svc *service.TransferService
}

func NewTransferHandler(svc *service.TransferService) *TransferHandler {
	return &TransferHandler{svc: svc}
}

// Submit handles POST /v1/transfers. Validation failures carry field-level
// details and are rejected before the store is touched.
func (h *TransferHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req struct {
		AccountID        string          `json:"account_id"`
		RecipientAccount string          `json:"recipient_account"`
		RecipientName    string          `json:"recipient_name"`
		Amount           decimal.Decimal `json:"amount"`
		Description      string          `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-account-id", "Invalid account_id")
		return
	}

	tx, err := h.svc.Submit(r.Context(), actorID, service.SubmitTransferInput{
		AccountID:        accountID,
		RecipientAccount: req.RecipientAccount,
		RecipientName:    req.RecipientName,
		Amount:           req.Amount,
		Description:      req.Description,
	})
	if err != nil {
		var verr *models.ValidationError
		switch {
		case errors.As(err, &verr):
			RespondJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation_failed",
				"fields": verr.Fields,
			})
		case errors.Is(err, models.ErrInsufficientFunds):
			RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "insufficient_funds"})
		case errors.Is(err, models.ErrForbidden):
			RespondError(w, r, http.StatusForbidden, "auth/insufficient-permissions", "insufficient permissions")
		case errors.Is(err, models.ErrAccountNotFound):
			RespondError(w, r, http.StatusNotFound, "account/not-found", "Account not found")
		default:
			zap.L().Error("transfer failed", zap.Error(err), zap.String("account_id", accountID.String()))
			RespondError(w, r, http.StatusInternalServerError, "transfer/failed", "Transfer failed")
		}
		return
	}

	RespondJSON(w, http.StatusCreated, tx)
}
