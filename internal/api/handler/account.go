package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sablebank/ledger/internal/models"
	"github.com/sablebank/ledger/internal/service"
)

type AccountHandler struct {
	svc *service.AccountService
}

func NewAccountHandler(svc *service.AccountService) *AccountHandler {
	return &AccountHandler{svc: svc}
}

func (h *AccountHandler) resolveOwnedAccount(w http.ResponseWriter, r *http.Request) (*models.Account, uuid.UUID, bool) {
	actorID, isAdmin, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return nil, uuid.Nil, false
	}

	accountID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-account-id", "Invalid account ID")
		return nil, uuid.Nil, false
	}

	account, err := h.svc.GetBalance(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			RespondError(w, r, http.StatusNotFound, "account/not-found", "Account not found")
			return nil, uuid.Nil, false
		}
		zap.L().Error("account lookup failed", zap.Error(err), zap.String("account_id", accountID.String()))
		RespondError(w, r, http.StatusInternalServerError, "account/read-failed", "Failed to read account")
		return nil, uuid.Nil, false
	}
	if !isAdmin && account.UserID != actorID {
		RespondError(w, r, http.StatusForbidden, "auth/insufficient-permissions", "insufficient permissions")
		return nil, uuid.Nil, false
	}
	return account, actorID, true
}

func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	account, _, ok := h.resolveOwnedAccount(w, r)
	if !ok {
		return
	}
	RespondJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) GetStatement(w http.ResponseWriter, r *http.Request) {
	account, _, ok := h.resolveOwnedAccount(w, r)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	entries, err := h.svc.GetStatement(r.Context(), account.ID, page, pageSize)
	if err != nil {
		zap.L().Error("get statement failed", zap.Error(err), zap.String("account_id", account.ID.String()))
		RespondError(w, r, http.StatusInternalServerError, "account/statement-read-failed", "Failed to get statement")
		return
	}

	RespondJSON(w, http.StatusOK, entries)
}

// ListRecipients serves the transfer recipient picker: every other user's
// account number and display name.
func (h *AccountHandler) ListRecipients(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	recipients, err := h.svc.ListRecipients(r.Context(), actorID)
	if err != nil {
		zap.L().Error("list recipients failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "account/recipients-read-failed", "Failed to list recipients")
		return
	}
	if recipients == nil {
		recipients = []models.RecipientAccount{}
	}

	RespondJSON(w, http.StatusOK, recipients)
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	actorID, isAdmin, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req struct {
		UserID   string `json:"user_id"`
		Currency string `json:"currency"`
		Balance  int64  `json:"balance"`
	}
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-user-id", "Invalid user_id")
		return
	}
	if !isAdmin && userID != actorID {
		RespondError(w, r, http.StatusForbidden, "auth/insufficient-permissions", "insufficient permissions")
		return
	}

	account, err := h.svc.CreateAccount(r.Context(), userID, req.Currency, req.Balance)
	if err != nil {
		if status, pType, msg, ok := mapDBError(err); ok {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error("create account failed", zap.Error(err), zap.String("user_id", userID.String()))
		RespondError(w, r, http.StatusInternalServerError, "account/create-failed", "Failed to create account")
		return
	}

	RespondJSON(w, http.StatusCreated, account)
}
