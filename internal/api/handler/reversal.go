package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sablebank/ledger/internal/api/middleware"
	"github.com/sablebank/ledger/internal/models"
	"github.com/sablebank/ledger/internal/observability"
	"github.com/sablebank/ledger/internal/service"
)

// ReversalHandler is the trust boundary for payment reversals. It resolves
// the bearer credential itself and answers with flat machine-readable error
// codes, which is the contract reversal clients were built against.
type ReversalHandler struct {
	svc *service.ReversalService
}

func NewReversalHandler(svc *service.ReversalService) *ReversalHandler {
	return &ReversalHandler{svc: svc}
}

type reversalError struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeReversalError(w http.ResponseWriter, status int, code, message string) {
	observability.IncrementReversalOutcome(code)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(reversalError{Error: code, Message: message})
}

// MethodNotAllowed answers non-POST, non-OPTIONS methods on the reversal route.
func (h *ReversalHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeReversalError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
}

// ReversePayment handles POST /v1/reversals.
func (h *ReversalHandler) ReversePayment(w http.ResponseWriter, r *http.Request) {
	userIDStr, _, err := middleware.Authenticate(r)
	if err != nil {
		writeReversalError(w, http.StatusUnauthorized, "unauthorized", "Missing access token")
		return
	}
	callerID, err := uuid.Parse(userIDStr)
	if err != nil {
		writeReversalError(w, http.StatusUnauthorized, "unauthorized", "Invalid access token")
		return
	}

	var req struct {
		TransactionID string `json:"transactionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TransactionID == "" {
		writeReversalError(w, http.StatusBadRequest, "bad_request", "Missing transactionId")
		return
	}

	transactionID, err := uuid.Parse(req.TransactionID)
	if err != nil {
		// An unparseable id can never name a transaction.
		writeReversalError(w, http.StatusNotFound, "not_found", "Transaction not found")
		return
	}

	zap.L().Info("reversal requested",
		zap.String("transaction_id", transactionID.String()),
		zap.String("user_id", callerID.String()),
	)

	if err := h.svc.Reverse(r.Context(), callerID, transactionID); err != nil {
		h.writeServiceError(w, r, err, transactionID)
		return
	}

	observability.IncrementReversalOutcome("success")
	RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *ReversalHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, transactionID uuid.UUID) {
	switch {
	case errors.Is(err, models.ErrTransactionNotFound):
		writeReversalError(w, http.StatusNotFound, "not_found", "Transaction not found")
	case errors.Is(err, models.ErrForbidden):
		writeReversalError(w, http.StatusForbidden, "forbidden", "")
	case errors.Is(err, models.ErrInvalidTransactionType):
		writeReversalError(w, http.StatusBadRequest, "invalid_transaction_type", "")
	case errors.Is(err, models.ErrTimeWindowPassed):
		writeReversalError(w, http.StatusBadRequest, "time_window_passed", "This payment can no longer be reversed.")
	case errors.Is(err, models.ErrAlreadyReversed):
		writeReversalError(w, http.StatusBadRequest, "already_reversed", "This payment has already been reversed.")
	case errors.Is(err, models.ErrAccountNotFound):
		writeReversalError(w, http.StatusNotFound, "account_not_found", "")
	case errors.Is(err, models.ErrUpdateFailed):
		zap.L().Error("reversal balance update failed", zap.Error(err), zap.String("transaction_id", transactionID.String()))
		writeReversalError(w, http.StatusInternalServerError, "update_failed", "")
	case errors.Is(err, models.ErrInsertFailed):
		zap.L().Error("reversal insert failed", zap.Error(err), zap.String("transaction_id", transactionID.String()))
		writeReversalError(w, http.StatusInternalServerError, "insert_failed", "")
	default:
		zap.L().Error("reversal failed", zap.Error(err), zap.String("transaction_id", transactionID.String()))
		writeReversalError(w, http.StatusInternalServerError, "server_error", "")
	}
}
