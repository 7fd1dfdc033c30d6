package handler

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sablebank/ledger/internal/models"
	"github.com/sablebank/ledger/internal/service"
)

type UserHandler struct {
	store service.QueryStore
}

func NewUserHandler(store service.QueryStore) *UserHandler {
	return &UserHandler{store: store}
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		FullName string `json:"full_name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	fullName := req.FullName
	if fullName == "" {
		fullName = req.Username
	}

	// Role is always "user"; there is no way to request admin at signup.
	user := &models.User{
		ID:       uuid.New(),
		Username: req.Username,
		Email:    req.Email,
		FullName: fullName,
		Role:     "user",
	}
	if err := h.store.Queries().CreateUser(r.Context(), user); err != nil {
		if status, pType, msg, ok := mapDBError(err); ok {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error("create user failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "user/create-failed", "Failed to create user")
		return
	}

	RespondJSON(w, http.StatusCreated, user)
}
