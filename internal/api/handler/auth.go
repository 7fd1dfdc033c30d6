package handler

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sablebank/ledger/internal/api/middleware"
	"github.com/sablebank/ledger/internal/service"
)

type AuthHandler struct {
	store    service.QueryStore
	issuer   string
	audience string
}

func NewAuthHandler(store service.QueryStore, issuer, audience string) *AuthHandler {
	return &AuthHandler{store: store, issuer: issuer, audience: audience}
}

// Login issues a signed token for a known user. Real credential checking
// lives outside this service; the ledger only needs a resolvable identity.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	uid, err := uuid.Parse(req.UserID)
	if err != nil {
		RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid user_id"})
		return
	}

	user, err := h.store.Queries().GetUser(r.Context(), uid)
	if err != nil {
		RespondJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
		return
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": uid.String(),
		"role":    user.Role,
		"sub":     uid.String(),
		"iss":     h.issuer,
		"aud":     h.audience,
		"iat":     now.Unix(),
		"exp":     now.Add(24 * time.Hour).Unix(),
	})

	tokenString, err := token.SignedString(middleware.JWTSecret())
	if err != nil {
		RespondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to sign token"})
		return
	}

	RespondJSON(w, http.StatusOK, map[string]string{"token": tokenString})
}
