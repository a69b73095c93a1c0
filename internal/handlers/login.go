package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/bonkboard/backend/internal/config"
	"github.com/bonkboard/backend/internal/crypto"
	"github.com/bonkboard/backend/internal/logging"
	"github.com/bonkboard/backend/internal/models"
	"github.com/bonkboard/backend/internal/services"
)

// LoginHandler exchanges the shared admin secret for an admin session token.
// The client sends a day-salted scrypt hash instead of the raw secret.
type LoginHandler struct {
	cfg  *config.Config
	auth *services.AuthService
}

func NewLoginHandler(cfg *config.Config, auth *services.AuthService) *LoginHandler {
	return &LoginHandler{cfg: cfg, auth: auth}
}

func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	expectedHash, err := crypto.HashAdminSecret(h.cfg.AdminPassword)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "internal error", err)
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.PasswordHash), []byte(expectedHash)) != 1 {
		logging.LogSecurityEvent(r.Context(), logging.SecurityEventBadAdminSecret, "admin login rejected")
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.auth.GenerateAdminToken()
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "internal error", err)
		return
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{Token: token})
}
