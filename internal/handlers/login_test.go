package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bonkboard/backend/internal/config"
	"github.com/bonkboard/backend/internal/crypto"
	"github.com/bonkboard/backend/internal/models"
	"github.com/bonkboard/backend/internal/services"
)

func newLoginHandler() (*LoginHandler, *services.AuthService) {
	cfg := &config.Config{AdminPassword: "hunter2"}
	auth := services.NewAuthService("test-signing-secret", time.Hour)
	return NewLoginHandler(cfg, auth), auth
}

func TestLogin(t *testing.T) {
	h, auth := newLoginHandler()

	hash, err := crypto.HashAdminSecret("hunter2")
	if err != nil {
		t.Fatalf("HashAdminSecret failed: %v", err)
	}

	rec := httptest.NewRecorder()
	h.Login(rec, jsonRequest(t, http.MethodPost, "/api/login", models.LoginRequest{PasswordHash: hash}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body)
	}
	var resp models.LoginResponse
	decodeBody(t, rec, &resp)

	claims, err := auth.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.Role != services.RoleAdmin {
		t.Errorf("token role = %s, want admin", claims.Role)
	}
}

func TestLogin_Rejections(t *testing.T) {
	h, _ := newLoginHandler()

	wrongHash, err := crypto.HashAdminSecret("not-the-secret")
	if err != nil {
		t.Fatalf("HashAdminSecret failed: %v", err)
	}

	tests := []struct {
		name string
		body string
		want int
	}{
		{"wrong secret", `{"passwordHash":"` + wrongHash + `"}`, http.StatusUnauthorized},
		{"raw secret instead of hash", `{"passwordHash":"hunter2"}`, http.StatusUnauthorized},
		{"empty hash", `{"passwordHash":""}`, http.StatusUnauthorized},
		{"malformed body", `{not json`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Login(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
