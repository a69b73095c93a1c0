// Package services contains the core business logic for Bonkboard.
package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role represents a user's permission level.
type Role string

// RoleAdmin holds the only elevated role: full control over sounds,
// milestones, and notifications. Everyone else is anonymous.
const RoleAdmin Role = "admin"

// Claims represents the JWT payload for authenticated requests.
type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthService handles JWT token generation and validation for the admin
// session established by the login endpoint.
type AuthService struct {
	secret        []byte
	tokenDuration time.Duration
}

// NewAuthService creates an AuthService with the given signing secret and
// token duration.
func NewAuthService(secret string, tokenDuration time.Duration) *AuthService {
	return &AuthService{
		secret:        []byte(secret),
		tokenDuration: tokenDuration,
	}
}

// GenerateAdminToken creates a signed JWT carrying the admin role.
func (s *AuthService) GenerateAdminToken() (string, error) {
	claims := Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "bonkboard",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken verifies the JWT signature and expiry, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
