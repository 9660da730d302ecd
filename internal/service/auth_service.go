package service

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/openverse/campus-api/internal/models"
	appErrors "github.com/openverse/campus-api/pkg/errors"
)

// AuthService validates access tokens issued by the institute's
// identity provider. Token issuance, registration and password flows
// all live upstream; this service only proves that a presented token is
// genuine and extracts the identity claims the engine needs.
type AuthService struct {
	secret []byte
	logger *zap.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(secret string, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{secret: []byte(secret), logger: logger}
}

// ValidateToken parses and verifies a bearer token, returning its
// claims. Expired, malformed or incorrectly signed tokens are all
// rejected as unauthorized.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing access token")
	}

	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired access token")
	}
	if claims.EnrollmentID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token is missing the enrollment identity")
	}
	if claims.Role == "" {
		claims.Role = models.RoleStudent
	}
	return claims, nil
}
