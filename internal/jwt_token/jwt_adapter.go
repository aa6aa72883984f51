package jwttoken

import (
	"github.com/google/uuid"

	"rushledger/internal/platform/middleware"
	dErrors "rushledger/pkg/domain-errors"
)

// JWTServiceAdapter bridges JWTService to the middleware's validator
// interface, translating string claims into typed IDs.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return &middleware.JWTClaims{UserID: userID}, nil
}
