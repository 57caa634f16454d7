package utils

import (
	"context"

	"github.com/famledger/famledger/internal/common"
	"github.com/famledger/famledger/internal/models"
)

// Key type for context values
type contextKey string

// Constant for claims context key
const claimsKey contextKey = "claims"

// GetClaimsFromContext extracts the verified token claims from the
// context.
func GetClaimsFromContext(ctx context.Context) (*models.Claims, error) {
	claims, ok := ctx.Value(claimsKey).(*models.Claims)
	if !ok || claims == nil {
		return nil, common.ErrNotAuthenticated
	}
	return claims, nil
}

// SetClaimsToContext adds the verified token claims to the context.
func SetClaimsToContext(ctx context.Context, claims *models.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// GetUserIDFromContext extracts the authenticated user id from the
// context.
func GetUserIDFromContext(ctx context.Context) (string, error) {
	claims, err := GetClaimsFromContext(ctx)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}
