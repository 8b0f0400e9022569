package session

import (
	"context"
	"time"

	"gocard/gateway/internal/models"
	"gocard/gateway/internal/security"
)

// TokenResolver decodes the credential locally. The signature is not checked
// here; the backend re-validates the token on every forwarded call.
type TokenResolver struct {
	now func() time.Time
}

func NewTokenResolver() *TokenResolver {
	return &TokenResolver{now: time.Now}
}

func (r *TokenResolver) Resolve(_ context.Context, credential string) models.Session {
	if credential == "" {
		return unknownSession
	}

	claims, err := security.DecodeToken(credential, r.now())
	if err != nil {
		return unknownSession
	}

	role := models.ParseRole(claims.Role)
	if role == models.RoleUnknown {
		return unknownSession
	}

	return models.Session{
		UserID:   claims.UserID(),
		Username: claims.UniqueName,
		Role:     role,
	}
}
