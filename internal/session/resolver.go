// Package session turns a bearer credential into a resolved Session. Two
// strategies exist behind one interface so nothing outside this package
// depends on which is configured: TokenResolver reads the role straight out
// of the JWT, ServerResolver asks the backend identity endpoint and caches
// the answer briefly. Both degrade to an unknown role on any failure; they
// never surface an error to the caller.
package session

import (
	"context"

	"github.com/rs/zerolog"

	"gocard/gateway/internal/clientstate"
	"gocard/gateway/internal/config"
	"gocard/gateway/internal/models"
	"gocard/gateway/internal/upstream"
)

type Resolver interface {
	Resolve(ctx context.Context, credential string) models.Session
}

var unknownSession = models.Session{Role: models.RoleUnknown}

// New builds the resolver selected by session.strategy.
func New(cfg *config.AppConfig, client *upstream.Client, store clientstate.Store, log zerolog.Logger) Resolver {
	if cfg.Session.Strategy == "server" {
		return NewServerResolver(client, store, cfg.Upstream.MePath, cfg.Session.MeTTL, log)
	}
	return NewTokenResolver()
}
