package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"gocard/gateway/internal/clientstate"
	"gocard/gateway/internal/models"
	"gocard/gateway/internal/upstream"
)

// ServerResolver asks the upstream identity endpoint who the credential
// belongs to. The answer is cached for a short TTL keyed by a hash of the
// credential, since every guarded request passes through here.
type ServerResolver struct {
	client *upstream.Client
	store  clientstate.Store
	mePath string
	ttl    time.Duration
	log    zerolog.Logger
}

func NewServerResolver(client *upstream.Client, store clientstate.Store, mePath string, ttl time.Duration, log zerolog.Logger) *ServerResolver {
	return &ServerResolver{
		client: client,
		store:  store,
		mePath: mePath,
		ttl:    ttl,
		log:    log,
	}
}

type meResponse struct {
	UserID   int    `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (r *ServerResolver) Resolve(ctx context.Context, credential string) models.Session {
	if credential == "" {
		return unknownSession
	}

	key := "me:" + credentialHash(credential)
	if cached, err := r.store.GetCached(ctx, key); err == nil {
		var sess models.Session
		if json.Unmarshal(cached, &sess) == nil && sess.Resolved() {
			return sess
		}
	}

	var me meResponse
	if err := r.client.Get(upstream.WithCredential(ctx, credential), r.mePath, nil, &me); err != nil {
		r.log.Debug().Err(err).Msg("identity lookup failed")
		return unknownSession
	}

	sess := models.Session{
		UserID:   me.UserID,
		Username: me.Username,
		Role:     models.ParseRole(me.Role),
	}
	if !sess.Resolved() {
		return unknownSession
	}

	if encoded, err := json.Marshal(sess); err == nil {
		if err := r.store.SetCached(ctx, key, encoded, r.ttl); err != nil {
			r.log.Debug().Err(err).Msg("identity cache write failed")
		}
	}
	return sess
}

// EvictIdentity drops the cached identity for a credential so a cached "me"
// answer cannot outlive its session. Logout calls this regardless of the
// configured strategy; for the token strategy the key simply does not exist.
func EvictIdentity(ctx context.Context, store clientstate.Store, credential string) error {
	if credential == "" {
		return nil
	}
	return store.DeleteCached(ctx, "me:"+credentialHash(credential))
}

func credentialHash(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:])
}
