package gateway

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/e-zhydzetski/wsgate/pkg/token"
)

// Reasons sent to the client in invalid_payload data when the guard rejects a request.
const (
	ReasonNoSession          = "no active session"
	ReasonTokenMismatch      = "token mismatch"
	ReasonSessionExpired     = "session expired"
	ReasonSessionUnavailable = "session unavailable"
)

// InvalidPayloadData is the data of an invalid_payload envelope sent by the guard.
type InvalidPayloadData struct {
	Msg string `json:"msg"`
}

type GuardOption func(g *AuthGuard)

func WithClock(now func() time.Time) GuardOption {
	return func(g *AuthGuard) {
		g.now = now
	}
}

func WithGuardLogger(log zerolog.Logger) GuardOption {
	return func(g *AuthGuard) {
		g.log = log
	}
}

// AuthGuard admits a request only if it carries the token of the active, unexpired session.
type AuthGuard struct {
	provider token.Provider
	expiry   time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

func NewAuthGuard(provider token.Provider, expiry time.Duration, opts ...GuardOption) *AuthGuard {
	g := &AuthGuard{
		provider: provider,
		expiry:   expiry,
		now:      time.Now,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Wrap checks, in order: active session, token match, expiry. The first failed check sends
// invalid_payload with its reason and closes the connection; h is not called.
// A session lasts exactly expiry: idle time equal to expiry is still accepted.
func (g *AuthGuard) Wrap(h Handler) Handler {
	return func(ctx context.Context, c Conn, data json.RawMessage, tok string) error {
		now := g.now()
		reason, err := g.check(ctx, tok, now)
		if err != nil {
			g.reject(c, ReasonSessionUnavailable)
			return err
		}
		if reason != "" {
			g.log.Debug().Str("conn_id", c.ID()).Str("reason", reason).Msg("request rejected")
			g.reject(c, reason)
			return nil
		}

		if err := g.provider.Touch(ctx, tok, now); err != nil {
			g.log.Warn().Err(err).Str("conn_id", c.ID()).Msg("failed to refresh session")
		}
		return h(ctx, c, data, tok)
	}
}

func (g *AuthGuard) check(ctx context.Context, tok string, now time.Time) (string, error) {
	sess, err := g.provider.Current(ctx)
	switch {
	case errors.Is(err, token.ErrNoSession):
		return ReasonNoSession, nil
	case err != nil:
		return "", fmt.Errorf("lookup session: %w", err)
	case subtle.ConstantTimeCompare([]byte(sess.Token), []byte(tok)) != 1:
		return ReasonTokenMismatch, nil
	case now.Sub(sess.LastUsed) > g.expiry:
		return ReasonSessionExpired, nil
	}
	return "", nil
}

func (g *AuthGuard) reject(c Conn, reason string) {
	env, err := NewEnvelope(OpInvalidPayload, InvalidPayloadData{Msg: reason})
	if err == nil {
		if err := c.Send(env); err != nil {
			g.log.Debug().Err(err).Str("conn_id", c.ID()).Msg("failed to send rejection")
		}
	}
	_ = c.Close()
}
