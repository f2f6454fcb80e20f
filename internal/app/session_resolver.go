package app

import (
	"context"
	"errors"

	"quiz-client/internal/backend"
	"quiz-client/internal/domain"

	"github.com/sirupsen/logrus"
)

// IdentityAPI is the backend surface the resolver reads.
type IdentityAPI interface {
	Me(ctx context.Context) (domain.Identity, error)
}

// SessionResolver decides whether the caller is logged in. It never caches:
// each consumer resolves on its own.
type SessionResolver struct {
	api IdentityAPI
	log logrus.FieldLogger
}

func NewSessionResolver(api IdentityAPI, log logrus.FieldLogger) *SessionResolver {
	return &SessionResolver{api: api, log: log}
}

// Resolve returns the identity, or nil when the caller is not authenticated.
// Auth-required responses and malformed identity payloads both resolve to nil
// without error; only other backend failures are returned.
func (r *SessionResolver) Resolve(ctx context.Context) (*domain.Identity, error) {
	identity, err := r.api.Me(ctx)
	switch {
	case err == nil:
		return &identity, nil
	case backend.IsAuthRequired(err):
		return nil, nil
	case errors.Is(err, backend.ErrDecode):
		r.log.WithError(err).Warn("identity payload rejected, treating session as logged out")
		return nil, nil
	default:
		return nil, err
	}
}
