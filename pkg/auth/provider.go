package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type contextKey string

const (
	UserContextKey  contextKey = "auth.user"
	EmailContextKey contextKey = "auth.email"
)

var (
	ErrMissingAuthorization = errors.New("missing authorization header")
	ErrInvalidAuthorization = errors.New("invalid authorization header")
)

type Provider interface {
	Authenticate(ctx context.Context, r *http.Request) (context.Context, error)
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")

	if header == "" {
		return "", ErrMissingAuthorization
	}

	token, ok := strings.CutPrefix(header, "Bearer ")

	if !ok || strings.TrimSpace(token) == "" {
		return "", ErrInvalidAuthorization
	}

	return strings.TrimSpace(token), nil
}

func User(ctx context.Context) string {
	user, _ := ctx.Value(UserContextKey).(string)
	return user
}

func Email(ctx context.Context) string {
	email, _ := ctx.Value(EmailContextKey).(string)
	return email
}

// Authenticate tries each provider in order and returns the context of the
// first one that accepts the request. With no providers every request passes.
func Authenticate(ctx context.Context, r *http.Request, providers ...Provider) (context.Context, error) {
	if len(providers) == 0 {
		return ctx, nil
	}

	var errs []error

	for _, p := range providers {
		result, err := p.Authenticate(ctx, r)

		if err == nil {
			return result, nil
		}

		errs = append(errs, err)
	}

	return ctx, errors.Join(errs...)
}
