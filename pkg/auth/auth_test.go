package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adrianliechti/wingman-jina/pkg/auth"
	"github.com/adrianliechti/wingman-jina/pkg/auth/header"
	"github.com/adrianliechti/wingman-jina/pkg/auth/static"

	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	_, err := auth.BearerToken(r)
	require.ErrorIs(t, err, auth.ErrMissingAuthorization)

	r.Header.Set("Authorization", "Basic abc")
	_, err = auth.BearerToken(r)
	require.ErrorIs(t, err, auth.ErrInvalidAuthorization)

	r.Header.Set("Authorization", "Bearer abc")
	token, err := auth.BearerToken(r)
	require.NoError(t, err)
	require.Equal(t, "abc", token)
}

func TestStatic(t *testing.T) {
	_, err := static.New("")
	require.Error(t, err)

	p, err := static.New("one", "two")
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer two")

	ctx, err := p.Authenticate(context.Background(), r)
	require.NoError(t, err)
	require.Equal(t, "static", auth.User(ctx))

	r.Header.Set("Authorization", "Bearer three")

	_, err = p.Authenticate(context.Background(), r)
	require.Error(t, err)
}

func TestHeader(t *testing.T) {
	p, err := header.New()
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)

	_, err = p.Authenticate(context.Background(), r)
	require.Error(t, err)

	r.Header.Set("X-Forwarded-User", "jane@example.com")

	ctx, err := p.Authenticate(context.Background(), r)
	require.NoError(t, err)
	require.Equal(t, "jane@example.com", auth.User(ctx))
	require.Equal(t, "jane@example.com", auth.Email(ctx))

	p, err = header.New(header.WithUserHeader("X-User"))
	require.NoError(t, err)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-User", "jane")

	ctx, err = p.Authenticate(context.Background(), r)
	require.NoError(t, err)
	require.Equal(t, "jane", auth.User(ctx))
	require.Empty(t, auth.Email(ctx))
}

type denyProvider struct{}

func (denyProvider) Authenticate(ctx context.Context, r *http.Request) (context.Context, error) {
	return ctx, errors.New("denied")
}

func TestAuthenticate(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer secret")

	_, err := auth.Authenticate(context.Background(), r)
	require.NoError(t, err)

	s, err := static.New("secret")
	require.NoError(t, err)

	ctx, err := auth.Authenticate(context.Background(), r, denyProvider{}, s)
	require.NoError(t, err)
	require.Equal(t, "static", auth.User(ctx))

	_, err = auth.Authenticate(context.Background(), r, denyProvider{})
	require.EqualError(t, err, "denied")
}
