package roundrobin_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/adrianliechti/wingman-jina/pkg/provider"
	"github.com/adrianliechti/wingman-jina/pkg/router"
	"github.com/adrianliechti/wingman-jina/pkg/router/roundrobin"

	"github.com/stretchr/testify/require"
)

type mockEmbedder struct {
	name  string
	calls int

	size     int
	parallel bool

	err error
}

func (e *mockEmbedder) Embed(ctx context.Context, values []string, options *provider.EmbedOptions) (*provider.Embedding, error) {
	e.calls++

	if e.err != nil {
		return nil, e.err
	}

	return &provider.Embedding{Model: e.name, Embeddings: [][]float32{{1}}}, nil
}

func (e *mockEmbedder) MaxBatchSize() int {
	return e.size
}

func (e *mockEmbedder) SupportsParallelCalls() bool {
	return e.parallel
}

func TestNewEmbedderRequiresUpstream(t *testing.T) {
	_, err := roundrobin.NewEmbedder[string]()
	require.Error(t, err)
}

func TestEmbedderDistributes(t *testing.T) {
	a := &mockEmbedder{name: "a"}
	b := &mockEmbedder{name: "b"}

	e, err := roundrobin.NewEmbedder[string](a, b)
	require.NoError(t, err)

	for range 100 {
		_, err := e.Embed(context.Background(), []string{"x"}, nil)
		require.NoError(t, err)
	}

	require.Equal(t, 100, a.calls+b.calls)
	require.Positive(t, a.calls)
	require.Positive(t, b.calls)
}

func TestEmbedderSkipsFailingUpstream(t *testing.T) {
	bad := &mockEmbedder{name: "bad", err: errors.New("unavailable")}
	good := &mockEmbedder{name: "good"}

	e, err := roundrobin.NewEmbedder[string](bad, good)
	require.NoError(t, err)

	for range 50 {
		e.Embed(context.Background(), []string{"x"}, nil)
	}

	require.LessOrEqual(t, bad.calls, router.DefaultFailureThreshold)

	before := good.calls

	for range 10 {
		result, err := e.Embed(context.Background(), []string{"x"}, nil)
		require.NoError(t, err)
		require.Equal(t, "good", result.Model)
	}

	require.Equal(t, before+10, good.calls)
}

func TestEmbedderIgnoresCallerErrors(t *testing.T) {
	invalid := errors.New("invalid options")

	a := &mockEmbedder{name: "a", err: invalid}

	e, err := roundrobin.NewEmbedder[string](a)
	require.NoError(t, err)

	e.IsFailure = func(err error) bool {
		return !errors.Is(err, invalid)
	}

	for range 10 {
		_, err := e.Embed(context.Background(), []string{"x"}, nil)
		require.ErrorIs(t, err, invalid)
	}

	require.Equal(t, 10, a.calls)
}

func TestEmbedderBatchLimits(t *testing.T) {
	e, err := roundrobin.NewEmbedder[string](
		&mockEmbedder{size: 2048, parallel: true},
		&mockEmbedder{size: 128, parallel: true},
	)

	require.NoError(t, err)

	require.Equal(t, 128, e.MaxBatchSize())
	require.True(t, e.SupportsParallelCalls())

	e, err = roundrobin.NewEmbedder[string](
		&mockEmbedder{size: 2048, parallel: true},
		&mockEmbedder{size: 0},
	)

	require.NoError(t, err)

	require.Equal(t, 2048, e.MaxBatchSize())
	require.False(t, e.SupportsParallelCalls())
}

func TestEmbedderIgnoresCanceledCalls(t *testing.T) {
	a := &mockEmbedder{name: "a", err: context.Canceled}

	e, err := roundrobin.NewEmbedder[string](a)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for range router.DefaultFailureThreshold * 2 {
		_, err := e.Embed(ctx, []string{"x"}, nil)
		require.ErrorIs(t, err, context.Canceled)
	}

	a.err = fmt.Errorf("%w: rate: Wait(n=1) would exceed context deadline", context.DeadlineExceeded)

	for range router.DefaultFailureThreshold * 2 {
		_, err := e.Embed(context.Background(), []string{"x"}, nil)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	}

	require.Equal(t, router.DefaultFailureThreshold*4, a.calls)
}
