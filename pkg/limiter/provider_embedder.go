package limiter

import (
	"context"
	"fmt"

	"github.com/adrianliechti/wingman-jina/pkg/provider"

	"golang.org/x/time/rate"
)

type Embedder[T provider.Input] interface {
	Limiter
	provider.Embedder[T]
	provider.BatchEmbedder
}

type limitedEmbedder[T provider.Input] struct {
	limiter  *rate.Limiter
	provider provider.Embedder[T]
}

// NewEmbedder throttles calls to p. A nil limiter passes calls through.
func NewEmbedder[T provider.Input](l *rate.Limiter, p provider.Embedder[T]) Embedder[T] {
	return &limitedEmbedder[T]{
		limiter:  l,
		provider: p,
	}
}

func (p *limitedEmbedder[T]) limiterSetup() {
}

func (p *limitedEmbedder[T]) MaxBatchSize() int {
	if b, ok := p.provider.(provider.BatchEmbedder); ok {
		return b.MaxBatchSize()
	}

	return 0
}

func (p *limitedEmbedder[T]) SupportsParallelCalls() bool {
	if b, ok := p.provider.(provider.BatchEmbedder); ok {
		return b.SupportsParallelCalls()
	}

	return false
}

func (p *limitedEmbedder[T]) Embed(ctx context.Context, values []T, options *provider.EmbedOptions) (*provider.Embedding, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, waitError(ctx, err)
		}
	}

	return p.provider.Embed(ctx, values, options)
}

// waitError reports a failed wait as a context error, so callers see a
// cancellation rather than a limiter failure.
func waitError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	if _, ok := ctx.Deadline(); ok {
		return fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
	}

	return err
}
