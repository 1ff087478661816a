package roundrobin

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/adrianliechti/wingman-jina/pkg/provider"
	"github.com/adrianliechti/wingman-jina/pkg/router"
)

// Embedder spreads calls randomly over healthy embedders. Failures that the
// caller caused, like invalid options or oversized batches, do not count
// against an upstream.
type Embedder[T provider.Input] struct {
	embedders []provider.Embedder[T]
	breakers  []*router.Breaker

	// IsFailure decides whether an error marks the upstream unhealthy.
	IsFailure func(error) bool
}

func NewEmbedder[T provider.Input](embedders ...provider.Embedder[T]) (*Embedder[T], error) {
	if len(embedders) == 0 {
		return nil, errors.New("at least one embedder is required")
	}

	breakers := make([]*router.Breaker, len(embedders))

	for i := range breakers {
		breakers[i] = router.NewBreaker(router.DefaultFailureThreshold, router.DefaultRecoveryTimeout)
	}

	return &Embedder[T]{
		embedders: embedders,
		breakers:  breakers,
	}, nil
}

func (e *Embedder[T]) Embed(ctx context.Context, values []T, options *provider.EmbedOptions) (*provider.Embedding, error) {
	index := e.selectEmbedder()
	breaker := e.breakers[index]

	breaker.Acquire()
	defer breaker.Release()

	result, err := e.embedders[index].Embed(ctx, values, options)

	if err != nil {
		if ctx.Err() == nil && e.isFailure(err) {
			breaker.RecordFailure()
		}

		return nil, err
	}

	breaker.RecordSuccess()

	return result, nil
}

// MaxBatchSize is the smallest limit of all upstreams, so any of them accepts a batch.
func (e *Embedder[T]) MaxBatchSize() int {
	size := 0

	for _, p := range e.embedders {
		b, ok := p.(provider.BatchEmbedder)

		if !ok || b.MaxBatchSize() <= 0 {
			continue
		}

		if size == 0 || b.MaxBatchSize() < size {
			size = b.MaxBatchSize()
		}
	}

	return size
}

func (e *Embedder[T]) SupportsParallelCalls() bool {
	for _, p := range e.embedders {
		if b, ok := p.(provider.BatchEmbedder); !ok || !b.SupportsParallelCalls() {
			return false
		}
	}

	return true
}

func (e *Embedder[T]) isFailure(err error) bool {
	if e.IsFailure != nil {
		return e.IsFailure(err)
	}

	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (e *Embedder[T]) selectEmbedder() int {
	candidates := make([]int, 0, len(e.embedders))

	for i, b := range e.breakers {
		if b.Available() {
			candidates = append(candidates, i)
		}
	}

	if len(candidates) == 0 {
		return e.fallbackEmbedder()
	}

	return candidates[rand.IntN(len(candidates))]
}

// fallbackEmbedder probes the upstream that failed longest ago.
func (e *Embedder[T]) fallbackEmbedder() int {
	index := 0

	for i, b := range e.breakers {
		if b.LastFailure().Before(e.breakers[index].LastFailure()) {
			index = i
		}
	}

	e.breakers[index].ForceHalfOpen()

	return index
}
