package provider

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// EmbedBatched embeds an arbitrary number of values by splitting them into
// chunks the embedder accepts. Chunks run in parallel only if the embedder
// allows it. The result keeps the order of values.
func EmbedBatched[T Input](ctx context.Context, e Embedder[T], values []T, options *EmbedOptions) (*Embedding, error) {
	size := len(values)
	parallel := false

	if b, ok := e.(BatchEmbedder); ok {
		if n := b.MaxBatchSize(); n > 0 {
			size = n
		}

		parallel = b.SupportsParallelCalls()
	}

	if len(values) <= size {
		return e.Embed(ctx, values, options)
	}

	var chunks [][]T

	for i := 0; i < len(values); i += size {
		end := min(i+size, len(values))
		chunks = append(chunks, values[i:end])
	}

	results := make([]*Embedding, len(chunks))

	if parallel {
		g, ctx := errgroup.WithContext(ctx)

		for i, chunk := range chunks {
			g.Go(func() error {
				result, err := e.Embed(ctx, chunk, options)

				if err != nil {
					return err
				}

				results[i] = result
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, chunk := range chunks {
			result, err := e.Embed(ctx, chunk, options)

			if err != nil {
				return nil, err
			}

			results[i] = result
		}
	}

	return mergeEmbeddings(results), nil
}

func mergeEmbeddings(results []*Embedding) *Embedding {
	merged := &Embedding{}

	for _, r := range results {
		if merged.Model == "" {
			merged.Model = r.Model
		}

		if merged.Header == nil {
			merged.Header = r.Header
		}

		merged.Embeddings = append(merged.Embeddings, r.Embeddings...)

		if r.Usage != nil {
			if merged.Usage == nil {
				merged.Usage = &Usage{}
			}

			merged.Usage.InputTokens += r.Usage.InputTokens
			merged.Usage.OutputTokens += r.Usage.OutputTokens
		}
	}

	return merged
}
