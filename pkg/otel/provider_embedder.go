package otel

import (
	"context"
	"time"

	"github.com/adrianliechti/wingman-jina/pkg/provider"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/semconv/v1.38.0/genaiconv"
)

type Embedder[T provider.Input] interface {
	Observable
	provider.Embedder[T]
	provider.BatchEmbedder
}

type observableEmbedder[T provider.Input] struct {
	model    string
	provider string

	embedder provider.Embedder[T]

	tokenUsageMetric        genaiconv.ClientTokenUsage
	operationDurationMetric genaiconv.ClientOperationDuration
}

func NewEmbedder[T provider.Input](provider, model string, p provider.Embedder[T]) Embedder[T] {
	meter := otel.Meter(instrumentationName)

	tokenUsageMetric, _ := genaiconv.NewClientTokenUsage(meter)
	operationDurationMetric, _ := genaiconv.NewClientOperationDuration(meter)

	return &observableEmbedder[T]{
		embedder: p,

		model:    model,
		provider: provider,

		tokenUsageMetric:        tokenUsageMetric,
		operationDurationMetric: operationDurationMetric,
	}
}

func (p *observableEmbedder[T]) otelSetup() {
}

func (p *observableEmbedder[T]) MaxBatchSize() int {
	if b, ok := p.embedder.(provider.BatchEmbedder); ok {
		return b.MaxBatchSize()
	}

	return 0
}

func (p *observableEmbedder[T]) SupportsParallelCalls() bool {
	if b, ok := p.embedder.(provider.BatchEmbedder); ok {
		return b.SupportsParallelCalls()
	}

	return false
}

func (p *observableEmbedder[T]) Embed(ctx context.Context, values []T, options *provider.EmbedOptions) (*provider.Embedding, error) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "embeddings "+p.model)
	defer span.End()

	span.SetAttributes(
		String("gen_ai.provider.name", p.provider),
		String("gen_ai.request.model", p.model),
		Int("gen_ai.embeddings.input_count", len(values)),
	)

	timestamp := time.Now()

	result, err := p.embedder.Embed(ctx, values, options)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	if result != nil {
		duration := time.Since(timestamp).Seconds()

		providerName := genaiconv.ProviderNameAttr(p.provider)
		providerModel := p.model

		if result.Model != "" {
			providerModel = result.Model
		}

		p.operationDurationMetric.Record(ctx, duration,
			genaiconv.OperationNameEmbeddings,
			providerName,
			p.operationDurationMetric.AttrRequestModel(p.model),
			p.operationDurationMetric.AttrResponseModel(providerModel),
		)

		if result.Usage != nil && result.Usage.InputTokens > 0 {
			p.tokenUsageMetric.Record(ctx, int64(result.Usage.InputTokens),
				genaiconv.OperationNameEmbeddings,
				providerName,
				genaiconv.TokenTypeInput,
				p.tokenUsageMetric.AttrRequestModel(p.model),
				p.tokenUsageMetric.AttrResponseModel(providerModel),
			)
		}
	}

	return result, err
}
