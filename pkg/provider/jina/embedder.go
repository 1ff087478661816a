package jina

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/adrianliechti/wingman-jina/pkg/provider"
)

const (
	// MaxBatchSize is the number of values the embeddings endpoint accepts per request.
	MaxBatchSize = 2048

	// LegacyMaxBatchSize is the limit of the first generation embeddings api.
	LegacyMaxBatchSize = 128
)

var (
	_ provider.TextEmbedder       = (*Embedder[string])(nil)
	_ provider.MultimodalEmbedder = (*Embedder[provider.MultimodalInput])(nil)
	_ provider.BatchEmbedder      = (*Embedder[string])(nil)
)

type Embedder[T provider.Input] struct {
	*Config

	model string
	name  string

	maxBatchSize int

	options *provider.EmbedOptions
}

type TextEmbedder = Embedder[string]
type MultimodalEmbedder = Embedder[provider.MultimodalInput]

type modelConfig struct {
	maxBatchSize int

	options *provider.EmbedOptions
}

type ModelOption func(*modelConfig)

func WithMaxBatchSize(size int) ModelOption {
	return func(c *modelConfig) {
		c.maxBatchSize = size
	}
}

// WithEmbedOptions sets defaults applied to every call of the model. Options
// passed to Embed take precedence field by field.
func WithEmbedOptions(options *provider.EmbedOptions) ModelOption {
	return func(c *modelConfig) {
		c.options = options
	}
}

// NewEmbedder creates a text embedder without going through a Provider.
func NewEmbedder(url, model string, options ...Option) (*TextEmbedder, error) {
	if url != "" {
		options = append([]Option{WithURL(url)}, options...)
	}

	return New(options...).TextEmbedder(model)
}

// NewMultimodalEmbedder creates a multimodal embedder without going through a Provider.
func NewMultimodalEmbedder(url, model string, options ...Option) (*MultimodalEmbedder, error) {
	if url != "" {
		options = append([]Option{WithURL(url)}, options...)
	}

	return New(options...).MultimodalEmbedder(model)
}

func newEmbedder[T provider.Input](cfg *Config, name, model string, options ...ModelOption) (*Embedder[T], error) {
	mc := &modelConfig{
		maxBatchSize: MaxBatchSize,
	}

	for _, option := range options {
		option(mc)
	}

	if mc.maxBatchSize <= 0 {
		return nil, fmt.Errorf("jina: invalid max batch size %d", mc.maxBatchSize)
	}

	e := &Embedder[T]{
		Config: cfg,

		model: model,
		name:  name,

		maxBatchSize: mc.maxBatchSize,

		options: mc.options,
	}

	if err := ValidateOptions(e.options, e.multimodal()); err != nil {
		return nil, err
	}

	return e, nil
}

func (e *Embedder[T]) Model() string {
	return e.model
}

// Provider returns the provider name reported in errors and telemetry.
func (e *Embedder[T]) Provider() string {
	return e.name
}

func (e *Embedder[T]) MaxBatchSize() int {
	return e.maxBatchSize
}

func (e *Embedder[T]) SupportsParallelCalls() bool {
	return false
}

func (e *Embedder[T]) multimodal() bool {
	var zero T
	_, ok := any(zero).(provider.MultimodalInput)

	return ok
}

// Embed sends exactly one request for all values. Batches larger than
// MaxBatchSize are rejected before anything is sent.
func (e *Embedder[T]) Embed(ctx context.Context, values []T, options *provider.EmbedOptions) (*provider.Embedding, error) {
	if len(values) > e.maxBatchSize {
		return nil, &BatchSizeError{
			Limit: e.maxBatchSize,

			Model:    e.model,
			Provider: e.name,

			Values: values,
			Count:  len(values),
		}
	}

	options = MergeOptions(e.options, options)

	if err := ValidateOptions(options, e.multimodal()); err != nil {
		return nil, err
	}

	headers, err := e.requestHeaders(options.Headers)

	if err != nil {
		return nil, err
	}

	body := e.newRequest(values, options)

	data, err := json.Marshal(body)

	if err != nil {
		return nil, err
	}

	url := e.url + "/embeddings"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))

	if err != nil {
		return nil, err
	}

	req.Header = headers

	slog.DebugContext(ctx, "jina embeddings request", "model", e.model, "provider", e.name, "values", len(values))

	resp, err := e.client.Do(req)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, canceledError(ctxErr)
		}

		return nil, &NetworkError{URL: url, Err: err}
	}

	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, canceledError(ctxErr)
		}

		return nil, &NetworkError{URL: url, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := &ProviderError{
			StatusCode: resp.StatusCode,
			Message:    decodeError(resp.StatusCode, respBody),

			Body:    respBody,
			Request: body,
		}

		slog.DebugContext(ctx, "jina embeddings request failed", "model", e.model, "status", resp.StatusCode, "error", err.Message)

		return nil, err
	}

	list, embeddings, err := decodeEmbeddingList(respBody, string(options.Encoding))

	if err != nil {
		return nil, err
	}

	if len(embeddings) != len(values) {
		return nil, &MalformedResponseError{
			Body: respBody,
			Err:  fmt.Errorf("data: got %d embeddings for %d values", len(embeddings), len(values)),
		}
	}

	result := &provider.Embedding{
		Model: list.Model,

		Embeddings: embeddings,

		Header: resp.Header.Clone(),
	}

	if result.Model == "" {
		result.Model = e.model
	}

	if list.Usage != nil {
		result.Usage = &provider.Usage{
			InputTokens: int(list.Usage.TotalTokens),
		}
	}

	return result, nil
}

func (e *Embedder[T]) newRequest(values []T, options *provider.EmbedOptions) *EmbeddingsRequest[T] {
	req := &EmbeddingsRequest[T]{
		Model: e.model,
		Input: values,

		Task:          string(options.Task),
		EmbeddingType: string(options.Encoding),
		Dimensions:    options.Dimensions,

		Normalized:   true,
		LateChunking: options.LateChunking,
		Truncate:     false,
	}

	if req.Input == nil {
		req.Input = []T{}
	}

	if options.Normalized != nil {
		req.Normalized = *options.Normalized
	}

	if options.Truncate != nil {
		req.Truncate = *options.Truncate
	}

	return req
}
