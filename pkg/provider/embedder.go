package provider

import (
	"context"
	"net/http"
)

// Input is the sealed set of values an embedder accepts. An embedder is bound
// to exactly one of them when it is created.
type Input interface {
	string | MultimodalInput
}

// MultimodalInput carries a text, an image (URL or data URI) or both.
type MultimodalInput struct {
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
}

type Embedder[T Input] interface {
	Embed(ctx context.Context, values []T, options *EmbedOptions) (*Embedding, error)
}

type TextEmbedder = Embedder[string]
type MultimodalEmbedder = Embedder[MultimodalInput]

// BatchEmbedder is implemented by embedders that limit how many values a
// single Embed call may carry.
type BatchEmbedder interface {
	MaxBatchSize() int
	SupportsParallelCalls() bool
}

type EmbedTask string

const (
	EmbedTaskRetrievalQuery   EmbedTask = "retrieval.query"
	EmbedTaskRetrievalPassage EmbedTask = "retrieval.passage"
	EmbedTaskTextMatching     EmbedTask = "text-matching"
	EmbedTaskClassification   EmbedTask = "classification"
	EmbedTaskSeparation       EmbedTask = "separation"
)

type EmbedEncoding string

const (
	EmbedEncodingFloat   EmbedEncoding = "float"
	EmbedEncodingBinary  EmbedEncoding = "binary"
	EmbedEncodingUBinary EmbedEncoding = "ubinary"
	EmbedEncodingBase64  EmbedEncoding = "base64"
)

type EmbedOptions struct {
	Task EmbedTask

	Dimensions *int
	Encoding   EmbedEncoding

	Normalized   *bool
	Truncate     *bool
	LateChunking *bool

	Headers map[string]string
}

type Embedding struct {
	Model string

	Embeddings [][]float32

	Usage *Usage

	Header http.Header
}

func Ptr[T any](v T) *T {
	return &v
}
