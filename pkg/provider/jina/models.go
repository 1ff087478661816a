package jina

import (
	"encoding/json"
)

// https://api.jina.ai/redoc#tag/embeddings
type EmbeddingsRequest[T any] struct {
	Model string `json:"model"`
	Input []T    `json:"input"`

	Task          string `json:"task,omitempty"`
	EmbeddingType string `json:"embedding_type,omitempty"`
	Dimensions    *int   `json:"dimensions,omitempty"`

	Normalized   bool  `json:"normalized"`
	LateChunking *bool `json:"late_chunking,omitempty"`
	Truncate     bool  `json:"truncate"`
}

type EmbeddingList struct {
	Object string `json:"object"` // "list"

	Model string      `json:"model,omitempty"`
	Data  []Embedding `json:"data"`

	Usage *Usage `json:"usage,omitempty"`
}

type Embedding struct {
	Object string `json:"object"` // "embedding"

	Index     *float64        `json:"index,omitempty"`
	Embedding json.RawMessage `json:"embedding"`
}

type Usage struct {
	PromptTokens float64 `json:"prompt_tokens,omitempty"`
	TotalTokens  float64 `json:"total_tokens"`
}
