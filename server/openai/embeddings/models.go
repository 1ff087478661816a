package embeddings

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/adrianliechti/wingman-jina/pkg/provider"
)

// https://platform.openai.com/docs/api-reference/embeddings/create
// extended with the jina embedding parameters
type EmbeddingsRequest struct {
	Model string `json:"model"`

	Input json.RawMessage `json:"input"`

	// float, base64
	EncodingFormat string `json:"encoding_format,omitempty"`
	Dimensions     *int   `json:"dimensions,omitempty"`

	Task          string `json:"task,omitempty"`
	EmbeddingType string `json:"embedding_type,omitempty"`

	Normalized   *bool `json:"normalized,omitempty"`
	Truncate     *bool `json:"truncate,omitempty"`
	LateChunking *bool `json:"late_chunking,omitempty"`
}

// ParseInput returns either texts or multimodal records. A single string is
// treated as a batch of one.
func (r *EmbeddingsRequest) ParseInput() ([]string, []provider.MultimodalInput, error) {
	input := bytes.TrimSpace(r.Input)

	if len(input) == 0 || bytes.Equal(input, []byte("null")) {
		return nil, nil, errors.New("no input provided")
	}

	var text string

	if err := json.Unmarshal(r.Input, &text); err == nil {
		return []string{text}, nil, nil
	}

	var texts []string

	if err := json.Unmarshal(r.Input, &texts); err == nil {
		return texts, nil, nil
	}

	var items []provider.MultimodalInput

	if err := json.Unmarshal(r.Input, &items); err == nil {
		for _, item := range items {
			if item.Text == "" && item.Image == "" {
				return nil, nil, errors.New("input items need a text or an image")
			}
		}

		return nil, items, nil
	}

	return nil, nil, errors.New("input must be a string, an array of strings or an array of {text, image} objects")
}

// https://platform.openai.com/docs/api-reference/embeddings/object
type Embedding struct {
	Object string `json:"object"` // "embedding"

	Index     int `json:"index"`
	Embedding any `json:"embedding"`
}

// https://platform.openai.com/docs/api-reference/embeddings/create
type EmbeddingList struct {
	Object string `json:"object"` // "list"

	Model string      `json:"model"`
	Data  []Embedding `json:"data"`

	Usage *Usage `json:"usage,omitempty"`
}

type Usage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}
