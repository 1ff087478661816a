package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/adrianliechti/wingman-jina/pkg/provider"
)

type EmbeddingService struct {
	Options []RequestOption
}

func NewEmbeddingService(opts ...RequestOption) EmbeddingService {
	return EmbeddingService{
		Options: opts,
	}
}

type Embedding = provider.Embedding

type MultimodalInput = provider.MultimodalInput

// EmbeddingsRequest carries either Texts or Items.
type EmbeddingsRequest struct {
	Model string

	Texts []string
	Items []MultimodalInput

	Task       provider.EmbedTask
	Dimensions *int
}

func (r *EmbeddingService) New(ctx context.Context, input EmbeddingsRequest, opts ...RequestOption) (*Embedding, error) {
	c := newRequestConfig(append(r.Options, opts...)...)

	body := map[string]any{
		"model": input.Model,
	}

	switch {
	case len(input.Items) > 0:
		body["input"] = input.Items
	case len(input.Texts) > 0:
		body["input"] = input.Texts
	default:
		return nil, errors.New("no input provided")
	}

	if input.Task != "" {
		body["task"] = input.Task
	}

	if input.Dimensions != nil {
		body["dimensions"] = *input.Dimensions
	}

	data, err := json.Marshal(body)

	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", strings.TrimRight(c.URL, "/")+"/v1/embeddings", bytes.NewReader(data))

	if err != nil {
		return nil, err
	}

	c.newRequest(req)

	resp, err := c.Client.Do(req)

	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}

		if err := json.NewDecoder(resp.Body).Decode(&result); err == nil && result.Error.Message != "" {
			return nil, errors.New(result.Error.Message)
		}

		return nil, errors.New(resp.Status)
	}

	// https://platform.openai.com/docs/api-reference/embeddings/object
	type EmbeddingList struct {
		Model string `json:"model"`

		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`

		Usage *struct {
			PromptTokens int `json:"prompt_tokens"`
		} `json:"usage"`
	}

	var result EmbeddingList

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	embedding := &Embedding{
		Model:      result.Model,
		Embeddings: make([][]float32, len(result.Data)),
	}

	for _, d := range result.Data {
		if d.Index < 0 || d.Index >= len(result.Data) {
			return nil, errors.New("invalid embedding index")
		}

		embedding.Embeddings[d.Index] = d.Embedding
	}

	if result.Usage != nil {
		embedding.Usage = &provider.Usage{
			InputTokens: result.Usage.PromptTokens,
		}
	}

	return embedding, nil
}
