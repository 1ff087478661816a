package jina

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

var (
	responseSchema       = mustResolve(embeddingListSchema(false))
	base64ResponseSchema = mustResolve(embeddingListSchema(true))
)

func embeddingListSchema(base64 bool) *jsonschema.Schema {
	embedding := &jsonschema.Schema{
		Type:  "array",
		Items: &jsonschema.Schema{Type: "number"},
	}

	if base64 {
		embedding = &jsonschema.Schema{Type: "string"}
	}

	object := any("embedding")

	return &jsonschema.Schema{
		Type:     "object",
		Required: []string{"data"},

		Properties: map[string]*jsonschema.Schema{
			"data": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type:     "object",
					Required: []string{"object", "embedding"},

					Properties: map[string]*jsonschema.Schema{
						"object":    {Const: &object},
						"embedding": embedding,
						"index":     {Type: "integer"},
					},
				},
			},

			"usage": {
				Types:    []string{"object", "null"},
				Required: []string{"total_tokens"},

				Properties: map[string]*jsonschema.Schema{
					"total_tokens":  {Type: "integer"},
					"prompt_tokens": {Type: "integer"},
				},
			},

			"model": {Type: "string"},
		},
	}
}

func mustResolve(s *jsonschema.Schema) *jsonschema.Resolved {
	resolved, err := s.Resolve(nil)

	if err != nil {
		panic(err)
	}

	return resolved
}

// decodeEmbeddingList validates the raw body against the response schema and
// converts every embedding into float32 values, keeping response order.
func decodeEmbeddingList(body []byte, encoding string) (*EmbeddingList, [][]float32, error) {
	var raw any

	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, nil, &MalformedResponseError{Body: body, Err: err}
	}

	schema := responseSchema

	if encoding == "base64" {
		schema = base64ResponseSchema
	}

	if err := schema.Validate(raw); err != nil {
		return nil, nil, &MalformedResponseError{Body: body, Err: err}
	}

	var list EmbeddingList

	if err := json.Unmarshal(body, &list); err != nil {
		return nil, nil, &MalformedResponseError{Body: body, Err: err}
	}

	embeddings := make([][]float32, len(list.Data))

	for i, d := range list.Data {
		var err error

		if encoding == "base64" {
			embeddings[i], err = decodeBase64Embedding(d.Embedding)
		} else {
			err = json.Unmarshal(d.Embedding, &embeddings[i])
		}

		if err != nil {
			return nil, nil, &MalformedResponseError{Body: body, Err: fmt.Errorf("data/%d/embedding: %w", i, err)}
		}
	}

	ordered, err := orderByIndex(list.Data, embeddings)

	if err != nil {
		return nil, nil, &MalformedResponseError{Body: body, Err: err}
	}

	return &list, ordered, nil
}

// orderByIndex places each embedding at its declared index when every item
// carries one. Without indexes the response order is kept as is.
func orderByIndex(data []Embedding, embeddings [][]float32) ([][]float32, error) {
	for _, d := range data {
		if d.Index == nil {
			return embeddings, nil
		}
	}

	result := make([][]float32, len(embeddings))

	for i, d := range data {
		idx := int(*d.Index)

		if idx < 0 || idx >= len(result) {
			return nil, fmt.Errorf("data/%d/index: %d out of range", i, idx)
		}

		if result[idx] != nil {
			return nil, fmt.Errorf("data/%d/index: duplicate index %d", i, idx)
		}

		result[idx] = embeddings[i]
	}

	return result, nil
}

func decodeBase64Embedding(raw json.RawMessage) ([]float32, error) {
	var s string

	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(s)

	if err != nil {
		return nil, err
	}

	if len(data)%4 != 0 {
		return nil, errors.New("base64 payload is not a sequence of float32 values")
	}

	floats := make([]float32, len(data)/4)

	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}

	return floats, nil
}

// decodeError extracts the message of an error response. Jina answers with
// {"detail": ...}; OpenAI compatible proxies use {"error": {"message": ...}}.
func decodeError(status int, body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`

		Error *struct {
			Message string `json:"message"`
		} `json:"error"`

		Message string `json:"message"`
	}

	if err := json.Unmarshal(body, &envelope); err == nil {
		if len(envelope.Detail) > 0 {
			var detail string

			if err := json.Unmarshal(envelope.Detail, &detail); err == nil && detail != "" {
				return detail
			}

			return string(envelope.Detail)
		}

		if envelope.Error != nil && envelope.Error.Message != "" {
			return envelope.Error.Message
		}

		if envelope.Message != "" {
			return envelope.Message
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}

	return fmt.Sprintf("status %d", status)
}
