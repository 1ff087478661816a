package embeddings

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"

	"github.com/adrianliechti/wingman-jina/pkg/provider"
	"github.com/adrianliechti/wingman-jina/pkg/provider/jina"
	"github.com/adrianliechti/wingman-jina/server/openai/shared"
)

func (h *Handler) handleEmbeddings(w http.ResponseWriter, r *http.Request) {
	var req EmbeddingsRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	texts, items, err := req.ParseInput()

	if err != nil {
		shared.WriteErrorParam(w, http.StatusBadRequest, "input", err)
		return
	}

	if len(texts) == 0 && len(items) == 0 {
		shared.WriteErrorParam(w, http.StatusBadRequest, "input", errors.New("no input provided"))
		return
	}

	options := &provider.EmbedOptions{
		Task: provider.EmbedTask(req.Task),

		Dimensions: req.Dimensions,
		Encoding:   provider.EmbedEncoding(req.EmbeddingType),

		Normalized:   req.Normalized,
		Truncate:     req.Truncate,
		LateChunking: req.LateChunking,
	}

	var embedding *provider.Embedding

	if items != nil {
		embedder, err := h.MultimodalEmbedder(req.Model)

		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		if embedding, err = provider.EmbedBatched(r.Context(), embedder, items, options); err != nil {
			writeEmbedError(w, r, req.Model, err)
			return
		}
	} else {
		embedder, err := h.Embedder(req.Model)

		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		if embedding, err = provider.EmbedBatched(r.Context(), embedder, texts, options); err != nil {
			writeEmbedError(w, r, req.Model, err)
			return
		}
	}

	result := &EmbeddingList{
		Object: "list",

		Model: embedding.Model,
	}

	if result.Model == "" {
		result.Model = req.Model
	}

	useBase64 := req.EncodingFormat == "base64"

	for i, e := range embedding.Embeddings {
		data := Embedding{
			Object: "embedding",

			Index:     i,
			Embedding: e,
		}

		if useBase64 {
			data.Embedding = floatsToBase64(e)
		}

		result.Data = append(result.Data, data)
	}

	if embedding.Usage != nil {
		result.Usage = &Usage{
			PromptTokens: embedding.Usage.InputTokens,
			TotalTokens:  embedding.Usage.InputTokens + embedding.Usage.OutputTokens,
		}
	}

	writeJson(w, result)
}

func writeEmbedError(w http.ResponseWriter, r *http.Request, model string, err error) {
	code := statusCode(err)

	if code >= 500 {
		slog.ErrorContext(r.Context(), "embedding failed", "model", model, "error", err)
	}

	writeError(w, code, err)
}

func statusCode(err error) int {
	var providerErr *jina.ProviderError

	if errors.As(err, &providerErr) {
		if providerErr.StatusCode >= 400 && providerErr.StatusCode < 500 {
			return providerErr.StatusCode
		}

		return http.StatusBadGateway
	}

	switch {
	case errors.Is(err, jina.ErrValidation), errors.Is(err, jina.ErrBatchSizeExceeded):
		return http.StatusBadRequest

	case errors.Is(err, jina.ErrMalformedResponse), errors.Is(err, jina.ErrNetwork):
		return http.StatusBadGateway

	case errors.Is(err, jina.ErrCanceled), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return 499
	}

	return http.StatusInternalServerError
}

func floatsToBase64(floats []float32) string {
	buf := make([]byte, len(floats)*4)

	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}

	return base64.StdEncoding.EncodeToString(buf)
}
