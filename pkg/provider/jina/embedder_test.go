package jina_test

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adrianliechti/wingman-jina/pkg/provider"
	"github.com/adrianliechti/wingman-jina/pkg/provider/jina"

	"github.com/stretchr/testify/require"
)

var (
	dummyEmbeddings = [][]float32{
		{0.1, 0.2, 0.3, 0.4, 0.5},
		{0.6, 0.7, 0.8, 0.9, 1},
	}

	testValues = []string{"sunny day at the beach", "rainy day in the city"}
)

type testServer struct {
	*httptest.Server

	calls atomic.Int32

	mu     sync.Mutex
	body   map[string]any
	header http.Header

	status   int
	response any
	headers  map[string]string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	s := &testServer{
		status:   http.StatusOK,
		response: embeddingList(dummyEmbeddings, &jina.Usage{PromptTokens: 4, TotalTokens: 12}),
	}

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)

		if r.Method != http.MethodPost || r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}

		data, _ := io.ReadAll(r.Body)

		s.mu.Lock()
		defer s.mu.Unlock()

		s.header = r.Header.Clone()
		s.body = nil
		json.Unmarshal(data, &s.body)

		for k, v := range s.headers {
			w.Header().Set(k, v)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(s.status)

		switch v := s.response.(type) {
		case string:
			w.Write([]byte(v))
		default:
			json.NewEncoder(w).Encode(v)
		}
	}))

	t.Cleanup(s.Close)

	return s
}

func (s *testServer) provider(options ...jina.Option) *jina.Provider {
	options = append([]jina.Option{
		jina.WithURL(s.URL + "/v1/"),
		jina.WithToken("test-api-key"),
	}, options...)

	return jina.New(options...)
}

func embeddingList(embeddings [][]float32, usage *jina.Usage) map[string]any {
	var data []map[string]any

	for i, e := range embeddings {
		data = append(data, map[string]any{
			"object":    "embedding",
			"embedding": e,
			"index":     i,
		})
	}

	result := map[string]any{
		"object": "list",
		"data":   data,
		"model":  "jina-embeddings-v3",
	}

	if usage != nil {
		result["usage"] = usage
	}

	return result
}

func TestEmbedExtractsEmbeddings(t *testing.T) {
	s := newTestServer(t)

	e, err := s.provider().TextEmbedder("jina-embeddings-v3")
	require.NoError(t, err)

	result, err := e.Embed(context.Background(), testValues, nil)
	require.NoError(t, err)

	require.Equal(t, dummyEmbeddings, result.Embeddings)
	require.Equal(t, "jina-embeddings-v3", result.Model)
	require.Equal(t, int32(1), s.calls.Load())
}

func TestEmbedUsage(t *testing.T) {
	s := newTestServer(t)

	e, err := s.provider().TextEmbedder("jina-embeddings-v3")
	require.NoError(t, err)

	result, err := e.Embed(context.Background(), testValues, nil)
	require.NoError(t, err)

	require.NotNil(t, result.Usage)
	require.Equal(t, 12, result.Usage.InputTokens)
}

func TestEmbedWithoutUsage(t *testing.T) {
	s := newTestServer(t)
	s.response = embeddingList(dummyEmbeddings, nil)

	e, err := s.provider().TextEmbedder("jina-embeddings-v3")
	require.NoError(t, err)

	result, err := e.Embed(context.Background(), testValues, nil)
	require.NoError(t, err)

	require.Nil(t, result.Usage)
	require.Len(t, result.Embeddings, 2)
}

func TestEmbedNullUsage(t *testing.T) {
	s := newTestServer(t)

	list := embeddingList(dummyEmbeddings, nil)
	list["usage"] = nil
	s.response = list

	e, err := s.provider().TextEmbedder("jina-embeddings-v3")
	require.NoError(t, err)

	result, err := e.Embed(context.Background(), testValues, nil)
	require.NoError(t, err)
	require.Nil(t, result.Usage)
}

func TestEmbedResponseHeaders(t *testing.T) {
	s := newTestServer(t)
	s.headers = map[string]string{"Test-Header": "test-value"}

	e, err := s.provider().TextEmbedder("jina-embeddings-v3")
	require.NoError(t, err)

	result, err := e.Embed(context.Background(), testValues, nil)
	require.NoError(t, err)

	require.Equal(t, "test-value", result.Header.Get("Test-Header"))
	require.Equal(t, "application/json", result.Header.Get("Content-Type"))
}

func TestEmbedDefaultBody(t *testing.T) {
	s := newTestServer(t)

	e, err := s.provider().TextEmbedder("jina-embeddings-v3")
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), []string{"a", "b"}, nil)
	require.NoError(t, err)

	require.Equal(t, map[string]any{
		"model":      "jina-embeddings-v3",
		"input":      []any{"a", "b"},
		"normalized": true,
		"truncate":   false,
	}, s.body)
}

func TestEmbedOptionsBody(t *testing.T) {
	s := newTestServer(t)

	e, err := s.provider().TextEmbedder("jina-embeddings-v3")
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), []string{"a", "b"}, &provider.EmbedOptions{
		Task:       provider.EmbedTaskRetrievalQuery,
		Dimensions: provider.Ptr(2048),
		Encoding:   provider.EmbedEncodingBinary,
	})

	require.NoError(t, err)

	require.Equal(t, map[string]any{
		"model":          "jina-embeddings-v3",
		"input":          []any{"a", "b"},
		"task":           "retrieval.query",
		"dimensions":     float64(2048),
		"embedding_type": "binary",
		"normalized":     true,
		"truncate":       false,
	}, s.body)
}

func TestEmbedAllOptionsBody(t *testing.T) {
	s := newTestServer(t)

	e, err := s.provider().TextEmbedder("jina-embeddings-v3")
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), testValues, &provider.EmbedOptions{
		Task:         provider.EmbedTaskTextMatching,
		Normalized:   provider.Ptr(false),
		Truncate:     provider.Ptr(true),
		LateChunking: provider.Ptr(true),
	})

	require.NoError(t, err)

	require.Equal(t, "text-matching", s.body["task"])
	require.Equal(t, false, s.body["normalized"])
	require.Equal(t, true, s.body["truncate"])
	require.Equal(t, true, s.body["late_chunking"])
	require.NotContains(t, s.body, "dimensions")
	require.NotContains(t, s.body, "embedding_type")
}

func TestEmbedModelDefaults(t *testing.T) {
	s := newTestServer(t)

	e, err := s.provider().TextEmbedder("jina-embeddings-v3", jina.WithEmbedOptions(&provider.EmbedOptions{
		Task:       provider.EmbedTaskRetrievalPassage,
		Dimensions: provider.Ptr(256),
	}))

	require.NoError(t, err)

	_, err = e.Embed(context.Background(), testValues, &provider.EmbedOptions{
		Task: provider.EmbedTaskRetrievalQuery,
	})

	require.NoError(t, err)

	require.Equal(t, "retrieval.query", s.body["task"])
	require.Equal(t, float64(256), s.body["dimensions"])
}

func TestEmbedHeaders(t *testing.T) {
	s := newTestServer(t)

	p := s.provider(jina.WithHeaders(map[string]string{
		"Custom-Provider-Header": "provider-header-value",
	}))

	e, err := p.TextEmbedder("jina-embeddings-v3")
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), testValues, &provider.EmbedOptions{
		Headers: map[string]string{
			"Custom-Request-Header": "request-header-value",
		},
	})

	require.NoError(t, err)

	require.Equal(t, "Bearer test-api-key", s.header.Get("Authorization"))
	require.Equal(t, "application/json", s.header.Get("Content-Type"))
	require.Equal(t, "provider-header-value", s.header.Get("Custom-Provider-Header"))
	require.Equal(t, "request-header-value", s.header.Get("Custom-Request-Header"))
}

func TestEmbedHeaderPrecedence(t *testing.T) {
	s := newTestServer(t)

	p := s.provider(jina.WithHeaders(map[string]string{
		"Authorization": "Bearer provider-key",
		"X-Shared":      "provider",
	}))

	e, err := p.TextEmbedder("jina-embeddings-v3")
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), testValues, &provider.EmbedOptions{
		Headers: map[string]string{
			"X-Shared": "request",
		},
	})

	require.NoError(t, err)

	require.Equal(t, "Bearer provider-key", s.header.Get("Authorization"))
	require.Equal(t, "request", s.header.Get("X-Shared"))
}

func TestEmbedBatchSizeExceeded(t *testing.T) {
	s := newTestServer(t)

	e, err := s.provider().TextEmbedder("jina-embeddings-v3")
	require.NoError(t, err)

	values := make([]string, jina.MaxBatchSize+1)

	_, err = e.Embed(context.Background(), values, nil)
	require.ErrorIs(t, err, jina.ErrBatchSizeExceeded)

	var batchErr *jina.BatchSizeError
	require.ErrorAs(t, err, &batchErr)

	require.Equal(t, jina.MaxBatchSize, batchErr.Limit)
	require.Equal(t, "jina-embeddings-v3", batchErr.Model)
	require.Equal(t, jina.ProviderText, batchErr.Provider)
	require.Equal(t, values, batchErr.Values)

	require.Equal(t, int32(0), s.calls.Load())
}

func TestEmbedLegacyBatchSize(t *testing.T) {
	s := newTestServer(t)

	e, err := s.provider().TextEmbedder("jina-embeddings-v2-base-en", jina.WithMaxBatchSize(jina.LegacyMaxBatchSize))
	require.NoError(t, err)

	require.Equal(t, jina.LegacyMaxBatchSize, e.MaxBatchSize())
	require.False(t, e.SupportsParallelCalls())

	_, err = e.Embed(context.Background(), make([]string, 129), nil)
	require.ErrorIs(t, err, jina.ErrBatchSizeExceeded)
	require.Equal(t, int32(0), s.calls.Load())
}

func TestEmbedInvalidMaxBatchSize(t *testing.T) {
	_, err := jina.New(jina.WithToken("test")).TextEmbedder("jina-embeddings-v3", jina.WithMaxBatchSize(0))
	require.Error(t, err)
}

func TestEmbedProviderError(t *testing.T) {
	s := newTestServer(t)
	s.status = http.StatusUnprocessableEntity
	s.response = map[string]any{"detail": "input is too long"}

	e, err := s.provider().TextEmbedder("jina-embeddings-v3")
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), testValues, nil)
	require.ErrorIs(t, err, jina.ErrProvider)
	require.NotErrorIs(t, err, jina.ErrMalformedResponse)

	var providerErr *jina.ProviderError
	require.ErrorAs(t, err, &providerErr)

	require.Equal(t, http.StatusUnprocessableEntity, providerErr.StatusCode)
	require.Equal(t, "input is too long", providerErr.Message)
	require.NotNil(t, providerErr.Request)
}

func TestEmbedProviderErrorOpenAIEnvelope(t *testing.T) {
	s := newTestServer(t)
	s.status = http.StatusUnauthorized
	s.response = map[string]any{"error": map[string]any{"message": "invalid api key"}}

	e, err := s.provider().TextEmbedder("jina-embeddings-v3")
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), testValues, nil)

	var providerErr *jina.ProviderError
	require.ErrorAs(t, err, &providerErr)
	require.Equal(t, "invalid api key", providerErr.Message)
}

func TestEmbedProviderErrorUnparseable(t *testing.T) {
	s := newTestServer(t)
	s.status = http.StatusBadGateway
	s.response = "upstream unavailable"

	e, err := s.provider().TextEmbedder("jina-embeddings-v3")
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), testValues, nil)

	var providerErr *jina.ProviderError
	require.ErrorAs(t, err, &providerErr)

	require.Equal(t, http.StatusBadGateway, providerErr.StatusCode)
	require.Equal(t, "upstream unavailable", providerErr.Message)
	require.Equal(t, []byte("upstream unavailable"), providerErr.Body)
}

func TestEmbedMalformedResponse(t *testing.T) {
	tests := []struct {
		name     string
		response any
	}{
		{"missing data", map[string]any{"object": "list"}},
		{"wrong object tag", map[string]any{"data": []any{map[string]any{"object": "vector", "embedding": []float32{1}}}}},
		{"embedding not numeric", map[string]any{"data": []any{map[string]any{"object": "embedding", "embedding": []string{"a"}}}}},
		{"usage without total", map[string]any{"data": []any{}, "usage": map[string]any{"prompt_tokens": 1}}},
		{"not json", "<html></html>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.response = tt.response

			e, err := s.provider().TextEmbedder("jina-embeddings-v3")
			require.NoError(t, err)

			_, err = e.Embed(context.Background(), []string{"a"}, nil)
			require.ErrorIs(t, err, jina.ErrMalformedResponse)

			var malformedErr *jina.MalformedResponseError
			require.ErrorAs(t, err, &malformedErr)
		})
	}
}

func TestEmbedCountMismatch(t *testing.T) {
	s := newTestServer(t)
	s.response = embeddingList(dummyEmbeddings[:1], nil)

	e, err := s.provider().TextEmbedder("jina-embeddings-v3")
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), testValues, nil)
	require.ErrorIs(t, err, jina.ErrMalformedResponse)
}

func TestEmbedOrdersByIndex(t *testing.T) {
	s := newTestServer(t)
	s.response = map[string]any{
		"data": []any{
			map[string]any{"object": "embedding", "embedding": dummyEmbeddings[1], "index": 1},
			map[string]any{"object": "embedding", "embedding": dummyEmbeddings[0], "index": 0},
		},
	}

	e, err := s.provider().TextEmbedder("jina-embeddings-v3")
	require.NoError(t, err)

	result, err := e.Embed(context.Background(), testValues, nil)
	require.NoError(t, err)

	require.Equal(t, dummyEmbeddings, result.Embeddings)
}

func TestEmbedDuplicateIndex(t *testing.T) {
	s := newTestServer(t)
	s.response = map[string]any{
		"data": []any{
			map[string]any{"object": "embedding", "embedding": dummyEmbeddings[0], "index": 0},
			map[string]any{"object": "embedding", "embedding": dummyEmbeddings[1], "index": 0},
		},
	}

	e, err := s.provider().TextEmbedder("jina-embeddings-v3")
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), testValues, nil)
	require.ErrorIs(t, err, jina.ErrMalformedResponse)
}

func TestEmbedIntegralFloatNumbers(t *testing.T) {
	s := newTestServer(t)
	s.response = `{
		"data": [
			{"object": "embedding", "embedding": [0.6, 0.7], "index": 1.0},
			{"object": "embedding", "embedding": [0.1, 0.2], "index": 0.0}
		],
		"usage": {"prompt_tokens": 4.0, "total_tokens": 12.0}
	}`

	e, err := s.provider().TextEmbedder("jina-embeddings-v3")
	require.NoError(t, err)

	result, err := e.Embed(context.Background(), testValues, nil)
	require.NoError(t, err)

	require.Equal(t, [][]float32{{0.1, 0.2}, {0.6, 0.7}}, result.Embeddings)
	require.Equal(t, 12, result.Usage.InputTokens)
}

func TestEmbedFractionalTokenCount(t *testing.T) {
	s := newTestServer(t)
	s.response = `{"data": [{"object": "embedding", "embedding": [0.1]}], "usage": {"total_tokens": 1.5}}`

	e, err := s.provider().TextEmbedder("jina-embeddings-v3")
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), []string{"a"}, nil)
	require.ErrorIs(t, err, jina.ErrMalformedResponse)
}

func TestEmbedBase64(t *testing.T) {
	s := newTestServer(t)
	s.response = map[string]any{
		"data": []any{
			map[string]any{"object": "embedding", "embedding": encodeFloats(dummyEmbeddings[0]), "index": 0},
			map[string]any{"object": "embedding", "embedding": encodeFloats(dummyEmbeddings[1]), "index": 1},
		},
	}

	e, err := s.provider().TextEmbedder("jina-embeddings-v3")
	require.NoError(t, err)

	result, err := e.Embed(context.Background(), testValues, &provider.EmbedOptions{
		Encoding: provider.EmbedEncodingBase64,
	})

	require.NoError(t, err)
	require.Equal(t, dummyEmbeddings, result.Embeddings)
	require.Equal(t, "base64", s.body["embedding_type"])
}

func TestEmbedInvalidOptions(t *testing.T) {
	s := newTestServer(t)

	e, err := s.provider().TextEmbedder("jina-embeddings-v3")
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), testValues, &provider.EmbedOptions{
		Task: "summarize",
	})

	require.ErrorIs(t, err, jina.ErrValidation)

	var validationErr *jina.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "inputType", validationErr.Field)

	_, err = e.Embed(context.Background(), testValues, &provider.EmbedOptions{
		Dimensions: provider.Ptr(-1),
	})

	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "outputDimension", validationErr.Field)

	require.Equal(t, int32(0), s.calls.Load())
}

func TestEmbedMissingCredential(t *testing.T) {
	t.Setenv(jina.TokenEnv, "")

	s := newTestServer(t)

	p := jina.New(jina.WithURL(s.URL + "/v1"))

	e, err := p.TextEmbedder("jina-embeddings-v3")
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), testValues, nil)
	require.ErrorIs(t, err, jina.ErrMissingCredential)

	var credErr *jina.MissingCredentialError
	require.ErrorAs(t, err, &credErr)
	require.Equal(t, jina.TokenEnv, credErr.Env)

	require.Equal(t, int32(0), s.calls.Load())
}

func TestEmbedCredentialFromEnvironment(t *testing.T) {
	t.Setenv(jina.TokenEnv, "")

	s := newTestServer(t)

	e, err := jina.New(jina.WithURL(s.URL + "/v1")).TextEmbedder("jina-embeddings-v3")
	require.NoError(t, err)

	t.Setenv(jina.TokenEnv, "env-api-key")

	_, err = e.Embed(context.Background(), testValues, nil)
	require.NoError(t, err)

	require.Equal(t, "Bearer env-api-key", s.header.Get("Authorization"))
}

func TestEmbedCanceled(t *testing.T) {
	release := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))

	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	e, err := jina.New(jina.WithURL(server.URL), jina.WithToken("test")).TextEmbedder("jina-embeddings-v3")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	result, err := e.Embed(ctx, testValues, nil)

	require.Nil(t, result)
	require.ErrorIs(t, err, jina.ErrCanceled)
	require.ErrorIs(t, err, context.Canceled)
}

func TestEmbedNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	e, err := jina.New(jina.WithURL(url), jina.WithToken("test")).TextEmbedder("jina-embeddings-v3")
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), testValues, nil)
	require.ErrorIs(t, err, jina.ErrNetwork)

	var netErr *jina.NetworkError
	require.ErrorAs(t, err, &netErr)
	require.Equal(t, url+"/embeddings", netErr.URL)
}

func TestEmbedConcurrent(t *testing.T) {
	s := newTestServer(t)

	e, err := s.provider().TextEmbedder("jina-embeddings-v3")
	require.NoError(t, err)

	errs := make(chan error, 8)

	for range 8 {
		go func() {
			_, err := e.Embed(context.Background(), testValues, nil)
			errs <- err
		}()
	}

	for range 8 {
		require.NoError(t, <-errs)
	}

	require.Equal(t, int32(8), s.calls.Load())
}

func encodeFloats(floats []float32) string {
	buf := make([]byte, len(floats)*4)

	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}

	return base64.StdEncoding.EncodeToString(buf)
}
