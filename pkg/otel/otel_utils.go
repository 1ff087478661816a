package otel

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

type KeyValue = attribute.KeyValue

func String(key string, val string) KeyValue {
	return attribute.String(key, val)
}

func Int(key string, val int) KeyValue {
	return attribute.Int(key, val)
}

// Client returns an http client whose requests are traced. A nil base uses
// http.DefaultTransport.
func Client(base http.RoundTripper) *http.Client {
	if base == nil {
		base = http.DefaultTransport
	}

	return &http.Client{
		Transport: otelhttp.NewTransport(base),
	}
}

// Handler wraps h so incoming requests start a server span.
func Handler(h http.Handler, operation string) http.Handler {
	return otelhttp.NewHandler(h, operation)
}
