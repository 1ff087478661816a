// Package jina implements text and multimodal embedders backed by the Jina
// embeddings api.
//
// A Provider binds the connection settings once; the embedders it creates are
// immutable and safe for concurrent use:
//
//	p := jina.New(jina.WithToken(token))
//
//	e, err := p.TextEmbedder("jina-embeddings-v3")
//	result, err := e.Embed(ctx, []string{"hello"}, nil)
package jina

import (
	"github.com/adrianliechti/wingman-jina/pkg/provider"
)

const (
	ProviderText       = "jina.text.embedding"
	ProviderMultimodal = "jina.multimodal.embedding"
)

type Provider struct {
	cfg *Config
}

func New(options ...Option) *Provider {
	return &Provider{
		cfg: newConfig(options...),
	}
}

func (p *Provider) Config() *Config {
	return p.cfg
}

// TextEmbedder creates an embedder that accepts plain strings only.
func (p *Provider) TextEmbedder(model string, options ...ModelOption) (*TextEmbedder, error) {
	if p == nil || p.cfg == nil {
		return nil, ErrInvalidProvider
	}

	return newEmbedder[string](p.cfg, ProviderText, model, options...)
}

// MultimodalEmbedder creates an embedder that accepts text and image records.
func (p *Provider) MultimodalEmbedder(model string, options ...ModelOption) (*MultimodalEmbedder, error) {
	if p == nil || p.cfg == nil {
		return nil, ErrInvalidProvider
	}

	return newEmbedder[provider.MultimodalInput](p.cfg, ProviderMultimodal, model, options...)
}

func (p *Provider) Completer(model string) (provider.Completer, error) {
	return nil, &CapabilityError{Capability: "language model", Model: model}
}

func (p *Provider) Renderer(model string) (provider.Renderer, error) {
	return nil, &CapabilityError{Capability: "image model", Model: model}
}
