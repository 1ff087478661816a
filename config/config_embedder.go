package config

import (
	"errors"
	"strings"

	"github.com/adrianliechti/wingman-jina/pkg/limiter"
	"github.com/adrianliechti/wingman-jina/pkg/otel"
	"github.com/adrianliechti/wingman-jina/pkg/provider"
	"github.com/adrianliechti/wingman-jina/pkg/provider/jina"
)

func (cfg *Config) RegisterEmbedder(id string, p provider.TextEmbedder) {
	cfg.RegisterModel(id)

	if cfg.embedder == nil {
		cfg.embedder = make(map[string]provider.TextEmbedder)
	}

	if _, ok := cfg.embedder[""]; !ok {
		cfg.embedder[""] = p
	}

	cfg.embedder[id] = p
}

func (cfg *Config) Embedder(id string) (provider.TextEmbedder, error) {
	if cfg.embedder != nil {
		if e, ok := cfg.embedder[id]; ok {
			return e, nil
		}
	}

	return nil, errors.New("embedder not found: " + id)
}

func (cfg *Config) RegisterMultimodalEmbedder(id string, p provider.MultimodalEmbedder) {
	cfg.RegisterModel(id)

	if cfg.multimodal == nil {
		cfg.multimodal = make(map[string]provider.MultimodalEmbedder)
	}

	if _, ok := cfg.multimodal[""]; !ok {
		cfg.multimodal[""] = p
	}

	cfg.multimodal[id] = p
}

func (cfg *Config) MultimodalEmbedder(id string) (provider.MultimodalEmbedder, error) {
	if cfg.multimodal != nil {
		if e, ok := cfg.multimodal[id]; ok {
			return e, nil
		}
	}

	return nil, errors.New("multimodal embedder not found: " + id)
}

func (cfg *Config) registerTextEmbedder(id string, p providerConfig, model modelContext) error {
	var embedder provider.TextEmbedder

	switch strings.ToLower(p.Type) {
	case "jina":
		e, err := jinaTextEmbedder(p, model)

		if err != nil {
			return err
		}

		embedder = e

	default:
		return errors.New("invalid embedder type: " + p.Type)
	}

	embedder = limiter.NewEmbedder(model.Limiter, embedder)
	embedder = otel.NewEmbedder(p.Type, model.ID, embedder)

	cfg.RegisterEmbedder(id, embedder)

	return nil
}

func (cfg *Config) registerMultimodalEmbedder(id string, p providerConfig, model modelContext) error {
	var embedder provider.MultimodalEmbedder

	switch strings.ToLower(p.Type) {
	case "jina":
		e, err := jinaMultimodalEmbedder(p, model)

		if err != nil {
			return err
		}

		embedder = e

	default:
		return errors.New("invalid embedder type: " + p.Type)
	}

	embedder = limiter.NewEmbedder(model.Limiter, embedder)
	embedder = otel.NewEmbedder(p.Type, model.ID, embedder)

	cfg.RegisterMultimodalEmbedder(id, embedder)

	return nil
}

func jinaProvider(cfg providerConfig, model modelContext) (*jina.Provider, []jina.ModelOption, error) {
	var options []jina.Option

	if cfg.URL != "" {
		options = append(options, jina.WithURL(cfg.URL))
	}

	if cfg.Token != "" {
		options = append(options, jina.WithToken(cfg.Token))
	}

	if len(cfg.Headers) > 0 {
		options = append(options, jina.WithHeaders(cfg.Headers))
	}

	if model.Client != nil {
		options = append(options, jina.WithClient(model.Client))
	}

	var modelOptions []jina.ModelOption

	if model.BatchSize > 0 {
		modelOptions = append(modelOptions, jina.WithMaxBatchSize(model.BatchSize))
	}

	embedOptions, err := jina.ParseOptions(model.Options)

	if err != nil {
		return nil, nil, err
	}

	if embedOptions != nil {
		modelOptions = append(modelOptions, jina.WithEmbedOptions(embedOptions))
	}

	return jina.New(options...), modelOptions, nil
}

func jinaTextEmbedder(cfg providerConfig, model modelContext) (provider.TextEmbedder, error) {
	p, options, err := jinaProvider(cfg, model)

	if err != nil {
		return nil, err
	}

	e, err := p.TextEmbedder(model.ID, options...)

	if err != nil {
		return nil, err
	}

	return e, nil
}

func jinaMultimodalEmbedder(cfg providerConfig, model modelContext) (provider.MultimodalEmbedder, error) {
	p, options, err := jinaProvider(cfg, model)

	if err != nil {
		return nil, err
	}

	e, err := p.MultimodalEmbedder(model.ID, options...)

	if err != nil {
		return nil, err
	}

	return e, nil
}
