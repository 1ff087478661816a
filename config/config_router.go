package config

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/adrianliechti/wingman-jina/pkg/provider"
	"github.com/adrianliechti/wingman-jina/pkg/provider/jina"
	"github.com/adrianliechti/wingman-jina/pkg/router/roundrobin"
)

type routerConfig struct {
	Type string `yaml:"type"`

	Models []string `yaml:"models"`
}

func (cfg *Config) registerRouters(f *configFile) error {
	ids := make([]string, 0, len(f.Routers))

	for id := range f.Routers {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	for _, id := range ids {
		if err := cfg.registerRouter(id, f.Routers[id]); err != nil {
			return fmt.Errorf("router %s: %w", id, err)
		}
	}

	return nil
}

func (cfg *Config) registerRouter(id string, r routerConfig) error {
	if strings.ToLower(r.Type) != "roundrobin" {
		return errors.New("invalid router type: " + r.Type)
	}

	if len(r.Models) == 0 {
		return errors.New("no models configured")
	}

	if _, err := cfg.Model(id); err == nil {
		return errors.New("id already used by a model")
	}

	var texts []provider.TextEmbedder
	var multimodals []provider.MultimodalEmbedder

	for _, m := range r.Models {
		if e, ok := cfg.embedder[m]; ok && m != "" {
			texts = append(texts, e)
			continue
		}

		if e, ok := cfg.multimodal[m]; ok && m != "" {
			multimodals = append(multimodals, e)
			continue
		}

		return errors.New("model not found: " + m)
	}

	if len(texts) > 0 && len(multimodals) > 0 {
		return errors.New("cannot mix text and multimodal models")
	}

	if len(texts) > 0 {
		e, err := roundrobin.NewEmbedder(texts...)

		if err != nil {
			return err
		}

		e.IsFailure = isUpstreamFailure
		cfg.RegisterEmbedder(id, e)

		return nil
	}

	e, err := roundrobin.NewEmbedder(multimodals...)

	if err != nil {
		return err
	}

	e.IsFailure = isUpstreamFailure
	cfg.RegisterMultimodalEmbedder(id, e)

	return nil
}

// isUpstreamFailure ignores errors that would fail on every upstream alike.
func isUpstreamFailure(err error) bool {
	if errors.Is(err, jina.ErrNetwork) {
		return true
	}

	switch {
	case errors.Is(err, jina.ErrValidation), errors.Is(err, jina.ErrBatchSizeExceeded), errors.Is(err, jina.ErrCanceled):
		return false

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}

	var providerErr *jina.ProviderError

	if errors.As(err, &providerErr) {
		switch providerErr.StatusCode {
		case 400, 413, 422:
			return false
		}
	}

	return true
}
