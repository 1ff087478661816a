package config

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/adrianliechti/wingman-jina/pkg/otel"

	"golang.org/x/time/rate"
)

type providerConfig struct {
	Type string `yaml:"type"`

	URL   string `yaml:"url"`
	Token string `yaml:"token"`

	Headers map[string]string `yaml:"headers"`

	Limit *int `yaml:"limit"`

	Models map[string]modelConfig `yaml:"models"`
}

type modelConfig struct {
	ID   string `yaml:"id"`
	Type string `yaml:"type"`

	BatchSize int `yaml:"batch_size"`

	Options map[string]any `yaml:"options"`
}

type ModelType string

const (
	ModelTypeText       ModelType = "text"
	ModelTypeMultimodal ModelType = "multimodal"
)

type modelContext struct {
	ID   string
	Type ModelType

	BatchSize int
	Options   map[string]any

	Client  *http.Client
	Limiter *rate.Limiter
}

func (cfg *Config) registerProviders(f *configFile) error {
	for _, p := range f.Providers {
		var client *http.Client

		if otel.EnableTelemetry {
			client = otel.Client(nil)
		}

		limiter := createLimiter(p.Limit)

		ids := make([]string, 0, len(p.Models))

		for id := range p.Models {
			ids = append(ids, id)
		}

		sort.Strings(ids)

		for _, id := range ids {
			m := p.Models[id]

			context := modelContext{
				ID:   m.ID,
				Type: ModelType(m.Type),

				BatchSize: m.BatchSize,
				Options:   m.Options,

				Client:  client,
				Limiter: limiter,
			}

			if context.ID == "" {
				context.ID = id
			}

			if context.Type == "" {
				context.Type = ModelTypeText
			}

			var err error

			switch context.Type {
			case ModelTypeText:
				err = cfg.registerTextEmbedder(id, p, context)

			case ModelTypeMultimodal:
				err = cfg.registerMultimodalEmbedder(id, p, context)

			default:
				err = errors.New("invalid model type: " + m.Type)
			}

			if err != nil {
				return fmt.Errorf("model %s: %w", id, err)
			}
		}
	}

	return nil
}
