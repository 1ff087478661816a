package jina

import (
	"net/http"
	"os"
	"strings"
)

const (
	DefaultURL = "https://api.jina.ai/v1"

	// TokenEnv names the environment variable consulted when no token is configured.
	TokenEnv = "JINA_API_KEY"
)

type Config struct {
	url string

	token   string
	headers map[string]string

	client *http.Client
}

type Option func(*Config)

func WithURL(url string) Option {
	return func(c *Config) {
		c.url = url
	}
}

func WithToken(token string) Option {
	return func(c *Config) {
		c.token = token
	}
}

func WithHeaders(headers map[string]string) Option {
	return func(c *Config) {
		if c.headers == nil {
			c.headers = make(map[string]string)
		}

		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

func WithClient(client *http.Client) Option {
	return func(c *Config) {
		c.client = client
	}
}

func newConfig(options ...Option) *Config {
	c := &Config{}

	for _, option := range options {
		option(c)
	}

	if c.url == "" {
		c.url = DefaultURL
	}

	c.url = strings.TrimRight(c.url, "/")

	if c.client == nil {
		c.client = http.DefaultClient
	}

	return c
}

func (c *Config) URL() string {
	return c.url
}

// requestHeaders resolves the headers of a single request. The credential is
// looked up on every call so a token exported after startup is picked up.
func (c *Config) requestHeaders(extra map[string]string) (http.Header, error) {
	token := c.token

	if token == "" {
		token = os.Getenv(TokenEnv)
	}

	if token == "" {
		return nil, &MissingCredentialError{Env: TokenEnv}
	}

	h := http.Header{}

	h.Set("Authorization", "Bearer "+token)
	h.Set("Content-Type", "application/json")

	for k, v := range c.headers {
		h.Set(k, v)
	}

	for k, v := range extra {
		h.Set(k, v)
	}

	return h, nil
}
