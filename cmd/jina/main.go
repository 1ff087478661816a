package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/adrianliechti/wingman-jina/config"
	"github.com/adrianliechti/wingman-jina/pkg/client"
	"github.com/adrianliechti/wingman-jina/pkg/otel"
	"github.com/adrianliechti/wingman-jina/pkg/provider"
	"github.com/adrianliechti/wingman-jina/pkg/provider/jina"
	"github.com/adrianliechti/wingman-jina/server"

	"github.com/joho/godotenv"
)

var version = "dev"

func main() {
	configFlag := flag.String("config", "", "config file; starts the embeddings server")
	urlFlag := flag.String("url", "", "embeddings server url; calls jina directly if empty")
	tokenFlag := flag.String("token", "", "embeddings server token")
	modelFlag := flag.String("model", "jina-embeddings-v3", "model id")
	multimodalFlag := flag.Bool("multimodal", false, "embed text and image inputs")
	taskFlag := flag.String("task", "", "embedding task")
	dimensionsFlag := flag.Int("dimensions", 0, "output dimensions")

	flag.Parse()

	godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := otel.Setup(ctx, "jina", version); err != nil {
		slog.Warn("telemetry setup failed", "error", err)
	}

	if *configFlag != "" {
		if err := serve(ctx, *configFlag); err != nil {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}

		return
	}

	options := &provider.EmbedOptions{
		Task: provider.EmbedTask(*taskFlag),
	}

	if *dimensionsFlag > 0 {
		options.Dimensions = provider.Ptr(*dimensionsFlag)
	}

	if *urlFlag != "" {
		var opts []client.RequestOption

		if *tokenFlag != "" {
			opts = append(opts, client.WithToken(*tokenFlag))
		}

		c := client.New(*urlFlag, opts...)

		if *multimodalFlag {
			embed[provider.MultimodalInput](ctx, &remoteEmbedder[provider.MultimodalInput]{c, *modelFlag}, parseMultimodal, options)
			return
		}

		embed[string](ctx, &remoteEmbedder[string]{c, *modelFlag}, parseText, options)
		return
	}

	p := jina.New()

	if *multimodalFlag {
		e, err := p.MultimodalEmbedder(*modelFlag)

		if err != nil {
			panic(err)
		}

		embed[provider.MultimodalInput](ctx, e, parseMultimodal, options)
		return
	}

	e, err := p.TextEmbedder(*modelFlag)

	if err != nil {
		panic(err)
	}

	embed[string](ctx, e, parseText, options)
}

func serve(ctx context.Context, path string) error {
	cfg, err := config.Parse(path)

	if err != nil {
		return err
	}

	return server.New(cfg).ListenAndServe(ctx)
}

func parseText(input string) string {
	return input
}

// parseMultimodal treats URLs and data URIs as images and anything else as text.
func parseMultimodal(input string) provider.MultimodalInput {
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") || strings.HasPrefix(input, "data:image/") {
		return provider.MultimodalInput{Image: input}
	}

	return provider.MultimodalInput{Text: input}
}

func embed[T provider.Input](ctx context.Context, e provider.Embedder[T], parse func(string) T, options *provider.EmbedOptions) {
	reader := bufio.NewReader(os.Stdin)
	output := os.Stdout

LOOP:
	for {
		output.WriteString(">>> ")
		input, err := reader.ReadString('\n')

		if errors.Is(err, io.EOF) {
			return
		}

		if err != nil {
			panic(err)
		}

		input = strings.TrimSpace(input)

		if input == "" {
			continue LOOP
		}

		result, err := e.Embed(ctx, []T{parse(input)}, options)

		if err != nil {
			output.WriteString(err.Error() + "\n")
			continue LOOP
		}

		writeEmbedding(output, result)
	}
}

// writeEmbedding prints the first vector of result, shortened to eight values.
func writeEmbedding(w io.Writer, result *provider.Embedding) {
	if len(result.Embeddings) == 0 {
		fmt.Fprintln(w, "no embedding returned")
		fmt.Fprintln(w)

		return
	}

	vector := result.Embeddings[0]

	fmt.Fprintf(w, "%s (%d dimensions)\n", result.Model, len(vector))

	for i, v := range vector[:min(len(vector), 8)] {
		if i > 0 {
			fmt.Fprint(w, ", ")
		}

		fmt.Fprintf(w, "%f", v)
	}

	if len(vector) > 8 {
		fmt.Fprint(w, ", ...")
	}

	fmt.Fprintln(w)

	if result.Usage != nil {
		fmt.Fprintf(w, "tokens: %d\n", result.Usage.InputTokens)
	}

	fmt.Fprintln(w)
}

type remoteEmbedder[T provider.Input] struct {
	client *client.Client
	model  string
}

func (e *remoteEmbedder[T]) Embed(ctx context.Context, values []T, options *provider.EmbedOptions) (*provider.Embedding, error) {
	req := client.EmbeddingsRequest{
		Model: e.model,
	}

	if options != nil {
		req.Task = options.Task
		req.Dimensions = options.Dimensions
	}

	switch v := any(values).(type) {
	case []string:
		req.Texts = v
	case []provider.MultimodalInput:
		req.Items = v
	}

	return e.client.Embeddings.New(ctx, req)
}
