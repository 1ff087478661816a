package jina

import (
	"fmt"
	"slices"
	"sort"

	"github.com/adrianliechti/wingman-jina/pkg/provider"

	"github.com/google/jsonschema-go/jsonschema"
)

var (
	Tasks = []provider.EmbedTask{
		provider.EmbedTaskRetrievalQuery,
		provider.EmbedTaskRetrievalPassage,
		provider.EmbedTaskTextMatching,
		provider.EmbedTaskClassification,
		provider.EmbedTaskSeparation,
	}

	Encodings = []provider.EmbedEncoding{
		provider.EmbedEncodingFloat,
		provider.EmbedEncodingBinary,
		provider.EmbedEncodingUBinary,
		provider.EmbedEncodingBase64,
	}
)

// option keys as they appear in loose option bags (config files, http requests)
const (
	optionInputType       = "inputType"
	optionOutputDimension = "outputDimension"
	optionEmbeddingType   = "embeddingType"
	optionNormalized      = "normalized"
	optionTruncate        = "truncate"
	optionLateChunking    = "lateChunking"
)

var optionSchemas = resolveOptionSchemas(map[string]*jsonschema.Schema{
	optionInputType: {
		Type: "string",
		Enum: enumOf(Tasks),
	},

	optionOutputDimension: {
		Type:    "integer",
		Minimum: provider.Ptr(1.0),
	},

	optionEmbeddingType: {
		Type: "string",
		Enum: enumOf(Encodings),
	},

	optionNormalized:   {Type: "boolean"},
	optionTruncate:     {Type: "boolean"},
	optionLateChunking: {Type: "boolean"},
})

// ParseOptions validates a loose option bag and converts it into typed
// options. The first offending key is reported in a *ValidationError.
func ParseOptions(values map[string]any) (*provider.EmbedOptions, error) {
	if len(values) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(values))

	for k := range values {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	options := &provider.EmbedOptions{}

	for _, key := range keys {
		value := values[key]

		schema, ok := optionSchemas[key]

		if !ok {
			return nil, &ValidationError{Field: key, Constraint: "unknown option"}
		}

		if err := schema.Validate(value); err != nil {
			return nil, &ValidationError{Field: key, Constraint: err.Error(), Value: value}
		}

		switch key {
		case optionInputType:
			options.Task = provider.EmbedTask(value.(string))

		case optionOutputDimension:
			options.Dimensions = provider.Ptr(toInt(value))

		case optionEmbeddingType:
			options.Encoding = provider.EmbedEncoding(value.(string))

		case optionNormalized:
			options.Normalized = provider.Ptr(value.(bool))

		case optionTruncate:
			options.Truncate = provider.Ptr(value.(bool))

		case optionLateChunking:
			options.LateChunking = provider.Ptr(value.(bool))
		}
	}

	return options, nil
}

// ValidateOptions checks typed options. Multimodal models reject late chunking.
func ValidateOptions(o *provider.EmbedOptions, multimodal bool) error {
	if o == nil {
		return nil
	}

	if o.Task != "" && !slices.Contains(Tasks, o.Task) {
		return &ValidationError{Field: optionInputType, Constraint: fmt.Sprintf("must be one of %v", Tasks), Value: o.Task}
	}

	if o.Encoding != "" && !slices.Contains(Encodings, o.Encoding) {
		return &ValidationError{Field: optionEmbeddingType, Constraint: fmt.Sprintf("must be one of %v", Encodings), Value: o.Encoding}
	}

	if o.Dimensions != nil && *o.Dimensions <= 0 {
		return &ValidationError{Field: optionOutputDimension, Constraint: "must be a positive integer", Value: *o.Dimensions}
	}

	if multimodal && o.LateChunking != nil && *o.LateChunking {
		return &ValidationError{Field: optionLateChunking, Constraint: "only supported by text embedding models", Value: true}
	}

	return nil
}

// MergeOptions overlays call options on top of model defaults, field by field.
func MergeOptions(base, call *provider.EmbedOptions) *provider.EmbedOptions {
	result := &provider.EmbedOptions{}

	for _, o := range []*provider.EmbedOptions{base, call} {
		if o == nil {
			continue
		}

		if o.Task != "" {
			result.Task = o.Task
		}

		if o.Dimensions != nil {
			result.Dimensions = o.Dimensions
		}

		if o.Encoding != "" {
			result.Encoding = o.Encoding
		}

		if o.Normalized != nil {
			result.Normalized = o.Normalized
		}

		if o.Truncate != nil {
			result.Truncate = o.Truncate
		}

		if o.LateChunking != nil {
			result.LateChunking = o.LateChunking
		}

		for k, v := range o.Headers {
			if result.Headers == nil {
				result.Headers = make(map[string]string)
			}

			result.Headers[k] = v
		}
	}

	return result
}

func resolveOptionSchemas(schemas map[string]*jsonschema.Schema) map[string]*jsonschema.Resolved {
	result := make(map[string]*jsonschema.Resolved, len(schemas))

	for key, schema := range schemas {
		resolved, err := schema.Resolve(nil)

		if err != nil {
			panic(fmt.Sprintf("jina: invalid schema for option %q: %v", key, err))
		}

		result[key] = resolved
	}

	return result
}

func enumOf[T ~string](values []T) []any {
	result := make([]any, 0, len(values))

	for _, v := range values {
		result = append(result, string(v))
	}

	return result
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case uint:
		return int(n)
	case uint64:
		return int(n)
	case float32:
		return int(n)
	case float64:
		return int(n)
	}

	return 0
}
