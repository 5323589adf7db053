// Package normalize maps source-specific raw model records onto the
// canonical record shape stored by the warehouse.
package normalize

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"
	"github.com/spboyer/modelrank/internal/models"
)

// NormalizationError reports a single raw record that could not be mapped.
// It never aborts the rest of a batch.
type NormalizationError struct {
	Index  int
	Model  string
	Reason string
}

func (e *NormalizationError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("record %d (%s): %s", e.Index, e.Model, e.Reason)
	}
	return fmt.Sprintf("record %d: %s", e.Index, e.Reason)
}

// aliases lists, per decoded field, the raw keys a source may use for it in
// priority order. Dotted keys walk nested objects.
var aliases = map[string][]string{
	"canonical_model_key": {"canonical_model_key", "canonicalModelKey"},
	"model_name":          {"model_name", "modelName", "name", "model", "slug"},
	"provider": {
		"provider", "provider_name", "providerName", "vendor", "lab",
		"organization", "developer", "creator.name", "model_creator.name",
	},
	"quality_index": {
		"quality_index", "intelligence_index", "intelligenceIndex", "overall_index", "overall",
		"evaluations.artificial_analysis_intelligence_index",
	},
	"coding_index": {
		"coding_index", "codingIndex", "code_index",
		"evaluations.artificial_analysis_coding_index",
	},
	"math_index": {
		"math_index", "mathIndex",
		"evaluations.artificial_analysis_math_index",
	},
	"reasoning_index": {"reasoning_index", "reasoningIndex", "reasoning"},
	"output_tokens_per_s": {
		"output_tokens_per_s", "outputTokensPerSecond", "tokens_per_second", "tokensPerSecond",
		"throughput", "median_output_tokens_per_second", "performance.output_tokens_per_s",
	},
	"ttft_s": {
		"ttft_s", "time_to_first_token", "timeToFirstToken", "latency_ttft_s",
		"median_time_to_first_token_seconds",
	},
	"ttft_ms": {"ttft_ms", "time_to_first_token_ms"},
	"price_input_per_1m": {
		"price_input_per_1m", "input_price_per_1m", "inputPricePer1M", "input_cost_per_million",
		"pricing.input_price_per_1m", "pricing.inputPricePer1M", "pricing.price_1m_input_tokens",
	},
	"price_input_per_1k":    {"price_input_per_1k", "input_price_per_1k", "pricing.input_price_per_1k"},
	"price_input_per_token": {"input_cost_per_token", "pricing.input_cost_per_token", "pricing.prompt"},
	"price_output_per_1m": {
		"price_output_per_1m", "output_price_per_1m", "outputPricePer1M", "output_cost_per_million",
		"pricing.output_price_per_1m", "pricing.outputPricePer1M", "pricing.price_1m_output_tokens",
	},
	"price_output_per_1k":    {"price_output_per_1k", "output_price_per_1k", "pricing.output_price_per_1k"},
	"price_output_per_token": {"output_cost_per_token", "pricing.output_cost_per_token", "pricing.completion"},
	"context_window": {
		"context_window", "contextWindow", "context_tokens", "context_length",
		"max_context", "maxContext",
	},
	"is_open_source": {"is_open_source", "open_source", "isOpenSource"},
	"license":        {"license", "license_type"},
}

// rawRecord is the flat, typed intermediate a raw record is decoded into.
// Nil pointers mean the source did not report the field.
type rawRecord struct {
	CanonicalKey        string   `mapstructure:"canonical_model_key"`
	ModelName           string   `mapstructure:"model_name"`
	Provider            string   `mapstructure:"provider"`
	QualityIndex        *float64 `mapstructure:"quality_index"`
	CodingIndex         *float64 `mapstructure:"coding_index"`
	MathIndex           *float64 `mapstructure:"math_index"`
	ReasoningIndex      *float64 `mapstructure:"reasoning_index"`
	OutputTokensPerS    *float64 `mapstructure:"output_tokens_per_s"`
	TTFTSeconds         *float64 `mapstructure:"ttft_s"`
	TTFTMillis          *float64 `mapstructure:"ttft_ms"`
	PriceInputPer1M     *float64 `mapstructure:"price_input_per_1m"`
	PriceInputPer1K     *float64 `mapstructure:"price_input_per_1k"`
	PriceInputPerToken  *float64 `mapstructure:"price_input_per_token"`
	PriceOutputPer1M    *float64 `mapstructure:"price_output_per_1m"`
	PriceOutputPer1K    *float64 `mapstructure:"price_output_per_1k"`
	PriceOutputPerToken *float64 `mapstructure:"price_output_per_token"`
	ContextWindow       *int64   `mapstructure:"context_window"`
	IsOpenSource        *bool    `mapstructure:"is_open_source"`
	License             string   `mapstructure:"license"`
}

// fieldTypes maps each decoded field to the Go type it decodes into.
var fieldTypes = func() map[string]reflect.Type {
	rt := reflect.TypeOf(rawRecord{})
	types := make(map[string]reflect.Type, rt.NumField())
	for i := range rt.NumField() {
		f := rt.Field(i)
		types[f.Tag.Get("mapstructure")] = f.Type
	}
	return types
}()

// Normalize maps one raw record onto the canonical shape. Fields a source
// does not report, or reports in an unusable form, come out absent.
func Normalize(raw map[string]any, source string, ts time.Time) (models.Record, error) {
	flat := make(map[string]any, len(aliases))
	for field, keys := range aliases {
		if v, ok := pick(raw, fieldTypes[field], keys...); ok {
			flat[field] = v
		}
	}

	var rr rawRecord
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: coerceHook,
		Result:     &rr,
	})
	if err != nil {
		return models.Record{}, fmt.Errorf("creating decoder: %w", err)
	}
	if err := dec.Decode(flat); err != nil {
		return models.Record{}, &NormalizationError{Reason: err.Error()}
	}

	name := strings.TrimSpace(rr.ModelName)
	provider := strings.TrimSpace(rr.Provider)
	key := strings.ToLower(strings.TrimSpace(rr.CanonicalKey))

	if provider == "" {
		return models.Record{}, &NormalizationError{Model: name, Reason: "missing provider"}
	}
	if key == "" {
		if name == "" {
			return models.Record{}, &NormalizationError{Reason: "missing model name and canonical key"}
		}
		key = CanonicalKey(name, provider)
	}
	if name == "" {
		name = key
		if _, after, ok := strings.Cut(key, "::"); ok {
			name = after
		}
	}

	rec := models.Record{
		CanonicalKey:     key,
		ModelName:        name,
		Provider:         provider,
		QualityIndex:     models.FromPtr(rr.QualityIndex),
		CodingIndex:      models.FromPtr(rr.CodingIndex),
		MathIndex:        models.FromPtr(rr.MathIndex),
		ReasoningIndex:   models.FromPtr(rr.ReasoningIndex),
		OutputTokensPerS: models.FromPtr(rr.OutputTokensPerS),
		TTFTSeconds:      models.FromPtr(rr.TTFTSeconds),
		PriceInputPer1M:  perMillion(rr.PriceInputPer1M, rr.PriceInputPer1K, rr.PriceInputPerToken),
		PriceOutputPer1M: perMillion(rr.PriceOutputPer1M, rr.PriceOutputPer1K, rr.PriceOutputPerToken),
		ContextWindow:    models.FromPtr(rr.ContextWindow),
		IsOpenSource:     rr.IsOpenSource,
		License:          strings.TrimSpace(rr.License),
		Source:           source,
		SnapshotTS:       ts.UTC(),
	}
	if !rec.TTFTSeconds.Present() && rr.TTFTMillis != nil {
		rec.TTFTSeconds = models.Some(decimal.NewFromFloat(*rr.TTFTMillis).Div(decimal.NewFromInt(1000)).InexactFloat64())
	}
	return rec, nil
}

// NormalizeBatch normalizes every raw item independently. Items that fail
// are reported in errs and left out of records.
func NormalizeBatch(raws []any, source string, ts time.Time) (records []models.Record, errs []error) {
	for i, item := range raws {
		obj, ok := item.(map[string]any)
		if !ok {
			errs = append(errs, &NormalizationError{Index: i, Reason: fmt.Sprintf("expected an object, got %T", item)})
			continue
		}
		rec, err := Normalize(obj, source, ts)
		if err != nil {
			var ne *NormalizationError
			if errors.As(err, &ne) {
				ne.Index = i
			}
			errs = append(errs, err)
			continue
		}
		records = append(records, rec)
	}
	return records, errs
}

// CanonicalKey derives the cross-snapshot identity of a model from its
// provider and display name, e.g. "acme-labs::test-model".
func CanonicalKey(modelName, provider string) string {
	return slug(provider) + "::" + slug(modelName)
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "unknown"
	}
	return strings.Join(strings.Fields(s), "-")
}

// perMillion picks the first reported price unit and converts it to
// dollars per 1,000,000 tokens.
func perMillion(per1M, per1K, perToken *float64) models.Optional[float64] {
	switch {
	case per1M != nil:
		return models.Some(*per1M)
	case per1K != nil:
		return models.Some(decimal.NewFromFloat(*per1K).Mul(decimal.NewFromInt(1_000)).InexactFloat64())
	case perToken != nil:
		return models.Some(decimal.NewFromFloat(*perToken).Mul(decimal.NewFromInt(1_000_000)).InexactFloat64())
	default:
		return models.Absent[float64]()
	}
}

// pick returns the first value among keys that can be read as type to.
// Unusable values fall through to the next alias.
func pick(record map[string]any, to reflect.Type, keys ...string) (any, bool) {
	for _, key := range keys {
		v, ok := lookup(record, key)
		if !ok || v == nil || !usable(to, v) {
			continue
		}
		return v, true
	}
	return nil, false
}

func lookup(record map[string]any, key string) (any, bool) {
	if !strings.Contains(key, ".") {
		v, ok := record[key]
		return v, ok
	}
	var current any = record
	for _, part := range strings.Split(key, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = m[part]; !ok {
			return nil, false
		}
	}
	return current, true
}
