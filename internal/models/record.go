package models

import "time"

// Known snapshot sources.
const (
	SourceArtificialAnalysis = "artificial_analysis"
	SourceFixture            = "fixture"
)

// Column names of the canonical record. They double as the column keys of
// the snapshot file format.
const (
	ColumnCanonicalKey      = "canonical_model_key"
	ColumnModelName         = "model_name"
	ColumnProvider          = "provider"
	ColumnQualityIndex      = "quality_index"
	ColumnCodingIndex       = "coding_index"
	ColumnMathIndex         = "math_index"
	ColumnReasoningIndex    = "reasoning_index"
	ColumnOutputTokensPerS  = "output_tokens_per_s"
	ColumnTTFTS             = "ttft_s"
	ColumnPriceInputPer1M   = "price_input_per_1m"
	ColumnPriceOutputPer1M  = "price_output_per_1m"
	ColumnContextWindow     = "context_window"
	ColumnIsOpenSource      = "is_open_source"
	ColumnLicense           = "license"
	ColumnSource            = "source"
	ColumnSnapshotTimestamp = "snapshot_ts"
)

// Record is one model's metrics as captured in a single snapshot.
type Record struct {
	CanonicalKey     string            `json:"canonical_model_key"`
	ModelName        string            `json:"model_name"`
	Provider         string            `json:"provider"`
	QualityIndex     Optional[float64] `json:"quality_index"`
	CodingIndex      Optional[float64] `json:"coding_index"`
	MathIndex        Optional[float64] `json:"math_index"`
	ReasoningIndex   Optional[float64] `json:"reasoning_index"`
	OutputTokensPerS Optional[float64] `json:"output_tokens_per_s"`
	TTFTSeconds      Optional[float64] `json:"ttft_s"`
	PriceInputPer1M  Optional[float64] `json:"price_input_per_1m"`
	PriceOutputPer1M Optional[float64] `json:"price_output_per_1m"`
	ContextWindow    Optional[int64]   `json:"context_window"`
	IsOpenSource     *bool             `json:"is_open_source"`
	License          string            `json:"license,omitempty"`
	Source           string            `json:"source"`
	SnapshotTS       time.Time         `json:"snapshot_ts"`
}

// SourcePriority orders sources when two records of the same model share a
// snapshot timestamp. Lower wins.
func SourcePriority(source string) int {
	switch source {
	case SourceArtificialAnalysis:
		return 0
	case SourceFixture:
		return 1
	default:
		return 2
	}
}
