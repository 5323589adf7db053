package models

import "time"

// ComponentMetrics reports the raw inputs and the normalized components
// behind a recommendation score. Normalized values are in [0, 1].
type ComponentMetrics struct {
	// QualityColumn is the column the quality signal was taken from, empty
	// when none of the task's columns were reported.
	QualityColumn    string            `json:"quality_column,omitempty"`
	QualityMetric    Optional[float64] `json:"quality_metric"`
	OutputTokensPerS Optional[float64] `json:"output_tokens_per_s"`
	TTFTSeconds      Optional[float64] `json:"ttft_s"`
	PriceInputPer1M  Optional[float64] `json:"price_input_per_1m"`
	ContextWindow    Optional[int64]   `json:"context_window"`

	QualityNorm    float64 `json:"quality_norm"`
	ThroughputNorm float64 `json:"throughput_norm"`
	LatencyNorm    float64 `json:"latency_norm"`
	SpeedNorm      float64 `json:"speed_norm"`
	CostNorm       float64 `json:"cost_norm"`

	// Imputed lists metrics that were absent and filled by the missing policy.
	Imputed []string `json:"imputed,omitempty"`
}

// ScoredRecommendation is one ranked model.
type ScoredRecommendation struct {
	CanonicalKey  string           `json:"canonical_model_key"`
	ModelName     string           `json:"model_name"`
	Provider      string           `json:"provider"`
	Score         float64          `json:"score"`
	Metrics       ComponentMetrics `json:"metrics"`
	Justification string           `json:"justification"`
	SnapshotTS    time.Time        `json:"snapshot_ts"`
}

// RecommendationResult is the document printed by the recommend command.
type RecommendationResult struct {
	TaskProfile     TaskProfile            `json:"task_profile"`
	SnapshotTS      string                 `json:"snapshot_ts"`
	Recommendations []ScoredRecommendation `json:"recommendations"`
	Warnings        []string               `json:"warnings,omitempty"`
	Refreshed       bool                   `json:"refreshed"`
}
