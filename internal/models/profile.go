package models

import "fmt"

// TaskType classifies what the user wants a model for.
type TaskType string

const (
	TaskCoding    TaskType = "coding"
	TaskMath      TaskType = "math"
	TaskReasoning TaskType = "reasoning"
	TaskWriting   TaskType = "writing"
	TaskAgent     TaskType = "agent"
	TaskGeneral   TaskType = "general"
)

// MissingPolicy decides what an absent metric contributes to a score.
type MissingPolicy string

const (
	MissingPenalize MissingPolicy = "penalize"
	MissingNeutral  MissingPolicy = "neutral"
)

// Fill returns the normalized contribution of an absent metric.
func (p MissingPolicy) Fill() float64 {
	if p == MissingNeutral {
		return 0.5
	}
	return 0.0
}

// Validate rejects unknown policy names.
func (p MissingPolicy) Validate() error {
	switch p {
	case MissingPenalize, MissingNeutral:
		return nil
	default:
		return fmt.Errorf("unknown missing policy %q: must be penalize or neutral", string(p))
	}
}

// TaskProfile is the structured form of a ranking request.
// Every field is populated; optional constraints are nil when unset.
type TaskProfile struct {
	TaskType          TaskType      `json:"task_type"`
	WeightQuality     float64       `json:"weight_quality"`
	WeightSpeed       float64       `json:"weight_speed"`
	WeightCost        float64       `json:"weight_cost"`
	MaxPricePer1M     *float64      `json:"max_price_per_1m"`
	MinContext        *int64        `json:"min_context"`
	ProviderAllowlist []string      `json:"provider_allowlist"`
	MissingPolicy     MissingPolicy `json:"missing_policy"`
}
