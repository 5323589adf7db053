package webapi

// RecommendRequest is the body of POST /api/recommend. Pointer fields are
// optional; nil means the server default applies.
type RecommendRequest struct {
	TaskText      *string  `json:"task_text"`
	TopK          *int     `json:"topk"`
	MaxPricePer1M *float64 `json:"max_price_per_1m"`
	MinContext    *int64   `json:"min_context"`
	// ProviderAllowlist is comma-separated, e.g. "OpenAI,Google".
	ProviderAllowlist string   `json:"provider_allowlist"`
	MissingPolicy     string   `json:"missing_policy"`
	Refresh           bool     `json:"refresh"`
	MaxAgeHours       *float64 `json:"max_age_hours"`
}

// HealthResponse is the API response for the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
	// Details lists the filters that emptied the candidate set, if any.
	Details []string `json:"details,omitempty"`
}
