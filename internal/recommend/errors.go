package recommend

import (
	"fmt"
	"strings"
)

// EmptyCandidateSetError is returned when no model survives the profile's
// filters.
type EmptyCandidateSetError struct {
	// Filters describes each active filter, e.g. "max_price_per_1m <= 5".
	Filters []string
	// Considered is the number of candidates before filtering.
	Considered int
}

func (e *EmptyCandidateSetError) Error() string {
	if len(e.Filters) == 0 {
		return "no candidate models to rank"
	}
	return fmt.Sprintf("all %d candidate models were excluded by %s; try relaxing these filters",
		e.Considered, strings.Join(e.Filters, ", "))
}

// NoDataError is returned when there is no model data to rank and it could
// not be fetched.
type NoDataError struct {
	Err error
}

func (e *NoDataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no model data available: refresh failed: %v", e.Err)
	}
	return "no model data available: run ingest first"
}

func (e *NoDataError) Unwrap() error {
	return e.Err
}
