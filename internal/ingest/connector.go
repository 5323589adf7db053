// Package ingest fetches raw model records from a source, normalizes them
// and appends them to the warehouse as one snapshot.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spboyer/modelrank/internal/validation"
)

//go:generate go tool mockgen -source=connector.go -destination=mock_connector_test.go -package=ingest

// Connector produces the raw records of one source.
type Connector interface {
	// Name is the source id recorded on every snapshot the connector feeds.
	Name() string

	// Fetch returns the raw records. Failures a fallback can cover are
	// reported as *FetchError.
	Fetch(ctx context.Context) ([]any, error)
}

// FetchError is a recoverable failure to obtain records from a source.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// parseEnvelope decodes a payload that is either a list of records or an
// object holding the list under "data" or "models". Numbers are kept as
// json.Number so the normalizer sees the source's exact digits.
func parseEnvelope(data []byte) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if errs := validation.ValidatePayload(doc); len(errs) > 0 {
		return nil, fmt.Errorf("unexpected payload shape: %s", strings.Join(errs, "; "))
	}

	switch v := doc.(type) {
	case []any:
		return v, nil
	case map[string]any:
		if records, ok := v["data"].([]any); ok && len(records) > 0 {
			return records, nil
		}
		if records, ok := v["models"].([]any); ok {
			return records, nil
		}
		records, _ := v["data"].([]any)
		return records, nil
	}
	return nil, fmt.Errorf("unexpected payload type %T", doc)
}
