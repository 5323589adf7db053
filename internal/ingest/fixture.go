package ingest

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/spboyer/modelrank/internal/models"
)

//go:embed fixtures/models.json
var defaultFixture []byte

// Fixture serves records from a static JSON file, or from the built-in
// sample when Path is empty.
type Fixture struct {
	Path string
}

func (f *Fixture) Name() string {
	return models.SourceFixture
}

func (f *Fixture) Fetch(_ context.Context) ([]any, error) {
	data := defaultFixture
	if f.Path != "" {
		var err error
		if data, err = os.ReadFile(f.Path); err != nil {
			return nil, fmt.Errorf("reading fixture: %w", err)
		}
	}

	records, err := parseEnvelope(data)
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", f.location(), err)
	}
	return records, nil
}

func (f *Fixture) location() string {
	if f.Path == "" {
		return "(built-in)"
	}
	return f.Path
}
