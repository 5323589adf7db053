package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/spboyer/modelrank/internal/recommend"
	"github.com/spboyer/modelrank/internal/warehouse"
	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, ExitSuccess},
		{"empty candidate set", &recommend.EmptyCandidateSetError{Filters: []string{"provider_allowlist"}, Considered: 3}, ExitNoResult},
		{"no data", &recommend.NoDataError{}, ExitNoResult},
		{"wrapped no data", fmt.Errorf("recommend: %w", &recommend.NoDataError{Err: errors.New("offline")}), ExitNoResult},
		{"storage error", &warehouse.StorageError{Op: "write", Path: "x", Err: errors.New("disk full")}, ExitError},
		{"regular error", errors.New("config error"), ExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
