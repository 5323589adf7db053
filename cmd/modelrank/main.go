package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spboyer/modelrank/internal/recommend"
)

// Exit codes for different failure modes
const (
	ExitSuccess  = 0 // Result printed
	ExitNoResult = 1 // Nothing to recommend: no data, or every candidate filtered out
	ExitError    = 2 // Configuration, storage or runtime error
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var emptyErr *recommend.EmptyCandidateSetError
	var noDataErr *recommend.NoDataError
	if errors.As(err, &emptyErr) || errors.As(err, &noDataErr) {
		return ExitNoResult
	}
	return ExitError
}
