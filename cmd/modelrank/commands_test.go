package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spboyer/modelrank/internal/ingest"
	"github.com/spboyer/modelrank/internal/models"
	"github.com/spboyer/modelrank/internal/recommend"
	"github.com/spboyer/modelrank/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEnv is an isolated project: a config file whose data directory and
// .env live in a temp dir, with no API key in the environment.
type testEnv struct {
	dir    string
	config string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv(ingest.APIKeyEnv, "")

	dir := t.TempDir()
	config := filepath.Join(dir, ".modelrank.yaml")
	require.NoError(t, os.WriteFile(config, []byte(`
paths:
  data_dir: data
  env_file: missing.env
source:
  endpoint: http://127.0.0.1:1/unused
metrics:
  textfile: metrics/modelrank.prom
`), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "metrics"), 0o755))
	return &testEnv{dir: dir, config: config}
}

func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", e.config}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e *testEnv) ingest(t *testing.T) ingest.Report {
	t.Helper()
	out, err := e.run(t, "ingest", "--offline")
	require.NoError(t, err)

	var report ingest.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	return report
}

func TestIngest_Offline(t *testing.T) {
	env := newTestEnv(t)

	report := env.ingest(t)
	assert.Equal(t, models.SourceFixture, report.Source)
	assert.Equal(t, 12, report.Fetched)
	assert.Equal(t, 12, report.Stored)
	assert.Zero(t, report.Skipped)
	assert.False(t, report.FellBack)

	_, err := os.Stat(filepath.Join(env.dir, "data"))
	require.NoError(t, err, "data_dir resolves against the config file")

	prom, err := os.ReadFile(filepath.Join(env.dir, "metrics", "modelrank.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), "modelrank_ingest_runs_total")
}

func TestIngest_FallsBackWithoutAPIKey(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "ingest")
	require.NoError(t, err)

	var report ingest.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.FellBack)
	assert.Equal(t, models.SourceFixture, report.Source)
}

func TestIngest_FixtureFile(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(env.dir, "custom.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name": "Tiny", "provider": "Acme", "quality_index": 10}]`), 0o644))

	out, err := env.run(t, "ingest", "--fixture", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"stored": 1`)

	out, err = env.run(t, "latest", "--format", "json")
	require.NoError(t, err)
	var records []models.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "acme::tiny", records[0].CanonicalKey)
}

func TestIngest_InvalidSchedule(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "ingest", "--offline", "--schedule", "not a schedule")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid schedule")
}

func TestLatestAndHistory(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "latest")
	require.NoError(t, err)
	assert.Contains(t, out, "No records stored")

	env.ingest(t)
	env.ingest(t)

	out, err = env.run(t, "latest", "--format", "json")
	require.NoError(t, err)
	var latest []models.Record
	require.NoError(t, json.Unmarshal([]byte(out), &latest))
	assert.Len(t, latest, 12)
	for i := 1; i < len(latest); i++ {
		assert.Less(t, latest[i-1].CanonicalKey, latest[i].CanonicalKey, "latest is sorted by key")
	}

	out, err = env.run(t, "history", "--model", "openai::gpt-4o", "--format", "json")
	require.NoError(t, err)
	var history []models.Record
	require.NoError(t, json.Unmarshal([]byte(out), &history))
	require.Len(t, history, 2, "one record per snapshot")
	assert.False(t, history[1].SnapshotTS.Before(history[0].SnapshotTS))

	out, err = env.run(t, "history", "--source", "artificial_analysis", "--format", "json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)

	out, err = env.run(t, "latest")
	require.NoError(t, err)
	assert.Contains(t, out, "KEY")
	assert.Contains(t, out, "openai::gpt-4o")

	_, err = env.run(t, "history", "--format", "xml")
	require.Error(t, err)
}

func TestRecommend_JSON(t *testing.T) {
	env := newTestEnv(t)
	env.ingest(t)

	out, err := env.run(t, "recommend", "fast and cheap python debugging", "--topk", "3", "--no-refresh")
	require.NoError(t, err)
	assert.Empty(t, validation.ValidateRecommendationBytes([]byte(out)))

	var result models.RecommendationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, models.TaskCoding, result.TaskProfile.TaskType)
	assert.Equal(t, models.MissingPenalize, result.TaskProfile.MissingPolicy)
	assert.False(t, result.Refreshed)
	require.Len(t, result.Recommendations, 3)
	for i := 1; i < len(result.Recommendations); i++ {
		assert.GreaterOrEqual(t, result.Recommendations[i-1].Score, result.Recommendations[i].Score)
	}
}

func TestRecommend_Overrides(t *testing.T) {
	env := newTestEnv(t)
	env.ingest(t)

	out, err := env.run(t, "recommend", "write a blog post",
		"--provider-allowlist", "Meta, anthropic",
		"--max-price-per-1m", "100",
		"--min-context", "100000",
		"--missing-policy", "neutral",
		"--topk", "0",
		"--no-refresh")
	require.NoError(t, err)

	var result models.RecommendationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, models.TaskWriting, result.TaskProfile.TaskType)
	assert.Equal(t, models.MissingNeutral, result.TaskProfile.MissingPolicy)
	assert.Equal(t, []string{"meta", "anthropic"}, result.TaskProfile.ProviderAllowlist)
	require.NotNil(t, result.TaskProfile.MinContext)
	assert.Equal(t, int64(100000), *result.TaskProfile.MinContext)
	require.NotEmpty(t, result.Recommendations)
	for _, r := range result.Recommendations {
		assert.Contains(t, []string{"Meta", "Anthropic"}, r.Provider)
	}
}

func TestRecommend_RefreshesEmptyWarehouse(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "recommend", "solve this math proof")
	require.NoError(t, err)

	var result models.RecommendationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Refreshed)
	assert.Equal(t, models.TaskMath, result.TaskProfile.TaskType)
	assert.Len(t, result.Recommendations, 5)
}

func TestRecommend_NoData(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "recommend", "anything", "--no-refresh")
	var noData *recommend.NoDataError
	require.True(t, errors.As(err, &noData), "got %v", err)
	assert.Equal(t, ExitNoResult, exitCode(err))
}

func TestRecommend_EmptyCandidateSet(t *testing.T) {
	env := newTestEnv(t)
	env.ingest(t)

	_, err := env.run(t, "recommend", "anything", "--provider-allowlist", "nobody", "--no-refresh")
	var empty *recommend.EmptyCandidateSetError
	require.True(t, errors.As(err, &empty), "got %v", err)
	assert.Equal(t, ExitNoResult, exitCode(err))
}

func TestRecommend_InvalidInput(t *testing.T) {
	env := newTestEnv(t)
	env.ingest(t)

	tests := []struct {
		name string
		args []string
	}{
		{"bad policy", []string{"--missing-policy", "ignore"}},
		{"bad format", []string{"--format", "xml"}},
		{"negative price", []string{"--max-price-per-1m", "-1"}},
		{"zero max age", []string{"--max-age-hours", "0"}},
		{"refresh flags conflict", []string{"--refresh", "--no-refresh"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.run(t, append([]string{"recommend", "code review"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, ExitError, exitCode(err))
		})
	}
}

func TestRecommend_Table(t *testing.T) {
	env := newTestEnv(t)
	env.ingest(t)

	out, err := env.run(t, "recommend", "reasoning about physics", "--format", "table", "--no-refresh")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Greater(t, len(lines), 4)
	assert.True(t, strings.HasPrefix(lines[0], "Task: reasoning"))
	assert.Contains(t, out, "SCORE")
	assert.Contains(t, out, "WHY")
}
