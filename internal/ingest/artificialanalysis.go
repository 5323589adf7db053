package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spboyer/modelrank/internal/models"
)

const (
	// DefaultEndpoint is the Artificial Analysis models endpoint.
	DefaultEndpoint = "https://artificialanalysis.ai/api/v2/data/llms/models"

	// APIKeyEnv holds the Artificial Analysis API key.
	APIKeyEnv = "AA_API_KEY"

	DefaultTimeout = 30 * time.Second

	maxPayloadBytes = 32 << 20
)

// ArtificialAnalysis fetches model records from the Artificial Analysis API.
type ArtificialAnalysis struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

// NewArtificialAnalysis creates a connector. An empty endpoint selects
// DefaultEndpoint; a zero timeout selects DefaultTimeout.
func NewArtificialAnalysis(endpoint, apiKey string, timeout time.Duration) *ArtificialAnalysis {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ArtificialAnalysis{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Client:   &http.Client{Timeout: timeout},
	}
}

func (a *ArtificialAnalysis) Name() string {
	return models.SourceArtificialAnalysis
}

func (a *ArtificialAnalysis) Fetch(ctx context.Context) ([]any, error) {
	if a.APIKey == "" {
		return nil, a.fail(fmt.Errorf("%s is not set", APIKeyEnv))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.Endpoint, nil)
	if err != nil {
		return nil, a.fail(err)
	}
	req.Header.Set("x-api-key", a.APIKey)
	req.Header.Set("Accept", "application/json")

	slog.Debug("Fetching models", "endpoint", a.Endpoint)
	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, a.fail(fmt.Errorf("connection error: %w", err))
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, a.fail(fmt.Errorf("HTTP error: %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, a.fail(fmt.Errorf("reading response: %w", err))
	}

	records, err := parseEnvelope(body)
	if err != nil {
		return nil, a.fail(err)
	}
	return records, nil
}

func (a *ArtificialAnalysis) fail(err error) error {
	return &FetchError{Source: a.Name(), Err: err}
}

// LoadAPIKey returns the API key from the environment, falling back to the
// given dotenv file. A missing file is not an error.
func LoadAPIKey(envFile string) (string, error) {
	if key := os.Getenv(APIKeyEnv); key != "" {
		return key, nil
	}
	if envFile == "" {
		return "", nil
	}

	vals, err := godotenv.Read(envFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("reading %s: %w", envFile, err)
	}
	return vals[APIKeyEnv], nil
}
