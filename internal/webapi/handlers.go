package webapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spboyer/modelrank/internal/models"
	"github.com/spboyer/modelrank/internal/recommend"
	"github.com/spboyer/modelrank/internal/taskprofile"
	"github.com/spboyer/modelrank/internal/validation"
)

// Version is set by the serve command from the binary version.
var Version = "dev"

// maxBodyBytes bounds a recommend request body.
const maxBodyBytes = 1 << 20

// Recommender answers recommendation requests. *recommend.Orchestrator
// implements it.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*models.RecommendationResult, error)
}

// Defaults fill request fields the client leaves out.
type Defaults struct {
	TopK          int
	MissingPolicy models.MissingPolicy
}

// Handlers holds the HTTP handler methods for the web API.
type Handlers struct {
	recommender Recommender
	defaults    Defaults
}

// NewHandlers creates a new Handlers.
func NewHandlers(r Recommender, defaults Defaults) *Handlers {
	if defaults.MissingPolicy == "" {
		defaults.MissingPolicy = models.MissingPenalize
	}
	return &Handlers{recommender: r, defaults: defaults}
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
	})
}

// HandleRecommend ranks models for the task in the request body.
func (h *Handlers) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	var body RecommendRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	req, err := h.toRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.recommender.Recommend(r.Context(), req)
	if err != nil {
		writeRecommendError(w, err)
		return
	}

	if errs := validation.ValidateRecommendation(result); len(errs) > 0 {
		slog.Error("Recommendation does not match the output schema", "errors", errs)
		writeError(w, http.StatusInternalServerError, "result does not match the output schema")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// toRequest validates body and applies the defaults.
func (h *Handlers) toRequest(body RecommendRequest) (recommend.Request, error) {
	var req recommend.Request
	if body.TaskText == nil {
		return req, errors.New("task_text is required")
	}
	req.Text = *body.TaskText

	req.TopK = h.defaults.TopK
	if body.TopK != nil {
		req.TopK = *body.TopK
	}

	if body.MaxPricePer1M != nil {
		if *body.MaxPricePer1M < 0 {
			return req, fmt.Errorf("max_price_per_1m must not be negative, got %v", *body.MaxPricePer1M)
		}
		req.Overrides.MaxPricePer1M = body.MaxPricePer1M
	}
	if body.MinContext != nil {
		if *body.MinContext < 0 {
			return req, fmt.Errorf("min_context must not be negative, got %d", *body.MinContext)
		}
		req.Overrides.MinContext = body.MinContext
	}
	req.Overrides.ProviderAllowlist = taskprofile.ParseProviderList(body.ProviderAllowlist)

	policy := h.defaults.MissingPolicy
	if strings.TrimSpace(body.MissingPolicy) != "" {
		p, err := taskprofile.ParseMissingPolicy(body.MissingPolicy)
		if err != nil {
			return req, err
		}
		policy = p
	}
	req.Overrides.MissingPolicy = &policy

	if body.MaxAgeHours != nil {
		if *body.MaxAgeHours <= 0 {
			return req, fmt.Errorf("max_age_hours must be positive, got %v", *body.MaxAgeHours)
		}
		req.MaxAge = time.Duration(*body.MaxAgeHours * float64(time.Hour))
	}
	req.ForceRefresh = body.Refresh
	return req, nil
}

func writeRecommendError(w http.ResponseWriter, err error) {
	var empty *recommend.EmptyCandidateSetError
	var noData *recommend.NoDataError
	switch {
	case errors.As(err, &empty):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   err.Error(),
			Code:    http.StatusUnprocessableEntity,
			Details: empty.Filters,
		})
	case errors.As(err, &noData):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		slog.Error("Recommend failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// RegisterRoutes registers all web API routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, r Recommender, defaults Defaults) {
	h := NewHandlers(r, defaults)
	mux.HandleFunc("GET /api/health", h.HandleHealth)
	mux.HandleFunc("POST /api/recommend", h.HandleRecommend)
}

// CORSMiddleware wraps a handler with CORS headers.
// If allowedOrigins is empty, no CORS header is set (same-origin only).
// Otherwise, the request Origin is checked against the allowed list.
func CORSMiddleware(next http.Handler, allowedOrigins ...string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if len(allowedOrigins) > 0 && origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg, Code: code})
}
