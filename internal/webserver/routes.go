package webserver

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/spboyer/modelrank/internal/webapi"
)

//go:embed static
var assets embed.FS

// registerRoutes sets up the API routes and the form page on the given mux.
func registerRoutes(mux *http.ServeMux, cfg Config) error {
	webapi.RegisterRoutes(mux, cfg.Recommender, cfg.Defaults)

	page, err := fs.ReadFile(assets, "static/index.html")
	if err != nil {
		return fmt.Errorf("failed to read embedded form page: %w", err)
	}
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page) //nolint:errcheck
	})
	return nil
}
