// Package swagger serves the OpenAPI document of the dashboard API and a
// Swagger UI that reads it.
package swagger

import (
	"context"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// Routes.
const (
	SpecPath = "/openapi.yaml"
	UIPath   = "/api-docs/"
)

// Register attaches Swagger UI and the OpenAPI spec routes to mux.
//
//	GET /openapi.yaml        -> embedded OpenAPI spec
//	GET /api-docs            -> redirect to /api-docs/
//	GET /api-docs/index.html -> Swagger UI loading /openapi.yaml
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc(SpecPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		_, _ = w.Write(OpenAPI)
	})

	mux.Handle("/api-docs", http.RedirectHandler(UIPath, http.StatusMovedPermanently))
	mux.Handle(UIPath, httpSwagger.Handler(
		httpSwagger.URL(SpecPath),
		httpSwagger.DocExpansion("list"),
	))
}
