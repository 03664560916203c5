// Package server sets up the HTTP server and registers the routes for go-formfill.
//
// RegisterRoutes returns an http.Handler with the JSON API, the browser UI,
// the MCP endpoint and the Swagger docs.
//
// Expected outputs:
// - JSON API endpoints at the root (/templates, /fields, /fill, ...)
// - Browser UI at /, /preview, /manage
// - MCP tools at /mcp
// - CORS, request ID, recovery and logging middleware are enabled
package server

import (
	"net"
	"net/http"

	_ "go-formfill/docs"
	"go-formfill/internal/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Only allow requests from localhost to /swagger/*
func localhostOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, _ := net.SplitHostPort(r.RemoteAddr)
		if host != "127.0.0.1" && host != "::1" && host != "localhost" {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.Config.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE"},
		AllowedHeaders: []string{"Content-Type", "Mcp-Session-Id"},
		ExposedHeaders: []string{"Content-Disposition"},
	}))
	r.With(localhostOnly).Get("/swagger/*", httpSwagger.WrapHandler)

	h := handlers.NewAPIHandler(s.Service, s.Signer, s.Config.MaxUploadSize)
	r.Get("/healthz", h.Health)
	r.Get("/templates", h.ListTemplates)
	r.Get("/templates/{name}", h.ServeTemplate)
	r.Post("/upload_template", h.UploadTemplate)
	r.Delete("/delete_template", h.DeleteTemplate)
	r.Get("/data_list", h.ListAllData)
	r.Get("/data", h.ListData)
	r.Post("/upload_data", h.UploadData)
	r.Delete("/delete_data", h.DeleteData)
	r.Get("/datafile/{name}", h.ServeData)
	r.Get("/fields", h.Fields)
	r.Post("/fill", h.Fill)
	r.Get("/outputs/{name}", h.DownloadOutput)

	s.UI.Routes(r)

	r.Handle("/mcp", s.MCP.Handler())

	return r
}
