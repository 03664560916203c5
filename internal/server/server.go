// Package server provides the HTTP server setup for go-formfill.
//
// NewServer builds the form filling service, UI sessions, link signer and
// field cache from the configuration and returns a ready http.Server.
//
// Expected outputs:
// - Server listens on the configured address (default :5050)
// - Expired UI sessions and generated PDFs are cleaned up periodically
//
// Usage:
//
//	cfg, _ := config.LoadFromFlags(os.Args[1:])
//	srv, _ := server.NewServer(ctx, cfg)
//	srv.ListenAndServe()
//
// See internal/server/routes.go for route registration.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"go-formfill/internal/cache"
	"go-formfill/internal/config"
	"go-formfill/internal/formfill"
	"go-formfill/internal/links"
	"go-formfill/internal/mcp"
	"go-formfill/internal/session"
	"go-formfill/internal/web"
)

type Server struct {
	Config         *config.Config
	Service        *formfill.Service
	SessionManager *session.SessionManager
	Signer         *links.Signer
	UI             *web.UI
	MCP            *mcp.Server
}

// New wires the components without starting background work.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	var fc cache.FieldCache = cache.NewMemory()
	if cfg.RedisAddr != "" {
		client, err := cache.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		fc = cache.NewRedis(client, 24*time.Hour)
	}

	svc, err := formfill.New(cfg.TemplatesDir, cfg.DataDir, cfg.OutputDir, fc)
	if err != nil {
		return nil, err
	}
	signer, err := links.NewSigner(cfg.LinkSecret, cfg.OutputTTL)
	if err != nil {
		return nil, err
	}
	sessions := session.NewSessionManager()
	ui, err := web.New(svc, sessions, cfg.MaxUploadSize)
	if err != nil {
		return nil, err
	}
	mcpServer, err := mcp.NewServer(svc, signer)
	if err != nil {
		return nil, err
	}

	return &Server{
		Config:         cfg,
		Service:        svc,
		SessionManager: sessions,
		Signer:         signer,
		UI:             ui,
		MCP:            mcpServer,
	}, nil
}

// startJanitors sweeps UI sessions and stored outputs until ctx is done.
func (s *Server) startJanitors(ctx context.Context) {
	s.SessionManager.StartJanitor(ctx, time.Minute, s.Config.SessionTTL)

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := s.Service.PurgeOutputs(s.Config.OutputTTL)
				if err != nil {
					log.Printf("[WARN] purge outputs: %v", err)
				} else if n > 0 {
					log.Printf("[INFO] removed %d expired outputs", n)
				}
			}
		}
	}()
}

func NewServer(ctx context.Context, cfg *config.Config) (*http.Server, error) {
	srv, err := New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init server: %w", err)
	}
	srv.startJanitors(ctx)

	server := &http.Server{
		Addr:         cfg.Address(),
		Handler:      srv.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server, nil
}
