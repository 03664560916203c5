// Package main API.
//
// go-formfill fills PDF form templates from CSV rows and serves the
// browser front-end, the JSON API and the MCP tools.
//
//	Schemes: http
//	BasePath: /
//	Version: 1.0.0
//	Host: localhost:5050
//
//	Consumes:
//	- application/json
//	- multipart/form-data
//
//	Produces:
//	- application/json
//	- application/pdf
//	- text/html
//
// swagger:meta
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"go-formfill/internal/config"
	"go-formfill/internal/server"
)

func gracefulShutdown(apiServer *http.Server, done chan bool, cleanupFunc func()) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Println("[INFO] shutting down gracefully, press Ctrl+C again to force")

	// Give in-flight fills 5 seconds to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("[ERROR] server forced to shutdown: %v", err)
	}

	if cleanupFunc != nil {
		log.Println("[INFO] cleaning output directory")
		cleanupFunc()
	}

	log.Println("[INFO] server exiting")

	done <- true
}

// cleanupOutputs removes generated PDFs. Templates and datasets are kept.
func cleanupOutputs(dir string) func() {
	return func() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				_ = os.Remove(filepath.Join(dir, entry.Name()))
			}
		}
	}
}

func main() {
	cfg, err := config.LoadFromFlags(os.Args[1:])
	if errors.Is(err, config.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("[ERROR] configuration: %v", err)
	}
	if cfg.IsDebug() {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
		log.Printf("[DEBUG] %s", cfg)
	}

	cleanup := cleanupOutputs(cfg.OutputDir)
	cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	apiServer, err := server.NewServer(ctx, cfg)
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}

	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, done, cleanup)

	log.Printf("[INFO] starting server on %s", apiServer.Addr)
	err = apiServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	<-done
	log.Println("[INFO] graceful shutdown complete")
}
