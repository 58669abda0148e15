// Command landsim serves the land-lease market simulation over HTTP.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/talgya/landlease/internal/api"
	"github.com/talgya/landlease/internal/persistence"
)

func main() {
	logLevel := slog.LevelInfo
	if os.Getenv("LANDSIM_DEBUG") != "" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("landlease — Georgist land market simulation")

	port := 8080
	if p := os.Getenv("PORT"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			slog.Error("invalid PORT", "value", p)
			os.Exit(1)
		}
		port = n
	}

	dbPath := os.Getenv("LANDSIM_DB")
	if dbPath == "" {
		dbPath = "data/landlease.db"
	}

	// ── Run archive ───────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(dbPath), 0755)
	db, err := persistence.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", dbPath)

	// ── HTTP API ──────────────────────────────────────────────────────
	adminKey := os.Getenv("LANDSIM_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("LANDSIM_ADMIN_KEY not set — mutating POST endpoints are open")
	}

	server := &api.Server{
		Port:     port,
		AdminKey: adminKey,
		DB:       db,
	}
	server.Start()

	fmt.Printf("\nLand market ready on a 10x10 grid.\n")
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", port)
	fmt.Println("Serving... (Ctrl+C to stop)")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)

	// Archive whatever run is in progress before exiting.
	server.SaveCurrentRun()
	fmt.Println("Server stopped. Current run archived.")
}
