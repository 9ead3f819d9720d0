package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/qbo-bridge/internal/api"
	"github.com/pigeonworks-llc/qbo-bridge/internal/config"
	"github.com/pigeonworks-llc/qbo-bridge/internal/oauth"
	"github.com/pigeonworks-llc/qbo-bridge/internal/qbo"
	"github.com/pigeonworks-llc/qbo-bridge/internal/resolver"
	"github.com/pigeonworks-llc/qbo-bridge/internal/store"
	"github.com/pigeonworks-llc/qbo-bridge/internal/upload"
	"github.com/pigeonworks-llc/qbo-bridge/internal/workflow"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge HTTP server",
	Long: `Run the HTTP server that exposes the QuickBooks actions.

This command:
1. Loads configuration from the environment
2. Opens the credential and upload-session databases
3. Wires the OAuth manager, QBO client, resolvers, and workflow
4. Serves until interrupted, then shuts down gracefully

Example:
  qbo-bridge serve
  qbo-bridge serve --port 8080 --debug`,
	Run: runServe,
}

var servePort string

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (overrides PORT)")
}

// applyServeFlags layers command-line overrides on top of the loaded
// configuration.
func applyServeFlags(cfg *config.Config) {
	if servePort != "" {
		cfg.Port = servePort
	}
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")
	applyServeFlags(cfg)

	if err := cfg.Validate(
		"intuit.clientId",
		"intuit.clientSecret",
		"intuit.redirectUri",
		"sessionSecret",
		"actionApiKey",
	); err != nil {
		exitOnError(err, "invalid configuration")
	}

	for _, p := range []string{cfg.DBPath, cfg.UploadDBPath} {
		if dir := filepath.Dir(p); dir != "." {
			exitOnError(os.MkdirAll(dir, 0o755), "failed to create data directory")
		}
	}

	slog.Debug("Opening credential database", "path", cfg.DBPath)
	creds, err := store.Open(cfg.DBPath)
	exitOnError(err, "failed to open credential database")
	defer creds.Close()

	slog.Debug("Opening upload-session database", "path", cfg.UploadDBPath)
	uploads, err := upload.Open(cfg.UploadDBPath)
	exitOnError(err, "failed to open upload-session database")
	defer uploads.Close()

	tokens := oauth.New(cfg.Intuit, cfg.UserID, creds)

	client := qbo.NewClient(qbo.ClientConfig{
		BaseURL: cfg.Intuit.APIBaseURL,
		Tokens:  tokens,
		Timeout: 30 * time.Second,
	})

	mapping, err := resolver.LoadMapping(cfg.MappingPath)
	exitOnError(err, "failed to load category mapping")

	res := resolver.New(client, mapping)
	guard := workflow.NewGuard(client)
	orchestrator := workflow.NewOrchestrator(client, res, guard, slog.Default())

	handler := api.NewHandler(cfg, tokens, client, res, guard, orchestrator, uploads, slog.Default())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "port", cfg.Port, "env", cfg.NodeEnv)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			exitOnError(err, "server failed")
		}
	case sig := <-quit:
		slog.Info("Shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}

	slog.Info("Server stopped")
}
