package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scriptls/internal/core/app"
	"scriptls/internal/core/config"
	"scriptls/internal/shared/observability"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the workspace parsed and report diagnostics as files change",
	Long:  "Watches the workspace folder, reparses changed documents and logs their diagnostics. Serves /metrics when observability.metrics_address is set and reloads the config file on change.",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cmd.SetContext(ctx)

	a, err := newApp(cmd, func(cfg *config.Config) { cfg.Watch.Enabled = true })
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.Config()
	shutdownTracing, err := observability.InitTracing(ctx, "scriptls", cfg.Observability.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			slog.Warn("failed to shut down tracing", "error", err)
		}
	}()

	if addr := cfg.Observability.MetricsAddress; addr != "" {
		server := observability.NewServer(addr)
		server.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Stop(shutdownCtx)
		}()
	}

	if _, err := os.Stat(configPath()); err == nil {
		if err := a.WatchConfig(ctx, configPath()); err != nil {
			slog.Warn("config hot reload disabled", "path", configPath(), "error", err)
		}
	}

	uris, err := a.Workspace.GetWorkspaceRelatedFiles(ctx)
	if err != nil {
		return err
	}
	for _, uri := range uris {
		diags, err := a.Check(ctx, uri)
		if err != nil {
			slog.Debug("document unavailable", "path", displayPath(uri), "error", err)
			continue
		}
		report(uri, diags)
	}
	slog.Info("watching workspace", "folder", flagWorkspace, "documents", len(uris))

	parsed := a.Documents.SubscribeParsed("")
	defer parsed.Close()
	for {
		select {
		case ev := <-parsed.C():
			report(ev.URI, app.DiagnosticsFor(ev.Document))
		case <-ctx.Done():
			slog.Info("shutting down")
			return nil
		}
	}
}

// report logs one record per diagnostic of uri.
func report(uri string, diags []app.Diagnostic) {
	if len(diags) == 0 {
		slog.Debug("document clean", "path", displayPath(uri))
		return
	}
	for _, d := range diags {
		slog.Warn(d.Message,
			"path", displayPath(uri),
			"line", d.Range.Start.Line,
			"column", d.Range.Start.Character,
			"source", d.Source,
		)
	}
}
