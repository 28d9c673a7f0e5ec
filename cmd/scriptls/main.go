// # cmd/scriptls/main.go
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"scriptls/internal/core/app"
	"scriptls/internal/core/config"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

var (
	flagConfig    string
	flagWorkspace string
	flagFormat    string
	flagVerbose   bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "scriptls",
	Short:         "Language service core for the greyscript dialect",
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

		if flagFormat != "text" && flagFormat != "json" {
			return fmt.Errorf("invalid --format %q: must be text or json", flagFormat)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default: <workspace>/"+config.DefaultFile+")")
	rootCmd.PersistentFlags().StringVarP(&flagWorkspace, "workspace", "w", ".", "workspace folder")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: text|json")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")

	rootCmd.AddCommand(checkCmd, symbolsCmd, graphCmd, watchCmd)
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return filepath.Join(flagWorkspace, config.DefaultFile)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(configPath())
	if err != nil {
		return nil, err
	}
	config.ApplyEnvOverrides(cfg)
	if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, errs[0]
	}
	return cfg, nil
}

// newApp builds an App over the workspace folder. The caller closes it.
func newApp(cmd *cobra.Command, mutate func(*config.Config)) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if mutate != nil {
		mutate(cfg)
	}

	a, err := app.New(cfg, []string{flagWorkspace}, slog.Default())
	if err != nil {
		return nil, err
	}
	if err := a.Start(cmd.Context()); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// targetURIs maps path arguments to document URIs, or lists the whole
// workspace when none are given.
func targetURIs(cmd *cobra.Command, a *app.App, args []string) ([]string, error) {
	if len(args) == 0 {
		return a.Workspace.GetWorkspaceRelatedFiles(cmd.Context())
	}
	uris := make([]string, 0, len(args))
	for _, arg := range args {
		uri, err := documentURI(arg)
		if err != nil {
			return nil, err
		}
		uris = append(uris, uri)
	}
	return uris, nil
}

func documentURI(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	return workspaceURI(abs), nil
}

// displayPath renders uri relative to the workspace folder when possible.
func displayPath(uri string) string {
	p := workspacePath(uri)
	root, err := filepath.Abs(flagWorkspace)
	if err != nil {
		return p
	}
	if rel, err := filepath.Rel(root, p); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return p
}
