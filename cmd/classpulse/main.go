// Package main provides the classpulse CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gauthierbraillon/classpulse/internal/classpulse"
	"github.com/gauthierbraillon/classpulse/internal/config"
	"github.com/gauthierbraillon/classpulse/internal/display"
	"github.com/gauthierbraillon/classpulse/internal/logging"
	"github.com/gauthierbraillon/classpulse/internal/poller"
	"github.com/gauthierbraillon/classpulse/internal/server"
	"github.com/gauthierbraillon/classpulse/internal/store"
	"github.com/gauthierbraillon/classpulse/pkg/auth"
	"github.com/gauthierbraillon/classpulse/pkg/browser"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

const (
	tokenProfile   = "classpulse"
	clearScreen    = "\033[H\033[2J"
	oneShotTimeout = 30 * time.Second
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveVersion prefers the ldflags version and falls back to the module
// version recorded by go install.
func resolveVersion(v string, info *debug.BuildInfo) string {
	if v != "dev" && v != "" {
		return v
	}
	if info == nil {
		return "dev"
	}
	if mv := info.Main.Version; mv != "" && mv != "(devel)" {
		return mv
	}
	return "dev"
}

// app carries what every command needs once flags are parsed.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *slog.Logger
}

// load resolves configuration and builds the logger.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) tokenStorage() *auth.TokenStorage {
	return auth.NewTokenStorage(a.cfg.ConfigDir)
}

// client returns an API client, authenticated when a token is stored.
func (a *app) client() *classpulse.Client {
	opts := []classpulse.ClientOption{classpulse.WithBaseURL(a.cfg.APIURL)}
	if token, err := a.tokenStorage().Load(tokenProfile); err == nil {
		opts = append(opts, classpulse.WithToken(token.Token))
	}
	return classpulse.NewClient(opts...)
}

// openCache opens the configured cache backend.
func (a *app) openCache(ctx context.Context) (store.Backend, *store.FeedbackStore, error) {
	backend, err := store.Open(ctx, store.Options{
		Backend:  a.cfg.CacheBackend,
		Dir:      a.cfg.CacheDir,
		RedisURL: a.cfg.RedisURL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return backend, store.NewFeedbackStore(backend, store.WithLogger(a.logger)), nil
}

// newRootCmd creates the root command for classpulse CLI.
func newRootCmd() *cobra.Command {
	a := &app{}

	info, _ := debug.ReadBuildInfo()
	rootCmd := &cobra.Command{
		Use:           "classpulse",
		Short:         "Watch live student feedback for ClassPulse activities",
		Long:          "Classpulse shows how students feel during a lecture: live emotion stats, a sentiment timeline and the latest anonymous reactions.",
		Version:       resolveVersion(version, info),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	rootCmd.SetVersionTemplate("classpulse version {{.Version}}\n")

	rootCmd.PersistentFlags().String("api-url", "", "ClassPulse API base URL")
	rootCmd.PersistentFlags().String("cache", "", "Cache backend (file, badger, redis, memory)")
	rootCmd.PersistentFlags().Duration("interval", 0, "Polling interval (e.g. 2s)")

	v, err := config.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := config.BindFlags(v, rootCmd.PersistentFlags(), map[string]string{
		"api-url":  config.KeyAPIURL,
		"cache":    config.KeyCacheBackend,
		"interval": config.KeyPollInterval,
	}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	a.v = v

	rootCmd.AddCommand(newWatchCmd(a))
	rootCmd.AddCommand(newStatsCmd(a))
	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newLoginCmd(a))
	rootCmd.AddCommand(newLogoutCmd(a))
	rootCmd.AddCommand(newRegisterCmd(a))
	rootCmd.AddCommand(newWhoamiCmd(a))
	rootCmd.AddCommand(newOpenCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))

	return rootCmd
}

// newWatchCmd creates the watch subcommand.
func newWatchCmd(a *app) *cobra.Command {
	var noClear bool

	cmd := &cobra.Command{
		Use:   "watch <activity-id>",
		Short: "Show a live dashboard for an activity",
		Long:  "Poll the ClassPulse API and redraw the dashboard until interrupted.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			backend, cache, err := a.openCache(ctx)
			if err != nil {
				return err
			}
			defer backend.Close()

			out := cmd.OutOrStdout()
			formatter := display.NewTerminalFormatter()
			render := func(st poller.State) {
				now := time.Now()
				if !noClear {
					fmt.Fprint(out, clearScreen)
				}
				fmt.Fprint(out, formatter.FormatDashboard(st.Snapshot(now), now))
			}

			p := poller.New(args[0], a.client(), cache,
				poller.WithInterval(a.cfg.PollInterval),
				poller.WithLogger(a.logger),
				poller.WithOnChange(render),
			)
			p.Start(ctx)
			<-ctx.Done()
			p.Stop()

			return nil
		},
	}

	cmd.Flags().BoolVar(&noClear, "no-clear", false, "Append each redraw instead of clearing the screen")

	return cmd
}

// newStatsCmd creates the stats subcommand.
func newStatsCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats <activity-id>",
		Short: "Print the dashboard of an activity once",
		Long:  "Fetch an activity once and print its dashboard, or its snapshot as JSON.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), oneShotTimeout)
			defer cancel()

			backend, cache, err := a.openCache(ctx)
			if err != nil {
				return err
			}
			defer backend.Close()

			p := poller.New(args[0], a.client(), cache, poller.WithLogger(a.logger))
			st := p.Refresh(ctx)
			p.Stop()

			now := time.Now()
			snap := st.Snapshot(now)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}

			fmt.Fprint(cmd.OutOrStdout(), display.NewTerminalFormatter().FormatDashboard(snap, now))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the snapshot as JSON")

	return cmd
}

// newServeCmd creates the serve subcommand.
func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve dashboards over HTTP and websockets",
		Long:  "Expose dashboard snapshots at /api/activities/{id}/dashboard and push live updates at /ws/activities/{id}.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			backend, cache, err := a.openCache(ctx)
			if err != nil {
				return err
			}
			defer backend.Close()

			if addr == "" {
				addr = a.cfg.ListenAddr
			}

			srv := server.New(a.client(), cache,
				server.WithLogger(a.logger),
				server.WithPollInterval(a.cfg.PollInterval),
				server.WithAllowedOrigin(a.cfg.FrontendURL),
			)

			fmt.Fprintf(cmd.OutOrStdout(), "Serving dashboards on %s\n", addr)
			return srv.Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from CLASSPULSE_LISTEN_ADDR)")

	return cmd
}

// newOpenCmd creates the open subcommand.
func newOpenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open <activity-id>",
		Short: "Open the web dashboard of an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := browser.DashboardURL(a.cfg.FrontendURL, args[0])
			if err != nil {
				return fmt.Errorf("invalid frontend URL: %w", err)
			}

			if err := browser.Open(url); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Could not open browser. Please visit:\n%s\n", url)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Opened %s\n", url)
			return nil
		},
	}
}

// newConfigCmd creates the config subcommand.
func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show configuration",
		Long:  "Show the resolved classpulse configuration. Settings come from CLASSPULSE_* environment variables, a .env file and flags.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config directory: %s\n", a.cfg.ConfigDir)
			fmt.Fprintf(out, "API URL:          %s\n", a.cfg.APIURL)
			fmt.Fprintf(out, "Cache backend:    %s\n", a.cfg.CacheBackend)
			fmt.Fprintf(out, "Cache directory:  %s\n", a.cfg.CacheDir)
			fmt.Fprintf(out, "Poll interval:    %s\n", a.cfg.PollInterval)
			fmt.Fprintf(out, "Listen address:   %s\n", a.cfg.ListenAddr)
			fmt.Fprintf(out, "Frontend URL:     %s\n", a.cfg.FrontendURL)
			return nil
		},
	}
}
