// Package main provides the rivalscope CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gauthierbraillon/rivalscope/internal/analyzer"
	"github.com/gauthierbraillon/rivalscope/internal/config"
	"github.com/gauthierbraillon/rivalscope/internal/display"
	"github.com/gauthierbraillon/rivalscope/internal/logger"
	"github.com/gauthierbraillon/rivalscope/internal/metrics"
	"github.com/gauthierbraillon/rivalscope/internal/server"
)

// version is injected with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// resolveVersion prefers the ldflags version and falls back to the module
// version recorded by go install.
func resolveVersion(v string, info *debug.BuildInfo) string {
	if v != "dev" {
		return v
	}
	if info == nil || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return "dev"
	}
	return info.Main.Version
}

// globalOptions are the flags shared by every command.
type globalOptions struct {
	configPath  string
	envFile     string
	legacyFiles []string
	logLevel    string
	logFile     string
}

// load reads the env file and configuration. It runs again for every API
// request of serve, so edits take effect without a restart.
func (o *globalOptions) load(envFileRequired bool) (*config.Config, error) {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil {
			if envFileRequired || !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to load env file %s: %w", o.envFile, err)
			}
		}
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	for _, path := range o.legacyFiles {
		if err := cfg.MergeLegacyFile(path); err != nil {
			return nil, err
		}
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFile != "" {
		cfg.Log.File = o.logFile
	}
	return cfg, nil
}

// newRootCmd creates the root command for rivalscope CLI.
func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	var cfg *config.Config

	info, _ := debug.ReadBuildInfo()
	rootCmd := &cobra.Command{
		Use:          "rivalscope",
		Short:        "Rank competitor Instagram posts and summarize their YouTube podcasts",
		Long:         "Rivalscope scans competitor Instagram accounts and YouTube channels for the last week, ranks posts by performance and summarizes new podcast episodes.",
		Version:      resolveVersion(version, info),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := opts.load(cmd.Flags().Changed("env-file"))
			if err != nil {
				return err
			}
			if err := logger.Init(loaded.Log.Level, loaded.Log.File); err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
	}

	rootCmd.SetVersionTemplate("rivalscope version {{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config or legacy JSON roster")
	flags.StringVar(&opts.envFile, "env-file", ".env", "Path to a .env file with API keys")
	flags.StringSliceVar(&opts.legacyFiles, "legacy", nil, "Legacy competitor_accounts.json or youtube_competitors.json files to merge")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFile, "log-file", "", "Also append logs to this file")

	current := func() *config.Config { return cfg }
	rootCmd.AddCommand(newInstagramCmd(current))
	rootCmd.AddCommand(newYouTubeCmd(current))
	rootCmd.AddCommand(newConfigCmd(current))
	rootCmd.AddCommand(newServeCmd(opts, current))

	return rootCmd
}

// runOutputs are the artifact flags shared by the analysis commands.
type runOutputs struct {
	output      string
	metricsFile string
}

func (o *runOutputs) register(cmd *cobra.Command, what string) {
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "Where to write the "+what+" JSON results (defaults to the configured file)")
	cmd.Flags().StringVar(&o.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run")
}

func (o *runOutputs) write(out io.Writer, a analyzer.Artifact, fallback, metricsFallback string, m *metrics.Metrics) error {
	path := o.output
	if path == "" {
		path = fallback
	}
	if err := analyzer.WriteArtifact(path, a); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nResults saved to: %s\n", path)

	metricsPath := o.metricsFile
	if metricsPath == "" {
		metricsPath = metricsFallback
	}
	if metricsPath != "" {
		if err := m.WriteFile(metricsPath); err != nil {
			return err
		}
		logger.Log.WithField("path", metricsPath).Info("Metrics written")
	}
	return nil
}

// newInstagramCmd creates the instagram subcommand.
func newInstagramCmd(cfg func() *config.Config) *cobra.Command {
	var outputs runOutputs

	cmd := &cobra.Command{
		Use:   "instagram",
		Short: "Rank last week's posts from competitor Instagram accounts",
		Long:  "Scan every configured Instagram account for posts from the last 7 days and list the top reels and posts by performance.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()
			if err := c.ValidateInstagram(); err != nil {
				return err
			}

			m := metrics.New()
			a := analyzer.NewInstagramFromConfig(c, analyzer.WithLogger(logger.Log), analyzer.WithMetrics(m))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Analyzing %d accounts: %s\n\n", len(c.Instagram.Accounts), strings.Join(c.Instagram.Accounts, ", "))

			res, err := a.Analyze(cmd.Context())
			if err != nil {
				return err
			}

			f := display.NewTerminalFormatter()
			fmt.Fprintln(out, f.FormatRanking("REELS", res.Reels))
			fmt.Fprintln(out, f.FormatRanking("POSTS", res.Posts))
			if err := f.WriteInstagramStats(out, res.Stats); err != nil {
				return err
			}
			if len(res.Failed) > 0 {
				fmt.Fprintf(out, "\nFailed accounts: %s\n", strings.Join(res.Failed, ", "))
			}

			return outputs.write(out, res, c.Output.InstagramFile, c.Output.MetricsFile, m)
		},
	}
	outputs.register(cmd, "Instagram")

	return cmd
}

// newYouTubeCmd creates the youtube subcommand.
func newYouTubeCmd(cfg func() *config.Config) *cobra.Command {
	var outputs runOutputs

	cmd := &cobra.Command{
		Use:   "youtube",
		Short: "Summarize last week's podcasts from competitor YouTube channels",
		Long:  "Find the newest videos of every configured channel published in the last 7 days, fetch their English captions and summarize them.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()
			if err := c.ValidateYouTube(); err != nil {
				return err
			}

			m := metrics.New()
			a, err := analyzer.NewYouTubeFromConfig(cmd.Context(), c, analyzer.WithLogger(logger.Log), analyzer.WithMetrics(m))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Analyzing %d channels\n\n", len(c.YouTube.Channels))

			res, err := a.Analyze(cmd.Context())
			if err != nil {
				return err
			}

			f := display.NewTerminalFormatter()
			fmt.Fprintln(out, f.FormatPodcasts(res.Podcasts))
			if err := f.WritePodcastStats(out, res.Stats); err != nil {
				return err
			}
			if len(res.Failed) > 0 {
				fmt.Fprintf(out, "\nFailed channels: %s\n", strings.Join(res.Failed, ", "))
			}

			return outputs.write(out, res, c.Output.YouTubeFile, c.Output.MetricsFile, m)
		},
	}
	outputs.register(cmd, "YouTube")

	return cmd
}

// newConfigCmd creates the config subcommand.
func newConfigCmd(cfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
		Long:  "Print the configuration after files, defaults and environment overrides are applied. API keys are masked.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(cfg().Redacted())
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

// newServeCmd creates the serve subcommand.
func newServeCmd(opts *globalOptions, cfg func() *config.Config) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analyses over HTTP",
		Long:  "Start the HTTP API. Configuration is reloaded on every request.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = cfg().Server.Addr
			}
			load := func() (*config.Config, error) { return opts.load(false) }
			srv := server.New(load, server.WithLogger(logger.Log), server.WithMetrics(metrics.New()))
			fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", addr)
			return srv.Run(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (defaults to the configured one)")

	return cmd
}
