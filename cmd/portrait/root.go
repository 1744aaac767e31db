package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/phrazzld/portrait-generator/internal/config"
	"github.com/phrazzld/portrait-generator/internal/platform/logger"
	"github.com/spf13/cobra"
)

// rootOptions are the flags shared by every command.
type rootOptions struct {
	configPath string
	verbose    bool
}

// overrides are per-command flags that take precedence over configuration.
type overrides struct {
	outputDir string
	apiKey    string
	host      string
	port      int
}

func (o overrides) apply(cfg *config.Config) {
	if o.outputDir != "" {
		cfg.Generation.OutputDir = o.outputDir
	}
	if o.apiKey != "" {
		cfg.LLM.GeminiAPIKey = o.apiKey
	}
	if o.host != "" {
		cfg.Server.Host = o.host
	}
	if o.port != 0 {
		cfg.Server.Port = o.port
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "portrait",
		Short:         "Generate historical portraits with Gemini",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ./config.yaml)")

	cmd.AddCommand(
		newGenerateCmd(opts),
		newBatchCmd(opts),
		newStatusCmd(opts),
		newServeCmd(opts),
		newHealthCheckCmd(opts),
	)
	return cmd
}

// loadConfig reads configuration, applies command line overrides and sets
// up logging to logOut.
func (o *rootOptions) loadConfig(ov overrides, logOut io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFromFile(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	ov.apply(cfg)
	if o.verbose {
		cfg.Server.LogLevel = "debug"
	}

	log, err := logger.SetupWithWriter(cfg.Server, logOut)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Debug("configuration loaded",
		"output_dir", cfg.Generation.OutputDir,
		"model", cfg.LLM.ModelName,
		"database", cfg.Database.Enabled())
	return cfg, log, nil
}

// addGenerationFlags registers the flags shared by generate and batch.
func addGenerationFlags(cmd *cobra.Command, styles *[]string, force *bool, ov *overrides) {
	cmd.Flags().StringSliceVarP(styles, "styles", "s", nil, "styles to generate (BW, Sepia, Color, Painting); default all")
	cmd.Flags().BoolVarP(force, "force", "f", false, "regenerate portraits that already exist")
	cmd.Flags().StringVarP(&ov.outputDir, "output-dir", "o", "", "output directory")
	cmd.Flags().StringVar(&ov.apiKey, "api-key", "", "Gemini API key (default $GOOGLE_API_KEY)")
}
