package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/phrazzld/portrait-generator/internal/api"
	"github.com/phrazzld/portrait-generator/internal/config"
	"github.com/phrazzld/portrait-generator/internal/platform/gemini"
	"github.com/phrazzld/portrait-generator/internal/platform/postgres"
	"github.com/phrazzld/portrait-generator/internal/storage"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var errUnwritable = errors.New("output directory is not writable")

// newHealthHandler registers the dependency probes. The Gemini key and the
// output directory are required; the database only degrades the service.
func newHealthHandler(cfg *config.Config, store *storage.Store, db *sql.DB) *api.HealthHandler {
	h := api.NewHealthHandler(version, cfg.LLM.ModelName).
		Require("gemini_configured", func(context.Context) error {
			return gemini.ValidateAPIKey(cfg.LLM.GeminiAPIKey)
		}).
		Require("output_dir_writable", func(context.Context) error {
			if store == nil || !store.Writable() {
				return errUnwritable
			}
			return nil
		})
	if db != nil {
		h.Optional("database", db.PingContext)
	}
	return h
}

func newHealthCheckCmd(root *rootOptions) *cobra.Command {
	var ov overrides
	cmd := &cobra.Command{
		Use:   "health-check",
		Short: "Check configuration and dependencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.loadConfig(ov, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			store, err := storage.OpenStore(afero.NewOsFs(), cfg.Generation.OutputDir, log)
			if err != nil {
				log.Warn("output directory unavailable", "error", err)
				store = nil
			}

			var (
				db    *sql.DB
				dbErr error
			)
			if cfg.Database.Enabled() {
				db, dbErr = postgres.Open(cmd.Context(), cfg.Database.URL, log)
				if dbErr != nil {
					log.Warn("database unavailable", "error", dbErr)
				} else {
					defer db.Close()
				}
			}

			h := newHealthHandler(cfg, store, db)
			if dbErr != nil {
				h.Optional("database", func(context.Context) error { return dbErr })
			}

			resp := h.Check(cmd.Context())
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(resp); err != nil {
				return err
			}
			if resp.Status == api.HealthFailed {
				return fmt.Errorf("health check %s", resp.Status)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&ov.apiKey, "api-key", "", "Gemini API key (default $GOOGLE_API_KEY)")
	return cmd
}
