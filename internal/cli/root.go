// Package cli implements listingctl, the operator tool for the listing
// service. It shares configuration with the server.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/casa-guarda/service-listing/internal/config"
	"github.com/casa-guarda/service-listing/internal/platform/logger"
)

const toolName = "listingctl"

// env is filled in before any subcommand runs.
type env struct {
	cfg *config.ServiceConfig
	log *zap.Logger
}

// NewRootCmd builds the listingctl command tree.
func NewRootCmd() *cobra.Command {
	e := &env{}

	cmd := &cobra.Command{
		Use:   toolName,
		Short: "Operator tasks for the listing service",
		Long: `listingctl runs one-off administrative tasks against the listing database.

It reads the same LISTING_* environment variables, .env file and config.yaml
as the server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			log, err := logger.NewNamed(cfg.AppEnv, toolName, cfg.LogLevel, logger.FileConfig{})
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			e.cfg, e.log = cfg, log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.log != nil {
				_ = e.log.Sync()
			}
		},
	}

	cmd.AddCommand(newMigrateCmd(e))
	cmd.AddCommand(newCreateUserCmd(e))

	return cmd
}
