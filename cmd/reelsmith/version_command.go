package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"reelsmith/internal/logging"
	"reelsmith/internal/services"
	"reelsmith/internal/versions"
)

func newVersionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the latest document version number",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store := versions.NewStore(cfg.Paths.VersionsDir, logging.NewNop())
			latest, err := store.LatestVersion()
			if errors.Is(err, services.ErrNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "No versions recorded yet")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), latest)
			return nil
		},
	}
}
