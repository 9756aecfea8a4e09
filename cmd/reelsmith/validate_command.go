package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelsmith/internal/spec"
)

func newValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the working document (video.yaml)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			doc, err := spec.Load(cfg.SpecPath())
			if err != nil {
				return err
			}
			if err := doc.Validate(); err != nil {
				return err
			}
			if err := doc.RequireRenderable(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: version %d, %d scenes\n",
				cfg.SpecPath(), doc.Version, len(doc.Scenes))
			return nil
		},
	}
}
