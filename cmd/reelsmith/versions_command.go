package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelsmith/internal/logging"
	"reelsmith/internal/versions"
)

func newVersionsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List immutable document snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store := versions.NewStore(cfg.Paths.VersionsDir, logging.NewNop())

			nums, err := store.Versions()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(nums) == 0 {
				fmt.Fprintln(out, "No versions recorded yet")
				return nil
			}

			rows := make([][]string, 0, len(nums))
			for _, n := range nums {
				doc, err := store.Get(n)
				if err != nil {
					return err
				}
				rows = append(rows, []string{
					fmt.Sprintf("%d", n),
					doc.Global.Title,
					fmt.Sprintf("%d", len(doc.Scenes)),
					store.Path(n),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Version", "Title", "Scenes", "Snapshot"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
}
