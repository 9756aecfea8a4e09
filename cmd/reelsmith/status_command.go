package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"reelsmith/internal/logging"
	"reelsmith/internal/stage"
	"reelsmith/internal/state"
	"reelsmith/internal/versions"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var versionFlag int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show per-stage build progress for a version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			version := versionFlag
			if version <= 0 {
				vstore := versions.NewStore(cfg.Paths.VersionsDir, logging.NewNop())
				version, err = vstore.LatestVersion()
				if err != nil {
					return fmt.Errorf("no versions yet; run `reelsmith run` first: %w", err)
				}
			}

			store, err := state.Open(cfg.StatePath())
			if err != nil {
				return err
			}
			defer store.Close()

			units, err := store.UnitsForVersion(cmd.Context(), version)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(units) == 0 {
				fmt.Fprintf(out, "Version %d has no recorded stage units\n", version)
				return nil
			}

			sort.SliceStable(units, func(i, j int) bool {
				si, sj := stage.Index(units[i].Stage), stage.Index(units[j].Stage)
				if si != sj {
					return si < sj
				}
				return units[i].SceneID < units[j].SceneID
			})

			rows := make([][]string, 0, len(units))
			done := 0
			for _, u := range units {
				scene := u.SceneID
				if scene == "" {
					scene = "-"
				}
				if u.Status == state.StatusDone {
					done++
				}
				rows = append(rows, []string{
					u.Stage,
					scene,
					string(u.Status),
					fmt.Sprintf("%d", u.Attempts),
					u.ErrorMessage,
				})
			}

			fmt.Fprintf(out, "Version %d: %d/%d units done\n", version, done, len(units))
			fmt.Fprintln(out, renderTable(
				[]string{"Stage", "Scene", "Status", "Attempts", "Error"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&versionFlag, "version", "v", 0, "Version to inspect (default: latest)")
	return cmd
}
