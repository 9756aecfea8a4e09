package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"reelsmith/internal/deps"
	"reelsmith/internal/patch"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/scriptgen"
	"reelsmith/internal/services/llm"
	"reelsmith/internal/state"
	"reelsmith/internal/versions"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Build the video for the current document, reusing prior work",
		Long: "Run executes the full pipeline: it generates the document from idea.txt " +
			"when none exists, folds feedback.txt into a new version, and builds every " +
			"stage that is not already done for that version.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			lock := flock.New(cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire project lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another run is already active for this project (lock %s)", cfg.LockPath())
			}
			defer func() {
				_ = lock.Unlock()
			}()

			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return fmt.Errorf("missing required tools: %s (run `reelsmith deps` for details)", strings.Join(missing, ", "))
			}

			store, err := state.Open(cfg.StatePath())
			if err != nil {
				return err
			}
			defer store.Close()

			vstore := versions.NewStore(cfg.Paths.VersionsDir, logger)

			var scripts *scriptgen.Generator
			var patches *patch.Engine
			if strings.TrimSpace(cfg.LLM.APIKey) != "" {
				client := llm.NewClient(llm.Config{
					APIKey:         cfg.LLM.APIKey,
					BaseURL:        cfg.LLM.BaseURL,
					Model:          cfg.LLM.Model,
					TimeoutSeconds: cfg.LLM.TimeoutSeconds,
					Temperature:    cfg.LLM.Temperature,
				})
				scripts = scriptgen.NewGenerator(client, logger)
				patches = patch.NewEngine(client, logger)
			}

			orch := pipeline.NewOrchestrator(cfg, logger, store, pipeline.DefaultHandlers(cfg, logger))
			flow := pipeline.NewFlow(cfg, logger, vstore, scripts, patches, orch)

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			result, err := flow.Run(runCtx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result.NewVersion {
				fmt.Fprintf(out, "Snapshotted version %d\n", result.Version)
			} else {
				fmt.Fprintf(out, "Document unchanged; resumed version %d\n", result.Version)
			}
			if result.Seeded > 0 {
				fmt.Fprintf(out, "Reused %d artifacts from the previous version\n", result.Seeded)
			}
			fmt.Fprintf(out, "Final video: %s\n", result.FinalPath)
			return nil
		},
	}
}
