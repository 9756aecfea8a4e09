// Package align produces word-level narration timings by running a forced
// aligner over the joined narration track and the document transcript.
package align

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/services"
	"reelsmith/internal/stage"
)

type commandRunner func(ctx context.Context, name string, args ...string) error

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Runner executes the align stage: corpus preparation, resampling, and the
// aligner invocation.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
	run    commandRunner
}

// NewRunner constructs the align stage executor.
func NewRunner(cfg *config.Config, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "align"),
		run:    defaultCommandRunner,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (r *Runner) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	r.run = runner
}

// Prepare verifies the narration track exists and the document has a
// non-empty transcript.
func (r *Runner) Prepare(_ context.Context, task *stage.Task) error {
	if _, err := os.Stat(task.Build.ConcatAudioPath()); err != nil {
		return services.Wrap(services.ErrStale, stage.Align, "prepare", "narration track missing", err)
	}
	if task.Document.Transcript() == "" {
		return services.Wrap(services.ErrSchema, stage.Align, "prepare", "document transcript is empty", nil)
	}
	return nil
}

// Execute writes the aligner corpus (transcript plus a 16 kHz mono resample
// of the narration track), runs the aligner, and sanity-checks its output
// against the document before accepting it.
func (r *Runner) Execute(ctx context.Context, task *stage.Task) error {
	inDir := task.Build.AlignInputDir()
	transcript := task.Document.Transcript()
	if err := os.WriteFile(filepath.Join(inDir, "narration.txt"), []byte(transcript+"\n"), 0o644); err != nil {
		return services.Wrap(services.ErrStorage, stage.Align, "execute", "write transcript", err)
	}

	sampleRate := r.cfg.Align.SampleRate
	resampleArgs := []string{
		"-y",
		"-i", task.Build.ConcatAudioPath(),
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-c:a", "pcm_s16le",
		filepath.Join(inDir, "narration.wav"),
	}
	if err := r.run(ctx, r.cfg.Tools.FFmpeg, resampleArgs...); err != nil {
		return services.Wrap(services.ErrExternalTool, stage.Align, "execute", "resample narration", err)
	}

	alignArgs := []string{
		"align",
		inDir,
		r.cfg.Align.Dictionary,
		r.cfg.Align.AcousticModel,
		task.Build.AlignOutputDir(),
		"--clean",
		"--output_format", "json",
		"--single_speaker",
	}
	if err := r.run(ctx, r.cfg.Align.Binary, alignArgs...); err != nil {
		return services.Wrap(services.ErrExternalTool, stage.Align, "execute", "forced alignment failed", err)
	}

	data, err := os.ReadFile(task.Build.AlignmentPath())
	if err != nil {
		return services.Wrap(services.ErrExternalTool, stage.Align, "execute", "aligner produced no output json", err)
	}
	words, err := ParseAlignment(data)
	if err != nil {
		return err
	}
	if _, err := MapWordsToScenes(*task.Document, words); err != nil {
		return err
	}

	r.logger.Info("narration aligned",
		logging.Int("words", len(SpokenWords(words))),
		logging.String("path", task.Build.AlignmentPath()))
	return nil
}
