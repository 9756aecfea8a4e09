package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/services"
	"reelsmith/internal/stage"
)

// Finalizer runs the final stage: subtitles are burned into the muxed video,
// then background music is mixed under the narration when both the document
// toggle and the configuration enable it.
type Finalizer struct {
	cfg    *config.Config
	logger *slog.Logger
	run    commandRunner
}

// NewFinalizer constructs the final stage executor.
func NewFinalizer(cfg *config.Config, logger *slog.Logger) *Finalizer {
	return &Finalizer{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "render"),
		run:    defaultCommandRunner,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (f *Finalizer) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	f.run = runner
}

// bgmActive reports whether this build mixes background music: the document
// requests it, the config allows it, and a music file is configured.
func (f *Finalizer) bgmActive(task *stage.Task) bool {
	return task.Document.Global.BGM && f.cfg.BGM.Enabled && strings.TrimSpace(f.cfg.BGM.File) != ""
}

// Prepare verifies the muxed video and subtitle script exist, plus the music
// file when the mix is active.
func (f *Finalizer) Prepare(_ context.Context, task *stage.Task) error {
	if _, err := os.Stat(task.Build.MuxedPath()); err != nil {
		return services.Wrap(services.ErrStale, stage.Final, "prepare", "muxed video missing", err)
	}
	if _, err := os.Stat(task.Build.SubtitlePath()); err != nil {
		return services.Wrap(services.ErrStale, stage.Final, "prepare", "subtitle script missing", err)
	}
	if f.bgmActive(task) {
		if _, err := os.Stat(f.cfg.BGM.File); err != nil {
			return services.Wrap(services.ErrConfiguration, stage.Final, "prepare", "background music file missing", err)
		}
	}
	return nil
}

// Execute burns subtitles and finishes the video.
func (f *Finalizer) Execute(ctx context.Context, task *stage.Task) error {
	burnTarget := task.Build.FinalPath()
	withBGM := f.bgmActive(task)
	if withBGM {
		burnTarget = task.Build.SubtitledPath()
	}

	burnArgs := []string{
		"-y",
		"-i", task.Build.MuxedPath(),
		"-vf", "ass=" + task.Build.SubtitlePath(),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "copy",
		burnTarget,
	}
	if err := f.run(ctx, f.cfg.Tools.FFmpeg, burnArgs...); err != nil {
		return services.Wrap(services.ErrExternalTool, stage.Final, "execute", "subtitle burn-in failed", err)
	}

	if withBGM {
		graph := fmt.Sprintf("[0:a]volume=1[fg];[1:a]volume=%s[bg];[fg][bg]amix=inputs=2:duration=longest[aout]",
			formatSeconds(f.cfg.BGM.Volume))
		mixArgs := []string{
			"-y",
			"-i", task.Build.SubtitledPath(),
			"-i", f.cfg.BGM.File,
			"-filter_complex", graph,
			"-map", "0:v",
			"-map", "[aout]",
			"-c:v", "copy",
			"-c:a", "aac",
			task.Build.FinalPath(),
		}
		if err := f.run(ctx, f.cfg.Tools.FFmpeg, mixArgs...); err != nil {
			return services.Wrap(services.ErrExternalTool, stage.Final, "execute", "background music mix failed", err)
		}
	}

	f.logger.Info("final video composed",
		logging.Bool("bgm", withBGM),
		logging.String("path", task.Build.FinalPath()))
	return nil
}
