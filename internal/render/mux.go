package render

import (
	"context"
	"log/slog"
	"os"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/services"
	"reelsmith/internal/stage"
)

// Muxer runs the mux stage: the narration track is attached to the silent
// slideshow, trimmed to the shorter of the two.
type Muxer struct {
	cfg    *config.Config
	logger *slog.Logger
	run    commandRunner
}

// NewMuxer constructs the mux stage executor.
func NewMuxer(cfg *config.Config, logger *slog.Logger) *Muxer {
	return &Muxer{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "render"),
		run:    defaultCommandRunner,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (m *Muxer) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	m.run = runner
}

// Prepare verifies the slideshow and narration track exist.
func (m *Muxer) Prepare(_ context.Context, task *stage.Task) error {
	if _, err := os.Stat(task.Build.SlideshowPath()); err != nil {
		return services.Wrap(services.ErrStale, stage.Mux, "prepare", "slideshow missing", err)
	}
	if _, err := os.Stat(task.Build.ConcatAudioPath()); err != nil {
		return services.Wrap(services.ErrStale, stage.Mux, "prepare", "narration track missing", err)
	}
	return nil
}

// Execute muxes narration onto the slideshow.
func (m *Muxer) Execute(ctx context.Context, task *stage.Task) error {
	args := []string{
		"-y",
		"-i", task.Build.SlideshowPath(),
		"-i", task.Build.ConcatAudioPath(),
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		task.Build.MuxedPath(),
	}
	if err := m.run(ctx, m.cfg.Tools.FFmpeg, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, stage.Mux, "execute", "narration mux failed", err)
	}

	m.logger.Info("narration muxed", logging.String("path", task.Build.MuxedPath()))
	return nil
}
