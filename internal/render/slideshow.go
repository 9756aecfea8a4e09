package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/services"
	"reelsmith/internal/stage"
)

// SlideshowBuilder runs the slideshow stage: the scene clips are chained with
// fade transitions into one silent video track.
type SlideshowBuilder struct {
	cfg    *config.Config
	logger *slog.Logger
	run    commandRunner
}

// NewSlideshowBuilder constructs the slideshow stage executor.
func NewSlideshowBuilder(cfg *config.Config, logger *slog.Logger) *SlideshowBuilder {
	return &SlideshowBuilder{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "render"),
		run:    defaultCommandRunner,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (b *SlideshowBuilder) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	b.run = runner
}

// Prepare verifies every scene clip exists.
func (b *SlideshowBuilder) Prepare(_ context.Context, task *stage.Task) error {
	if len(task.Document.Scenes) == 0 {
		return services.Wrap(services.ErrSchema, stage.Slideshow, "prepare", "document has no scenes", nil)
	}
	for _, scene := range task.Document.Scenes {
		if _, err := os.Stat(task.Build.ClipPath(scene.ID)); err != nil {
			return services.Wrap(services.ErrStale, stage.Slideshow, "prepare",
				fmt.Sprintf("missing clip for scene %s", scene.ID), err)
		}
	}
	return nil
}

// Execute crossfades the clips into the slideshow track.
func (b *SlideshowBuilder) Execute(ctx context.Context, task *stage.Task) error {
	scenes := task.Document.Scenes
	out := task.Build.SlideshowPath()

	if len(scenes) == 1 {
		args := []string{"-y", "-i", task.Build.ClipPath(scenes[0].ID), "-c:v", "copy", out}
		if err := b.run(ctx, b.cfg.Tools.FFmpeg, args...); err != nil {
			return services.Wrap(services.ErrExternalTool, stage.Slideshow, "execute", "copy single clip", err)
		}
		return nil
	}

	args := []string{"-y"}
	durations := make([]float64, 0, len(scenes))
	for _, scene := range scenes {
		args = append(args, "-i", task.Build.ClipPath(scene.ID))
		durations = append(durations, scene.Duration)
	}

	args = append(args,
		"-filter_complex", b.xfadeGraph(durations),
		"-map", "[vout]",
		"-r", strconv.Itoa(b.cfg.Video.FPS),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		out,
	)
	if err := b.run(ctx, b.cfg.Tools.FFmpeg, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, stage.Slideshow, "execute", "crossfade chain failed", err)
	}

	b.logger.Info("slideshow composed",
		logging.Int("clips", len(scenes)),
		logging.String("path", out))
	return nil
}

// xfadeGraph chains n clips through n-1 fade transitions with running
// offsets, then locks frame rate and pixel format on the output.
func (b *SlideshowBuilder) xfadeGraph(durations []float64) string {
	crossfade := b.cfg.Video.CrossfadeSeconds
	offsets := xfadeOffsets(durations, crossfade)

	var parts []string
	parts = append(parts, fmt.Sprintf("[0:v][1:v]xfade=transition=fade:duration=%s:offset=%s[v1]",
		formatSeconds(crossfade), formatSeconds(offsets[0])))

	current := "v1"
	for i := 2; i < len(durations); i++ {
		next := fmt.Sprintf("v%d", i)
		parts = append(parts, fmt.Sprintf("[%s][%d:v]xfade=transition=fade:duration=%s:offset=%s[%s]",
			current, i, formatSeconds(crossfade), formatSeconds(offsets[i-1]), next))
		current = next
	}

	parts = append(parts, fmt.Sprintf("[%s]fps=%d,format=yuv420p[vout]", current, b.cfg.Video.FPS))
	return strings.Join(parts, ";")
}
