package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/services"
	"reelsmith/internal/stage"
)

// ClipRenderer runs the clips stage: one constant-frame-rate motion clip per
// scene, animated from the scene's still image.
type ClipRenderer struct {
	cfg    *config.Config
	logger *slog.Logger
	run    commandRunner
}

// NewClipRenderer constructs the clips stage executor.
func NewClipRenderer(cfg *config.Config, logger *slog.Logger) *ClipRenderer {
	return &ClipRenderer{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "render"),
		run:    defaultCommandRunner,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (r *ClipRenderer) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	r.run = runner
}

// Prepare verifies the scene still exists and the duration is usable.
func (r *ClipRenderer) Prepare(_ context.Context, task *stage.Task) error {
	scene, ok := task.Scene()
	if !ok {
		return services.Wrap(services.ErrSchema, stage.Clips, "prepare", fmt.Sprintf("unknown scene %q", task.SceneID), nil)
	}
	if _, err := os.Stat(task.Build.ImagePath(scene.ID)); err != nil {
		return services.WrapScene(services.ErrStale, stage.Clips, scene.ID, "scene still missing", err)
	}
	if scene.Duration <= 0 {
		return services.WrapScene(services.ErrSchema, stage.Clips, scene.ID, "scene duration not set", nil)
	}
	return nil
}

// Execute renders the scene's motion clip.
func (r *ClipRenderer) Execute(ctx context.Context, task *stage.Task) error {
	scene, _ := task.Scene()
	video := r.cfg.Video
	filter := MotionFilter(scene.Visual.Motion, scene.Duration, video.Width, video.Height, video.FPS)

	args := []string{
		"-y",
		"-loop", "1",
		"-i", task.Build.ImagePath(scene.ID),
		"-t", formatSeconds(scene.Duration),
		"-vf", filter,
		"-r", strconv.Itoa(video.FPS),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		task.Build.ClipPath(scene.ID),
	}
	if err := r.run(ctx, r.cfg.Tools.FFmpeg, args...); err != nil {
		return services.WrapScene(services.ErrExternalTool, stage.Clips, scene.ID, "clip render failed", err)
	}

	r.logger.Info("scene clip rendered",
		logging.String(logging.FieldScene, scene.ID),
		logging.String("motion", string(scene.Visual.Motion)),
		logging.Float64("seconds", scene.Duration))
	return nil
}
