// Package voiceover synthesizes per-scene narration with the configured TTS
// command, measures the real take lengths, and joins them into the single
// narration track the rest of the pipeline is timed against.
package voiceover

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"strings"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/media/ffprobe"
	"reelsmith/internal/services"
	"reelsmith/internal/stage"
)

type commandRunner func(ctx context.Context, name string, args ...string) error

type durationProbe func(ctx context.Context, path string) (float64, error)

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Synthesizer runs the per-scene audio stage. After synthesis it overwrites
// the scene's duration hint with the measured take length plus the crossfade
// compensation, so clip rendering and subtitle timing track real speech.
type Synthesizer struct {
	cfg    *config.Config
	logger *slog.Logger
	run    commandRunner
	probe  durationProbe
}

// NewSynthesizer constructs the audio stage executor.
func NewSynthesizer(cfg *config.Config, logger *slog.Logger) *Synthesizer {
	s := &Synthesizer{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "voiceover"),
		run:    defaultCommandRunner,
	}
	s.probe = func(ctx context.Context, path string) (float64, error) {
		return ffprobe.Duration(ctx, cfg.Tools.FFprobe, path)
	}
	return s
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Synthesizer) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.run = runner
}

// WithDurationProbe sets a custom media duration probe (for testing).
func (s *Synthesizer) WithDurationProbe(probe func(ctx context.Context, path string) (float64, error)) {
	s.probe = probe
}

// Prepare verifies the scene has narration text.
func (s *Synthesizer) Prepare(_ context.Context, task *stage.Task) error {
	scene, ok := task.Scene()
	if !ok {
		return services.Wrap(services.ErrSchema, stage.Audio, "prepare", fmt.Sprintf("unknown scene %q", task.SceneID), nil)
	}
	if strings.TrimSpace(scene.Text) == "" {
		return services.WrapScene(services.ErrSchema, stage.Audio, task.SceneID, "scene has no narration text", nil)
	}
	return nil
}

// Execute synthesizes the scene's narration take and writes the measured
// duration back into the working document.
func (s *Synthesizer) Execute(ctx context.Context, task *stage.Task) error {
	scene, _ := task.Scene()
	outPath := task.Build.SceneAudioPath(scene.ID)

	args := s.buildArgs(scene.Text, outPath)
	if err := s.run(ctx, s.cfg.TTS.Command, args...); err != nil {
		return services.WrapScene(services.ErrExternalTool, stage.Audio, scene.ID, "voice synthesis failed", err)
	}

	measured, err := s.probe(ctx, outPath)
	if err != nil {
		return services.WrapScene(services.ErrExternalTool, stage.Audio, scene.ID, "measure narration take", err)
	}

	duration := roundDuration(measured + s.cfg.Video.CrossfadeSeconds)
	for i := range task.Document.Scenes {
		if task.Document.Scenes[i].ID == scene.ID {
			task.Document.Scenes[i].Duration = duration
			break
		}
	}

	s.logger.Info("narration take synthesized",
		logging.String(logging.FieldScene, scene.ID),
		logging.Float64("measured_seconds", measured),
		logging.Float64("scene_duration", duration))
	return nil
}

func (s *Synthesizer) buildArgs(text, outPath string) []string {
	tts := s.cfg.TTS
	args := []string{
		"--text", text,
		"--output", outPath,
	}
	if tts.Model != "" {
		args = append(args, "--model", tts.Model)
	}
	if tts.Voice != "" {
		args = append(args, "--voice", tts.Voice)
	}
	return args
}

// roundDuration keeps scene durations at centisecond precision, matching the
// version snapshots on disk.
func roundDuration(v float64) float64 {
	return math.Round(v*100) / 100
}

// Joiner runs the audio-concat stage: it writes an ffmpeg concat list of the
// scene takes in document order and joins them losslessly.
type Joiner struct {
	cfg    *config.Config
	logger *slog.Logger
	run    commandRunner
}

// NewJoiner constructs the audio-concat stage executor.
func NewJoiner(cfg *config.Config, logger *slog.Logger) *Joiner {
	return &Joiner{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "voiceover"),
		run:    defaultCommandRunner,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (j *Joiner) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	j.run = runner
}

// Prepare verifies every scene take exists.
func (j *Joiner) Prepare(_ context.Context, task *stage.Task) error {
	for _, scene := range task.Document.Scenes {
		take := task.Build.SceneAudioPath(scene.ID)
		if _, err := os.Stat(take); err != nil {
			return services.Wrap(services.ErrStale, stage.AudioConcat, "prepare",
				fmt.Sprintf("missing narration take for scene %s", scene.ID), err)
		}
	}
	return nil
}

// Execute joins the scene takes into the narration track.
func (j *Joiner) Execute(ctx context.Context, task *stage.Task) error {
	listPath := task.Build.ConcatListPath()
	var b strings.Builder
	for _, scene := range task.Document.Scenes {
		fmt.Fprintf(&b, "file '%s'\n", task.Build.SceneAudioPath(scene.ID))
	}
	if err := os.WriteFile(listPath, []byte(b.String()), 0o644); err != nil {
		return services.Wrap(services.ErrStorage, stage.AudioConcat, "execute", "write concat list", err)
	}

	args := []string{
		"-y",
		"-f", "concat", "-safe", "0",
		"-i", listPath,
		"-c", "copy",
		task.Build.ConcatAudioPath(),
	}
	if err := j.run(ctx, j.cfg.Tools.FFmpeg, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, stage.AudioConcat, "execute", "join narration takes", err)
	}

	j.logger.Info("narration track joined",
		logging.Int("scenes", len(task.Document.Scenes)),
		logging.String("path", task.Build.ConcatAudioPath()))
	return nil
}
