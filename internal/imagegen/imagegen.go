// Package imagegen renders one still image per scene by invoking the
// configured image-generation command.
package imagegen

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/services"
	"reelsmith/internal/spec"
	"reelsmith/internal/stage"
)

type commandRunner func(ctx context.Context, name string, args ...string) error

// Service generates scene stills. It implements stage.Handler for the image
// stage with per-scene granularity.
type Service struct {
	cfg      *config.Config
	logger   *slog.Logger
	baseSeed int64
	run      commandRunner
}

// NewService constructs the image stage executor. With randomize_seed set,
// the base seed shifts by the current unix time so reruns produce fresh
// imagery; otherwise output is reproducible per scene.
func NewService(cfg *config.Config, logger *slog.Logger) *Service {
	baseSeed := cfg.Images.BaseSeed
	if cfg.Images.RandomizeSeed {
		baseSeed += time.Now().Unix()
	}
	return &Service{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "imagegen"),
		baseSeed: baseSeed,
		run:      defaultCommandRunner,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.run = runner
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// SeedFor derives the deterministic per-scene seed. It keys off the scene
// number parsed from the id rather than slice position, so removing a scene
// never reseeds its survivors. Ids reaching the image stage are already
// schema-validated; anything unparsable falls back to the base seed.
func SeedFor(base int64, sceneID string) int64 {
	n, err := spec.SceneNumber(sceneID)
	if err != nil {
		return base
	}
	return base + int64(n) - 1
}

// Prepare verifies the scene has a usable prompt.
func (s *Service) Prepare(_ context.Context, task *stage.Task) error {
	scene, ok := task.Scene()
	if !ok {
		return services.Wrap(services.ErrSchema, stage.Image, "prepare", fmt.Sprintf("unknown scene %q", task.SceneID), nil)
	}
	if strings.TrimSpace(scene.Visual.Prompt) == "" {
		return services.WrapScene(services.ErrSchema, stage.Image, task.SceneID, "scene has no image prompt", nil)
	}
	return nil
}

// Execute invokes the image command for the task's scene.
func (s *Service) Execute(ctx context.Context, task *stage.Task) error {
	scene, _ := task.Scene()
	outPath := task.Build.ImagePath(scene.ID)
	prompt := s.effectivePrompt(scene.Visual.Prompt)
	seed := SeedFor(s.baseSeed, scene.ID)

	args := s.buildArgs(prompt, outPath, seed)
	s.logger.Info("generating scene image",
		logging.String(logging.FieldScene, scene.ID),
		logging.Int64("seed", seed),
		logging.String("path", outPath))

	if err := s.run(ctx, s.cfg.Images.Command, args...); err != nil {
		return services.WrapScene(services.ErrExternalTool, stage.Image, scene.ID, "image generation failed", err)
	}
	return nil
}

// effectivePrompt appends the configured style suffix, if any.
func (s *Service) effectivePrompt(prompt string) string {
	suffix := strings.TrimSpace(s.cfg.Images.StyleSuffix)
	if suffix == "" {
		return prompt
	}
	return prompt + ", " + suffix
}

func (s *Service) buildArgs(prompt, outPath string, seed int64) []string {
	img := s.cfg.Images
	args := []string{
		"--prompt", prompt,
		"--output", outPath,
		"--width", strconv.Itoa(img.Width),
		"--height", strconv.Itoa(img.Height),
		"--steps", strconv.Itoa(img.Steps),
		"--guidance", strconv.FormatFloat(img.Guidance, 'f', -1, 64),
		"--seed", strconv.FormatInt(seed, 10),
	}
	if img.Model != "" {
		args = append(args, "--model", img.Model)
	}
	return args
}
