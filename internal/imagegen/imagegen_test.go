package imagegen

import (
	"context"
	"errors"
	"strings"
	"testing"

	"reelsmith/internal/build"
	"reelsmith/internal/logging"
	"reelsmith/internal/services"
	"reelsmith/internal/spec"
	"reelsmith/internal/stage"
	"reelsmith/internal/testsupport"
)

func testTask(t *testing.T, sceneID string) *stage.Task {
	t.Helper()
	doc := &spec.Document{
		Global:  spec.Global{AspectRatio: "9:16"},
		Version: 1,
		Scenes: []spec.Scene{
			{ID: "s1", Duration: 4, Text: "One.", Visual: spec.Visual{Type: "image", Prompt: "a red barn at dawn", Motion: spec.MotionSlowZoom}},
			{ID: "s2", Duration: 5, Text: "Two.", Visual: spec.Visual{Type: "image", Prompt: "wheat field in wind", Motion: spec.MotionPanLeft}},
		},
	}
	return &stage.Task{Document: doc, Build: build.New(t.TempDir(), 1), SceneID: sceneID}
}

func TestExecuteInvokesConfiguredCommand(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Images.Command = "imagegen-cli"
	cfg.Images.StyleSuffix = "artstation"
	cfg.Images.BaseSeed = 1337

	var gotName string
	var gotArgs []string
	svc := NewService(cfg, logging.NewNop())
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	})

	task := testTask(t, "s2")
	if err := svc.Prepare(context.Background(), task); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := svc.Execute(context.Background(), task); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if gotName != "imagegen-cli" {
		t.Fatalf("command = %q", gotName)
	}
	joined := strings.Join(gotArgs, " ")
	if !strings.Contains(joined, "wheat field in wind, artstation") {
		t.Fatalf("style suffix not appended: %q", joined)
	}
	if !strings.Contains(joined, "--seed 1338") {
		t.Fatalf("scene seed not derived from base: %q", joined)
	}
	if !strings.Contains(joined, task.Build.ImagePath("s2")) {
		t.Fatalf("output path missing: %q", joined)
	}
}

func TestSeedIsStableUnderRemoval(t *testing.T) {
	// s3 keeps its seed whether or not s2 still exists.
	if SeedFor(100, "s3") != SeedFor(100, "s3") || SeedFor(100, "s3") != 102 {
		t.Fatalf("SeedFor(100, s3) = %d", SeedFor(100, "s3"))
	}
	if SeedFor(100, "s1") != 100 {
		t.Fatalf("SeedFor(100, s1) = %d", SeedFor(100, "s1"))
	}
	if SeedFor(100, "intro") != 100 {
		t.Fatalf("SeedFor(100, intro) = %d, want base seed for unparsable id", SeedFor(100, "intro"))
	}
}

func TestExecuteWrapsCommandFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	svc := NewService(cfg, logging.NewNop())
	svc.WithCommandRunner(func(context.Context, string, ...string) error {
		return errors.New("cuda out of memory")
	})

	err := svc.Execute(context.Background(), testTask(t, "s1"))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if !strings.Contains(err.Error(), "s1") {
		t.Fatalf("failure does not name the scene: %v", err)
	}
}

func TestPrepareRejectsEmptyPrompt(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	svc := NewService(cfg, logging.NewNop())
	task := testTask(t, "s1")
	task.Document.Scenes[0].Visual.Prompt = "  "
	if err := svc.Prepare(context.Background(), task); !errors.Is(err, services.ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
}
