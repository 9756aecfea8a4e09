package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"reelsmith/internal/align"
	"reelsmith/internal/build"
	"reelsmith/internal/config"
	"reelsmith/internal/imagegen"
	"reelsmith/internal/logging"
	"reelsmith/internal/render"
	"reelsmith/internal/services"
	"reelsmith/internal/spec"
	"reelsmith/internal/stage"
	"reelsmith/internal/state"
	"reelsmith/internal/subtitles"
	"reelsmith/internal/testsupport"
	"reelsmith/internal/voiceover"
)

// toolTracker records every external command the stub runner sees.
type toolTracker struct {
	mu     sync.Mutex
	counts map[string]int
}

func newToolTracker() *toolTracker {
	return &toolTracker{counts: make(map[string]int)}
}

func (tr *toolTracker) record(name string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.counts[name]++
}

func (tr *toolTracker) count(name string) int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.counts[name]
}

func (tr *toolTracker) total() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	sum := 0
	for _, n := range tr.counts {
		sum += n
	}
	return sum
}

// stubTools fakes every external binary: generated files appear where the
// real tool would put them, and the aligner emits timings derived from the
// transcript it was handed.
func stubTools(t *testing.T, cfg *config.Config, tracker *toolTracker, failWhen func(name string, args []string) error) func(ctx context.Context, name string, args ...string) error {
	t.Helper()
	return func(_ context.Context, name string, args ...string) error {
		tracker.record(name)
		if failWhen != nil {
			if err := failWhen(name, args); err != nil {
				return err
			}
		}
		switch name {
		case cfg.Images.Command, cfg.TTS.Command:
			return touch(flagValue(args, "--output"))
		case cfg.Align.Binary:
			return writeFakeAlignment(args[1], args[4])
		case cfg.Tools.FFmpeg:
			return touch(args[len(args)-1])
		}
		return nil
	}
}

func flagValue(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func touch(path string) error {
	if path == "" {
		return errors.New("stub tool: no output path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("stub"), 0o644)
}

// writeFakeAlignment reads the corpus transcript and emits one word entry per
// transcript word, 0.3s apart.
func writeFakeAlignment(inDir, outDir string) error {
	data, err := os.ReadFile(filepath.Join(inDir, "narration.txt"))
	if err != nil {
		return err
	}
	entries := make([][]any, 0)
	for i, word := range strings.Fields(string(data)) {
		start := float64(i) * 0.3
		entries = append(entries, []any{start, start + 0.25, word})
	}
	payload := map[string]any{
		"tiers": map[string]any{
			"words": map[string]any{"entries": entries},
		},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outDir, "narration.json"), encoded, 0o644)
}

// newTestOrchestrator wires real stage executors over stubbed external tools.
func newTestOrchestrator(t *testing.T, cfg *config.Config, store *state.Store, tracker *toolTracker, failWhen func(name string, args []string) error) *Orchestrator {
	t.Helper()
	run := stubTools(t, cfg, tracker, failWhen)
	probe := func(context.Context, string) (float64, error) { return 2.0, nil }

	images := imagegen.NewService(cfg, logging.NewNop())
	images.WithCommandRunner(run)
	synth := voiceover.NewSynthesizer(cfg, logging.NewNop())
	synth.WithCommandRunner(run)
	synth.WithDurationProbe(probe)
	joiner := voiceover.NewJoiner(cfg, logging.NewNop())
	joiner.WithCommandRunner(run)
	aligner := align.NewRunner(cfg, logging.NewNop())
	aligner.WithCommandRunner(run)
	clips := render.NewClipRenderer(cfg, logging.NewNop())
	clips.WithCommandRunner(run)
	slideshow := render.NewSlideshowBuilder(cfg, logging.NewNop())
	slideshow.WithCommandRunner(run)
	muxer := render.NewMuxer(cfg, logging.NewNop())
	muxer.WithCommandRunner(run)
	finalizer := render.NewFinalizer(cfg, logging.NewNop())
	finalizer.WithCommandRunner(run)

	handlers := Handlers{
		stage.Image:       images,
		stage.Audio:       synth,
		stage.AudioConcat: joiner,
		stage.Align:       aligner,
		stage.Subtitles:   subtitles.NewGenerator(cfg, logging.NewNop()),
		stage.Clips:       clips,
		stage.Slideshow:   slideshow,
		stage.Mux:         muxer,
		stage.Final:       finalizer,
	}

	orch := NewOrchestrator(cfg, logging.NewNop(), store, handlers)
	orch.WithDurationProbe(probe)
	return orch
}

func buildDirForTest(cfg *config.Config, version int) build.Dir {
	return build.New(cfg.Paths.BuildDir, version)
}

func threeSceneDocument() spec.Document {
	return spec.Document{
		Version: 1,
		Global:  spec.Global{Title: "Tidal Forces", AspectRatio: "9:16"},
		Scenes: []spec.Scene{
			{ID: "s1", Duration: 4, Text: "The moon pulls the ocean.", Visual: spec.Visual{Type: "image", Prompt: "moon over sea", Motion: spec.MotionSlowZoom}},
			{ID: "s2", Duration: 5, Text: "Twice a day the tide turns.", Visual: spec.Visual{Type: "image", Prompt: "tide chart", Motion: spec.MotionPanLeft}},
			{ID: "s3", Duration: 3, Text: "Coastlines breathe with it.", Visual: spec.Visual{Type: "image", Prompt: "rocky coast", Motion: spec.MotionStatic}},
		},
	}
}

func TestOrchestratorBuildsEveryArtifact(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSceneWorkers(2))
	store := testsupport.MustOpenState(t, cfg)
	tracker := newToolTracker()
	orch := newTestOrchestrator(t, cfg, store, tracker, nil)

	doc := threeSceneDocument()
	if err := orch.Run(context.Background(), &doc, 1); err != nil {
		t.Fatalf("Run: %v", err)
	}

	dir := buildDirForTest(cfg, 1)
	artifacts := []string{
		dir.ImagePath("s1"), dir.ImagePath("s2"), dir.ImagePath("s3"),
		dir.SceneAudioPath("s1"), dir.SceneAudioPath("s2"), dir.SceneAudioPath("s3"),
		dir.ConcatAudioPath(), dir.AlignmentPath(), dir.SubtitlePath(),
		dir.ClipPath("s1"), dir.ClipPath("s2"), dir.ClipPath("s3"),
		dir.SlideshowPath(), dir.MuxedPath(), dir.FinalPath(),
	}
	for _, path := range artifacts {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("missing artifact %s: %v", path, err)
		}
	}

	want := roundDuration(2.0 + cfg.Video.CrossfadeSeconds)
	for _, scene := range doc.Scenes {
		if scene.Duration != want {
			t.Fatalf("scene %s duration = %v, want %v", scene.ID, scene.Duration, want)
		}
	}

	summary, err := store.Summary(context.Background(), 1)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary[state.StatusDone] != 15 {
		t.Fatalf("done units = %d, want 15 (%v)", summary[state.StatusDone], summary)
	}
}

func TestOrchestratorRerunIsNoWork(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenState(t, cfg)
	doc := threeSceneDocument()

	first := newToolTracker()
	if err := newTestOrchestrator(t, cfg, store, first, nil).Run(context.Background(), &doc, 1); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	second := newToolTracker()
	if err := newTestOrchestrator(t, cfg, store, second, nil).Run(context.Background(), &doc, 1); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.total() != 0 {
		t.Fatalf("rerun invoked %d external commands, want 0", second.total())
	}
}

func TestSeedReuseCarriesUntouchedScenes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenState(t, cfg)
	doc := threeSceneDocument()

	if err := newTestOrchestrator(t, cfg, store, newToolTracker(), nil).Run(context.Background(), &doc, 1); err != nil {
		t.Fatalf("build v1: %v", err)
	}

	next := doc.Clone()
	next.Version = 2
	next.Scenes[1].Text = "The tide turns four times, actually twice."

	orch := newTestOrchestrator(t, cfg, store, newToolTracker(), nil)
	seeded, err := orch.SeedReuse(context.Background(), doc, 1, next, 2)
	if err != nil {
		t.Fatalf("SeedReuse: %v", err)
	}
	// Images for all three scenes, audio and clips only for s1 and s3.
	if seeded != 7 {
		t.Fatalf("seeded = %d, want 7", seeded)
	}

	tracker := newToolTracker()
	if err := newTestOrchestrator(t, cfg, store, tracker, nil).Run(context.Background(), &next, 2); err != nil {
		t.Fatalf("build v2: %v", err)
	}

	if n := tracker.count(cfg.Images.Command); n != 0 {
		t.Fatalf("image generator ran %d times, want 0", n)
	}
	if n := tracker.count(cfg.TTS.Command); n != 1 {
		t.Fatalf("voice synth ran %d times, want 1", n)
	}
	if n := tracker.count(cfg.Align.Binary); n != 1 {
		t.Fatalf("aligner ran %d times, want 1", n)
	}
	// join + resample + one clip + slideshow + mux + burn
	if n := tracker.count(cfg.Tools.FFmpeg); n != 6 {
		t.Fatalf("ffmpeg ran %d times, want 6", n)
	}

	dir := buildDirForTest(cfg, 2)
	for _, path := range []string{dir.ImagePath("s1"), dir.SceneAudioPath("s3"), dir.ClipPath("s1")} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("reused artifact missing: %s", path)
		}
	}
}

func TestOrchestratorHaltsAfterSceneFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSceneWorkers(3))
	store := testsupport.MustOpenState(t, cfg)
	tracker := newToolTracker()

	failWhen := func(name string, args []string) error {
		if name != cfg.Images.Command {
			return nil
		}
		if out := flagValue(args, "--output"); strings.HasSuffix(out, "s2.png") {
			return errors.New("sampler crashed")
		}
		return nil
	}
	orch := newTestOrchestrator(t, cfg, store, tracker, failWhen)

	doc := threeSceneDocument()
	err := orch.Run(context.Background(), &doc, 1)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if !strings.Contains(err.Error(), stage.Image) || !strings.Contains(err.Error(), "s2") {
		t.Fatalf("failure should name the stage and scene: %v", err)
	}

	// No later stage started.
	if n := tracker.count(cfg.TTS.Command); n != 0 {
		t.Fatalf("voice synth ran %d times after image failure, want 0", n)
	}

	// Siblings finished and stayed done; the failed unit holds its message.
	ctx := context.Background()
	for _, id := range []string{"s1", "s3"} {
		done, err := store.IsDone(ctx, state.Key{Version: 1, Stage: stage.Image, SceneID: id})
		if err != nil || !done {
			t.Fatalf("sibling %s: done=%v err=%v", id, done, err)
		}
	}
	unit, err := store.Get(ctx, state.Key{Version: 1, Stage: stage.Image, SceneID: "s2"})
	if err != nil || unit == nil {
		t.Fatalf("Get failed unit: %v", err)
	}
	if unit.Status != state.StatusFailed || !strings.Contains(unit.ErrorMessage, "sampler crashed") {
		t.Fatalf("failed unit = %+v", unit)
	}

	// A retry picks the failed unit back up and completes the version.
	retry := newTestOrchestrator(t, cfg, store, newToolTracker(), nil)
	if err := retry.Run(context.Background(), &doc, 1); err != nil {
		t.Fatalf("retry Run: %v", err)
	}
}

func TestOrchestratorRejectsMissingHandler(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenState(t, cfg)
	orch := NewOrchestrator(cfg, logging.NewNop(), store, Handlers{})
	doc := threeSceneDocument()
	if err := orch.Run(context.Background(), &doc, 1); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
