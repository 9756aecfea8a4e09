package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"
	"testing"

	"reelsmith/internal/build"
	"reelsmith/internal/logging"
	"reelsmith/internal/patch"
	"reelsmith/internal/scriptgen"
	"reelsmith/internal/spec"
	"reelsmith/internal/testsupport"
	"reelsmith/internal/versions"
)

type scriptedCompleter struct {
	response string
	err      error
}

func (s *scriptedCompleter) Complete(context.Context, string, string) (string, error) {
	return s.response, s.err
}

func TestFlowFirstRunAndIdempotentRerun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenState(t, cfg)
	vstore := versions.NewStore(cfg.Paths.VersionsDir, logging.NewNop())

	doc := threeSceneDocument()
	if err := spec.Save(doc, cfg.SpecPath()); err != nil {
		t.Fatalf("Save working doc: %v", err)
	}

	first := newToolTracker()
	flow := NewFlow(cfg, logging.NewNop(), vstore, nil, nil,
		newTestOrchestrator(t, cfg, store, first, nil))
	result, err := flow.Run(context.Background())
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if result.Version != 1 || !result.NewVersion {
		t.Fatalf("first run result = %+v", result)
	}
	if _, err := os.Stat(result.FinalPath); err != nil {
		t.Fatalf("final video missing: %v", err)
	}

	second := newToolTracker()
	flow = NewFlow(cfg, logging.NewNop(), vstore, nil, nil,
		newTestOrchestrator(t, cfg, store, second, nil))
	result, err = flow.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if result.Version != 1 || result.NewVersion {
		t.Fatalf("rerun result = %+v", result)
	}
	if second.total() != 0 {
		t.Fatalf("rerun invoked %d external commands, want 0", second.total())
	}
}

func TestFlowFeedbackBuildsNewVersionWithReuse(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenState(t, cfg)
	vstore := versions.NewStore(cfg.Paths.VersionsDir, logging.NewNop())

	if err := spec.Save(threeSceneDocument(), cfg.SpecPath()); err != nil {
		t.Fatalf("Save working doc: %v", err)
	}
	flow := NewFlow(cfg, logging.NewNop(), vstore, nil, nil,
		newTestOrchestrator(t, cfg, store, newToolTracker(), nil))
	if _, err := flow.Run(context.Background()); err != nil {
		t.Fatalf("build v1: %v", err)
	}

	testsupport.WriteText(t, cfg.FeedbackPath(), "make scene 2 punchier\n")
	patchYAML := "scenes:\n  s2:\n    text: \"Twice a day the whole ocean turns around.\"\n"
	patches := patch.NewEngine(&scriptedCompleter{response: patchYAML}, logging.NewNop())

	tracker := newToolTracker()
	flow = NewFlow(cfg, logging.NewNop(), vstore, nil, patches,
		newTestOrchestrator(t, cfg, store, tracker, nil))
	result, err := flow.Run(context.Background())
	if err != nil {
		t.Fatalf("feedback Run: %v", err)
	}
	if result.Version != 2 || !result.NewVersion {
		t.Fatalf("feedback result = %+v", result)
	}
	if result.Seeded != 7 {
		t.Fatalf("seeded = %d, want 7", result.Seeded)
	}
	if len(result.Summary.ChangedScenes) != 1 || result.Summary.ChangedScenes[0] != "s2" {
		t.Fatalf("summary = %+v", result.Summary)
	}

	if n := tracker.count(cfg.Images.Command); n != 0 {
		t.Fatalf("image generator ran %d times, want 0", n)
	}
	if n := tracker.count(cfg.TTS.Command); n != 1 {
		t.Fatalf("voice synth ran %d times, want 1", n)
	}

	// Feedback is consumed, and the working doc carries the revision.
	if _, err := os.Stat(cfg.FeedbackPath()); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("feedback not cleared: %v", err)
	}
	working, err := spec.Load(cfg.SpecPath())
	if err != nil {
		t.Fatalf("Load working doc: %v", err)
	}
	if working.Version != 2 || !strings.Contains(working.Scenes[1].Text, "whole ocean") {
		t.Fatalf("working doc = v%d %q", working.Version, working.Scenes[1].Text)
	}

	// Both snapshots remain readable.
	got, err := vstore.Versions()
	if err != nil || len(got) != 2 {
		t.Fatalf("versions = %v, err %v", got, err)
	}

	// The applied patch is kept under the new version's build tree.
	patchData, err := os.ReadFile(build.New(cfg.Paths.BuildDir, 2).PatchPath())
	if err != nil {
		t.Fatalf("patch record missing: %v", err)
	}
	recorded, err := patch.Parse(patchData)
	if err != nil {
		t.Fatalf("patch record unreadable: %v", err)
	}
	edit, ok := recorded.Scenes["s2"]
	if !ok || edit.Text == nil || !strings.Contains(*edit.Text, "whole ocean") {
		t.Fatalf("patch record = %+v", recorded)
	}
}

func TestFlowBootstrapsFromIdea(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenState(t, cfg)
	vstore := versions.NewStore(cfg.Paths.VersionsDir, logging.NewNop())
	testsupport.WriteText(t, cfg.IdeaPath(), "why tides happen\n")

	scriptYAML := "global:\n  title: 'Tides'\n  aspect_ratio: '9:16'\nversion: 1\nscenes:\n" +
		"  - id: s1\n    duration: 4\n    text: 'The moon pulls the ocean.'\n    visual:\n      type: image\n      prompt: 'moon over sea'\n      motion: slow_zoom\n" +
		"  - id: s2\n    duration: 5\n    text: 'Twice a day the tide turns.'\n    visual:\n      type: image\n      prompt: 'tide chart'\n      motion: pan_left\n"
	scripts := scriptgen.NewGenerator(&scriptedCompleter{response: scriptYAML}, logging.NewNop())

	flow := NewFlow(cfg, logging.NewNop(), vstore, scripts, nil,
		newTestOrchestrator(t, cfg, store, newToolTracker(), nil))
	result, err := flow.Run(context.Background())
	if err != nil {
		t.Fatalf("bootstrap Run: %v", err)
	}
	if result.Version != 1 {
		t.Fatalf("version = %d, want 1", result.Version)
	}
	if _, err := os.Stat(cfg.SpecPath()); err != nil {
		t.Fatalf("working doc not written: %v", err)
	}
	if _, err := os.Stat(result.FinalPath); err != nil {
		t.Fatalf("final video missing: %v", err)
	}
}

func TestFlowRequiresDocumentOrIdea(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenState(t, cfg)
	vstore := versions.NewStore(cfg.Paths.VersionsDir, logging.NewNop())
	flow := NewFlow(cfg, logging.NewNop(), vstore, nil, nil,
		newTestOrchestrator(t, cfg, store, newToolTracker(), nil))
	if _, err := flow.Run(context.Background()); err == nil {
		t.Fatal("expected error with no document and no idea")
	}
}
