package state

import (
	"context"
	"testing"

	"reelsmith/internal/spec"
)

func twoSceneDoc(version int) spec.Document {
	return spec.Document{
		Global:  spec.Global{AspectRatio: "9:16"},
		Version: version,
		Scenes: []spec.Scene{
			{ID: "s1", Duration: 4, Text: "First.", Visual: spec.Visual{Type: "image", Prompt: "a lighthouse", Motion: spec.MotionSlowZoom}},
			{ID: "s2", Duration: 5, Text: "Second.", Visual: spec.Visual{Type: "image", Prompt: "rough sea", Motion: spec.MotionPanLeft}},
		},
	}
}

func TestStaleScenesNarrationEditDirtiesAudioOnly(t *testing.T) {
	old := twoSceneDoc(1)
	next := twoSceneDoc(2)
	next.Scenes[1].Text = "Second, reworded."

	changes := StaleScenes(old, next)
	if changes.Audio["s1"] || changes.Image["s1"] || changes.Clip["s1"] {
		t.Fatalf("untouched scene dirtied: %+v", changes)
	}
	if !changes.Audio["s2"] {
		t.Fatal("narration edit must dirty the scene's audio")
	}
	if changes.Image["s2"] {
		t.Fatal("narration edit must not dirty the scene's image")
	}
	if !changes.Clip["s2"] {
		t.Fatal("stale audio must dirty the scene's clip")
	}
}

func TestStaleScenesPromptAndMotion(t *testing.T) {
	old := twoSceneDoc(1)
	next := twoSceneDoc(2)
	next.Scenes[0].Visual.Prompt = "a lighthouse, storm clouds"
	next.Scenes[1].Visual.Motion = spec.MotionStatic

	changes := StaleScenes(old, next)
	if !changes.Image["s1"] || !changes.Clip["s1"] {
		t.Fatalf("prompt change not propagated: %+v", changes)
	}
	if changes.Audio["s1"] {
		t.Fatal("prompt change must not dirty audio")
	}
	if changes.Image["s2"] || changes.Audio["s2"] {
		t.Fatalf("motion change dirtied image or audio: %+v", changes)
	}
	if !changes.Clip["s2"] {
		t.Fatal("motion change must dirty the clip")
	}
}

func TestStaleScenesNewSceneDirtiesEverything(t *testing.T) {
	old := twoSceneDoc(1)
	next := twoSceneDoc(2)
	next.Scenes = append(next.Scenes, spec.Scene{
		ID: "s3", Duration: 3, Text: "Third.", Visual: spec.Visual{Type: "image", Prompt: "calm harbor", Motion: spec.MotionStatic},
	})

	changes := StaleScenes(old, next)
	if !changes.Image["s3"] || !changes.Audio["s3"] || !changes.Clip["s3"] {
		t.Fatalf("new scene not fully dirty: %+v", changes)
	}
}

func TestInvalidateDownstream(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()

	audio, _ := store.EnsureUnit(ctx, Key{Version: 1, Stage: "audio", SceneID: "s1"})
	image, _ := store.EnsureUnit(ctx, Key{Version: 1, Stage: "image", SceneID: "s1"})
	if err := store.MarkDone(ctx, audio.ID, "s1.wav"); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}
	if err := store.MarkDone(ctx, image.ID, "s1.png"); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}

	n, err := store.InvalidateDownstream(ctx, 1, []string{"audio", "align"})
	if err != nil {
		t.Fatalf("InvalidateDownstream: %v", err)
	}
	if n != 1 {
		t.Fatalf("invalidated %d units, want 1", n)
	}

	done, err := store.IsDone(ctx, Key{Version: 1, Stage: "audio", SceneID: "s1"})
	if err != nil || done {
		t.Fatalf("audio unit still done after invalidation (err %v)", err)
	}
	done, err = store.IsDone(ctx, Key{Version: 1, Stage: "image", SceneID: "s1"})
	if err != nil || !done {
		t.Fatalf("image unit lost (err %v)", err)
	}
}
