package build

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPathsAreScopedByVersion(t *testing.T) {
	root := "/project/build"
	v2 := New(root, 2)
	v3 := New(root, 3)

	if v2.Root() != filepath.Join(root, "v2") {
		t.Fatalf("Root = %q", v2.Root())
	}
	if v2.ImagePath("s1") == v3.ImagePath("s1") {
		t.Fatal("different versions share an image path")
	}
	if got := v2.SceneAudioPath("s4"); !strings.HasSuffix(got, filepath.Join("v2", "audio", "scenes", "s4.wav")) {
		t.Fatalf("SceneAudioPath = %q", got)
	}
	if got := v2.SubtitlePath(); !strings.HasSuffix(got, filepath.Join("subtitles", "subtitles.ass")) {
		t.Fatalf("SubtitlePath = %q", got)
	}
	if got := v2.ClipPath("s2"); !strings.HasSuffix(got, filepath.Join("v2", "clips", "s2.mp4")) {
		t.Fatalf("ClipPath = %q", got)
	}
}

func TestEnsureLayoutCreatesAllDirectories(t *testing.T) {
	dir := New(t.TempDir(), 1)
	if err := dir.EnsureLayout(); err != nil {
		t.Fatalf("EnsureLayout: %v", err)
	}
	for _, p := range []string{
		dir.ImagesDir(),
		dir.AudioScenesDir(),
		dir.AlignInputDir(),
		dir.AlignOutputDir(),
		dir.SubtitlesDir(),
		dir.ClipsDir(),
	} {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			t.Fatalf("missing directory %s: %v", p, err)
		}
	}

	// Second call on an existing layout is a no-op.
	if err := dir.EnsureLayout(); err != nil {
		t.Fatalf("EnsureLayout repeat: %v", err)
	}
}
