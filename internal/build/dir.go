package build

import (
	"fmt"
	"os"
	"path/filepath"

	"reelsmith/internal/services"
)

// Dir resolves artifact paths under build/v<N> for a single version.
type Dir struct {
	root    string
	version int
}

// New returns the layout for a version rooted at the project build directory.
func New(buildRoot string, version int) Dir {
	return Dir{root: buildRoot, version: version}
}

// Version returns the version this layout belongs to.
func (d Dir) Version() int {
	return d.version
}

// Root returns the version's workspace directory.
func (d Dir) Root() string {
	return filepath.Join(d.root, fmt.Sprintf("v%d", d.version))
}

// ImagesDir holds one generated still per scene.
func (d Dir) ImagesDir() string {
	return filepath.Join(d.Root(), "images")
}

// ImagePath returns the still for a scene.
func (d Dir) ImagePath(sceneID string) string {
	return filepath.Join(d.ImagesDir(), sceneID+".png")
}

// AudioScenesDir holds one narration take per scene.
func (d Dir) AudioScenesDir() string {
	return filepath.Join(d.Root(), "audio", "scenes")
}

// SceneAudioPath returns the narration take for a scene.
func (d Dir) SceneAudioPath(sceneID string) string {
	return filepath.Join(d.AudioScenesDir(), sceneID+".wav")
}

// ConcatAudioPath is the full narration track, all scenes joined.
func (d Dir) ConcatAudioPath() string {
	return filepath.Join(d.Root(), "audio.wav")
}

// ConcatListPath is the ffmpeg concat demuxer list for the scene takes.
func (d Dir) ConcatListPath() string {
	return filepath.Join(d.Root(), "audio_list.txt")
}

// AlignInputDir is the corpus directory handed to the forced aligner.
func (d Dir) AlignInputDir() string {
	return filepath.Join(d.Root(), "align", "input")
}

// AlignOutputDir receives the aligner's word timing output.
func (d Dir) AlignOutputDir() string {
	return filepath.Join(d.Root(), "align", "output")
}

// AlignmentPath is the word-level timing JSON produced by alignment.
func (d Dir) AlignmentPath() string {
	return filepath.Join(d.AlignOutputDir(), "narration.json")
}

// SubtitlesDir holds the rendered subtitle script.
func (d Dir) SubtitlesDir() string {
	return filepath.Join(d.Root(), "subtitles")
}

// SubtitlePath is the karaoke-timed ASS script.
func (d Dir) SubtitlePath() string {
	return filepath.Join(d.SubtitlesDir(), "subtitles.ass")
}

// ClipsDir holds one motion clip per scene.
func (d Dir) ClipsDir() string {
	return filepath.Join(d.Root(), "clips")
}

// ClipPath returns the motion clip for a scene.
func (d Dir) ClipPath(sceneID string) string {
	return filepath.Join(d.ClipsDir(), sceneID+".mp4")
}

// SlideshowPath is the silent crossfaded video track.
func (d Dir) SlideshowPath() string {
	return filepath.Join(d.Root(), "slideshow.mp4")
}

// MuxedPath is the slideshow with the narration track attached.
func (d Dir) MuxedPath() string {
	return filepath.Join(d.Root(), "muxed.mp4")
}

// SubtitledPath is the muxed video with subtitles burned in, before the
// optional background music mix. Only produced when music is enabled.
func (d Dir) SubtitledPath() string {
	return filepath.Join(d.Root(), "subtitled.mp4")
}

// PatchPath is the feedback patch that produced this version, kept as an
// audit record of the revision. Only present for versions born from feedback.
func (d Dir) PatchPath() string {
	return filepath.Join(d.Root(), "video_patch.yaml")
}

// FinalPath is the finished video with subtitles burned in.
func (d Dir) FinalPath() string {
	return filepath.Join(d.Root(), "final.mp4")
}

// EnsureLayout creates every directory the stages write into.
func (d Dir) EnsureLayout() error {
	dirs := []string{
		d.Root(),
		d.ImagesDir(),
		d.AudioScenesDir(),
		d.AlignInputDir(),
		d.AlignOutputDir(),
		d.SubtitlesDir(),
		d.ClipsDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return services.Wrap(services.ErrStorage, "build", "ensure-layout", fmt.Sprintf("create %s", dir), err)
		}
	}
	return nil
}
