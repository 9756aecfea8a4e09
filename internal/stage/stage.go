// Package stage defines the contract between the pipeline orchestrator and
// the executors that produce build artifacts, plus the fixed stage ordering.
package stage

import (
	"context"

	"reelsmith/internal/build"
	"reelsmith/internal/spec"
)

// Granularity says whether a stage runs once per document or once per scene.
type Granularity string

const (
	PerDocument Granularity = "document"
	PerScene    Granularity = "scene"
)

// Stage names in execution order.
const (
	Image       = "image"
	Audio       = "audio"
	AudioConcat = "audio-concat"
	Align       = "align"
	Subtitles   = "subtitles"
	Clips       = "clips"
	Slideshow   = "slideshow"
	Mux         = "mux"
	Final       = "final"
)

// Descriptor describes one pipeline stage.
type Descriptor struct {
	Name        string
	Granularity Granularity
}

var pipeline = []Descriptor{
	{Name: Image, Granularity: PerScene},
	{Name: Audio, Granularity: PerScene},
	{Name: AudioConcat, Granularity: PerDocument},
	{Name: Align, Granularity: PerDocument},
	{Name: Subtitles, Granularity: PerDocument},
	{Name: Clips, Granularity: PerScene},
	{Name: Slideshow, Granularity: PerDocument},
	{Name: Mux, Granularity: PerDocument},
	{Name: Final, Granularity: PerDocument},
}

// Pipeline returns the ordered stage list.
func Pipeline() []Descriptor {
	out := make([]Descriptor, len(pipeline))
	copy(out, pipeline)
	return out
}

// Index returns a stage's position in the pipeline, or -1 for unknown names.
func Index(name string) int {
	for i, d := range pipeline {
		if d.Name == name {
			return i
		}
	}
	return -1
}

// Downstream returns the named stage and everything after it, in order.
func Downstream(name string) []string {
	idx := Index(name)
	if idx < 0 {
		return nil
	}
	names := make([]string, 0, len(pipeline)-idx)
	for _, d := range pipeline[idx:] {
		names = append(names, d.Name)
	}
	return names
}

// Task is one unit of stage work: the document snapshot being built, the
// version's workspace, and for per-scene stages the scene to operate on.
// Executors that measure real media properties (voiceover) write the measured
// values back into Document so later stages see them.
type Task struct {
	Document *spec.Document
	Build    build.Dir
	SceneID  string
}

// Scene resolves the task's scene from the document. Per-document tasks
// return false.
func (t *Task) Scene() (spec.Scene, bool) {
	if t.SceneID == "" {
		return spec.Scene{}, false
	}
	return t.Document.SceneByID(t.SceneID)
}

// Handler is the contract the orchestrator needs from each stage executor.
// Prepare validates inputs and preconditions without side effects on the
// build tree; Execute produces the artifact.
type Handler interface {
	Prepare(context.Context, *Task) error
	Execute(context.Context, *Task) error
}
