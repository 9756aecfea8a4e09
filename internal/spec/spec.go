package spec

import (
	"fmt"
	"strconv"
	"strings"
)

// Motion identifies the camera move applied to a scene's still image.
type Motion string

const (
	MotionSlowZoom Motion = "slow_zoom"
	MotionPanLeft  Motion = "pan_left"
	MotionPanRight Motion = "pan_right"
	MotionStatic   Motion = "static"
)

// Transition identifies how a scene hands over to the next one.
type Transition string

const (
	TransitionCrossfade Transition = "crossfade"
	TransitionCut       Transition = "cut"
)

// DefaultMotion is applied when a scene does not specify one.
const DefaultMotion = MotionSlowZoom

// KnownMotions lists the accepted motion values.
func KnownMotions() []Motion {
	return []Motion{MotionSlowZoom, MotionPanLeft, MotionPanRight, MotionStatic}
}

// ValidMotion reports whether the motion value is accepted.
func ValidMotion(m Motion) bool {
	switch m {
	case MotionSlowZoom, MotionPanLeft, MotionPanRight, MotionStatic:
		return true
	default:
		return false
	}
}

// ValidTransition reports whether the transition value is accepted. Empty
// means the document-level default (crossfade).
func ValidTransition(t Transition) bool {
	switch t {
	case "", TransitionCrossfade, TransitionCut:
		return true
	default:
		return false
	}
}

// Visual carries the image-generation parameters of one scene.
type Visual struct {
	Type   string `yaml:"type,omitempty"`
	Prompt string `yaml:"prompt"`
	Motion Motion `yaml:"motion,omitempty"`
}

// Scene is one ordered unit of the video. The id defines render order and is
// the address every per-scene build artifact is keyed by.
type Scene struct {
	ID         string     `yaml:"id"`
	Duration   float64    `yaml:"duration,omitempty"`
	Text       string     `yaml:"text"`
	Transition Transition `yaml:"transition,omitempty"`
	Visual     Visual     `yaml:"visual"`
}

// Global carries document-level settings.
type Global struct {
	AspectRatio string `yaml:"aspect_ratio"`
	Title       string `yaml:"title,omitempty"`
	Description string `yaml:"description,omitempty"`
	Voice       string `yaml:"voice,omitempty"`
	ImageModel  string `yaml:"image_model,omitempty"`
	BGM         bool   `yaml:"bgm,omitempty"`
}

// Document is the versioned declarative video specification.
type Document struct {
	Global  Global  `yaml:"global"`
	Version int     `yaml:"version"`
	Scenes  []Scene `yaml:"scenes"`
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	cp := d
	cp.Scenes = make([]Scene, len(d.Scenes))
	copy(cp.Scenes, d.Scenes)
	return cp
}

// SceneIDs returns the scene identifiers in render order.
func (d Document) SceneIDs() []string {
	ids := make([]string, 0, len(d.Scenes))
	for _, s := range d.Scenes {
		ids = append(ids, s.ID)
	}
	return ids
}

// SceneByID returns the scene with the given id, if present.
func (d Document) SceneByID(id string) (Scene, bool) {
	for _, s := range d.Scenes {
		if s.ID == id {
			return s, true
		}
	}
	return Scene{}, false
}

// HighestSceneNumber returns the largest ordinal among the current scene
// ids, or zero when the document has no scenes.
func (d Document) HighestSceneNumber() int {
	highest := 0
	for _, s := range d.Scenes {
		if n, err := SceneNumber(s.ID); err == nil && n > highest {
			highest = n
		}
	}
	return highest
}

// SceneNumber extracts the ordinal from a scene id of the form "s<N>".
func SceneNumber(id string) (int, error) {
	trimmed := strings.TrimSpace(id)
	if len(trimmed) < 2 || trimmed[0] != 's' {
		return 0, fmt.Errorf("scene id %q: want form s<N>", id)
	}
	n, err := strconv.Atoi(trimmed[1:])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("scene id %q: want positive ordinal", id)
	}
	return n, nil
}

// FormatSceneID renders the canonical scene id for an ordinal.
func FormatSceneID(n int) string {
	return "s" + strconv.Itoa(n)
}
