package patch

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"reelsmith/internal/services"
	"reelsmith/internal/spec"
)

// SceneEdit is a partial update of one existing scene. Nil fields are left
// untouched. Duration is a relative delta in seconds, not an absolute value;
// Text is a full replacement; Visual edits append to or replace individual
// visual fields.
type SceneEdit struct {
	Duration *float64    `yaml:"duration,omitempty"`
	Text     *string     `yaml:"text,omitempty"`
	Visual   *VisualEdit `yaml:"visual,omitempty"`
}

// VisualEdit adjusts a scene's image-generation parameters. PromptAdjustment
// is appended to the existing prompt; replacing the prompt wholesale is not
// allowed (Prompt is decoded only so it can be rejected explicitly).
type VisualEdit struct {
	PromptAdjustment *string      `yaml:"prompt_adjustment,omitempty"`
	Prompt           *string      `yaml:"prompt,omitempty"`
	Motion           *spec.Motion `yaml:"motion,omitempty"`
}

// GlobalEdit is a partial update of document-level settings.
type GlobalEdit struct {
	Title       *string `yaml:"title,omitempty"`
	Description *string `yaml:"description,omitempty"`
	Voice       *string `yaml:"voice,omitempty"`
	AspectRatio *string `yaml:"aspect_ratio,omitempty"`
	BGM         *bool   `yaml:"bgm,omitempty"`
}

// NewScene describes a scene to append. The id is assigned during apply; the
// patch itself never names ids for additions.
type NewScene struct {
	Duration   float64         `yaml:"duration,omitempty"`
	Text       string          `yaml:"text"`
	Transition spec.Transition `yaml:"transition,omitempty"`
	Visual     spec.Visual     `yaml:"visual"`
}

// Patch is a structured set of edits against one specific document version.
type Patch struct {
	Scenes map[string]SceneEdit `yaml:"scenes,omitempty"`
	Global *GlobalEdit          `yaml:"global,omitempty"`
	Add    []NewScene           `yaml:"add_scenes,omitempty"`
	Remove []string             `yaml:"remove_scenes,omitempty"`
}

// IsEmpty reports whether applying the patch would be a no-op.
func (p Patch) IsEmpty() bool {
	return len(p.Scenes) == 0 && p.Global == nil && len(p.Add) == 0 && len(p.Remove) == 0
}

// EditedSceneIDs returns the ids of edited scenes in deterministic order.
func (p Patch) EditedSceneIDs() []string {
	ids := make([]string, 0, len(p.Scenes))
	for id := range p.Scenes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Parse decodes a patch from YAML. Unknown fields are rejected so a
// collaborator inventing schema shows up as an error instead of a silent
// no-op.
func Parse(data []byte) (Patch, error) {
	var p Patch
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&p); err != nil {
		return Patch{}, services.Wrap(services.ErrPatch, "patch", "parse", "invalid patch YAML", err)
	}
	return p, nil
}

// Encode renders the patch as YAML for persistence under the build tree.
func Encode(p Patch) ([]byte, error) {
	data, err := yaml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}
	return data, nil
}

// ValidateAgainst checks the patch against the scene-id set of its base
// document. Every referenced id must exist, a scene cannot be both edited
// and removed, added scenes must be complete, and visual edits must not try
// to replace prompts wholesale.
func (p Patch) ValidateAgainst(base spec.Document) error {
	known := make(map[string]struct{}, len(base.Scenes))
	for _, s := range base.Scenes {
		known[s.ID] = struct{}{}
	}

	removed := make(map[string]struct{}, len(p.Remove))
	for _, id := range p.Remove {
		if _, ok := known[id]; !ok {
			return patchErr(fmt.Sprintf("remove references unknown scene id %q", id))
		}
		if _, dup := removed[id]; dup {
			return patchErr(fmt.Sprintf("scene %q removed twice", id))
		}
		removed[id] = struct{}{}
	}
	if len(removed) == len(base.Scenes) && len(p.Add) == 0 {
		return patchErr("patch would remove every scene")
	}

	for _, id := range p.EditedSceneIDs() {
		if _, ok := known[id]; !ok {
			return patchErr(fmt.Sprintf("edit references unknown scene id %q", id))
		}
		if _, gone := removed[id]; gone {
			return patchErr(fmt.Sprintf("scene %q is both edited and removed", id))
		}
		edit := p.Scenes[id]
		if edit.Text != nil && strings.TrimSpace(*edit.Text) == "" {
			return patchErr(fmt.Sprintf("scene %q: replacement text is empty", id))
		}
		if edit.Visual != nil {
			if edit.Visual.Prompt != nil {
				return patchErr(fmt.Sprintf("scene %q: direct prompt replacement is not allowed, use prompt_adjustment", id))
			}
			if edit.Visual.Motion != nil && !spec.ValidMotion(*edit.Visual.Motion) {
				return patchErr(fmt.Sprintf("scene %q: unknown motion %q", id, *edit.Visual.Motion))
			}
		}
	}

	for i, ns := range p.Add {
		if strings.TrimSpace(ns.Text) == "" {
			return patchErr(fmt.Sprintf("added scene %d: narration text is empty", i+1))
		}
		if strings.TrimSpace(ns.Visual.Prompt) == "" {
			return patchErr(fmt.Sprintf("added scene %d: image prompt is empty", i+1))
		}
		if ns.Visual.Motion != "" && !spec.ValidMotion(ns.Visual.Motion) {
			return patchErr(fmt.Sprintf("added scene %d: unknown motion %q", i+1, ns.Visual.Motion))
		}
	}

	return nil
}

func patchErr(message string) error {
	return services.Wrap(services.ErrPatch, "patch", "validate", message, nil)
}
