package spec

import (
	"fmt"
	"strings"

	"reelsmith/internal/services"
)

// Validate checks document invariants and reports the first violation:
// positive version, at least one scene, unique ids in strictly ascending
// order, non-empty narration, valid motion and transition values, and
// non-negative durations. Gaps in the id sequence are tolerated because
// scene removal keeps surviving ids stable (see ValidateDense).
func (d Document) Validate() error {
	if d.Version <= 0 {
		return schemaErr("validate", fmt.Sprintf("version must be positive, got %d", d.Version))
	}
	if len(d.Scenes) == 0 {
		return schemaErr("validate", "document has no scenes")
	}

	prev := 0
	seen := make(map[string]struct{}, len(d.Scenes))
	for i, s := range d.Scenes {
		n, err := SceneNumber(s.ID)
		if err != nil {
			return schemaErr("validate", err.Error())
		}
		if _, dup := seen[s.ID]; dup {
			return schemaErr("validate", fmt.Sprintf("duplicate scene id %q", s.ID))
		}
		seen[s.ID] = struct{}{}
		if n <= prev {
			return schemaErr("validate", fmt.Sprintf("scene %d: id %q out of order after s%d", i+1, s.ID, prev))
		}
		prev = n

		if strings.TrimSpace(s.Text) == "" {
			return schemaErr("validate", fmt.Sprintf("scene %q: narration text is empty", s.ID))
		}
		if s.Visual.Motion != "" && !ValidMotion(s.Visual.Motion) {
			return schemaErr("validate", fmt.Sprintf("scene %q: unknown motion %q", s.ID, s.Visual.Motion))
		}
		if !ValidTransition(s.Transition) {
			return schemaErr("validate", fmt.Sprintf("scene %q: unknown transition %q", s.ID, s.Transition))
		}
		if s.Duration < 0 {
			return schemaErr("validate", fmt.Sprintf("scene %q: negative duration %v", s.ID, s.Duration))
		}
	}
	return nil
}

// ValidateDense additionally requires ids s1..sN with no gaps. Freshly
// generated documents must be dense; patched documents may carry gaps left
// by scene removal.
func (d Document) ValidateDense() error {
	if err := d.Validate(); err != nil {
		return err
	}
	for i, s := range d.Scenes {
		want := FormatSceneID(i + 1)
		if s.ID != want {
			return schemaErr("validate", fmt.Sprintf("scene ids must be dense: position %d has %q, want %q", i+1, s.ID, want))
		}
	}
	return nil
}

// RequireRenderable confirms every scene carries what the generation stages
// need: an image prompt and narration text.
func (d Document) RequireRenderable() error {
	for _, s := range d.Scenes {
		if strings.TrimSpace(s.Visual.Prompt) == "" {
			return schemaErr("validate", fmt.Sprintf("scene %q: image prompt is empty", s.ID))
		}
	}
	return nil
}

func schemaErr(op, message string) error {
	return services.Wrap(services.ErrSchema, "spec", op, message, nil)
}
