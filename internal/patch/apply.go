package patch

import (
	"fmt"
	"math"
	"strings"

	"reelsmith/internal/spec"
)

// Summary reports what an apply changed, for logging and the patch file
// audit trail.
type Summary struct {
	ChangedScenes []string `yaml:"changed_scenes,omitempty"`
	AddedScenes   []string `yaml:"added_scenes,omitempty"`
	RemovedScenes []string `yaml:"removed_scenes,omitempty"`
	GlobalChanged bool     `yaml:"global_changed,omitempty"`
}

// Apply merges the patch into the base document and returns the result. It
// is a pure function: the base is never mutated, and the merge either fully
// succeeds producing a valid document or fails leaving nothing behind.
//
// Semantics: duration edits are relative deltas and must keep the scene
// duration positive; text edits replace the narration; prompt adjustments
// append to the image prompt with ", "; motion edits replace after enum
// validation. Removed scenes drop their slot without renumbering survivors,
// keeping artifact addressing stable; added scenes take sequential ids past
// the pre-removal high water mark, so an apply never reassigns a number it
// removed.
func Apply(base spec.Document, p Patch) (spec.Document, Summary, error) {
	var summary Summary

	if err := p.ValidateAgainst(base); err != nil {
		return spec.Document{}, Summary{}, err
	}

	doc := base.Clone()

	if p.Global != nil {
		applyGlobal(&doc.Global, *p.Global)
		summary.GlobalChanged = true
	}

	index := make(map[string]int, len(doc.Scenes))
	for i, s := range doc.Scenes {
		index[s.ID] = i
	}

	for _, id := range p.EditedSceneIDs() {
		edit := p.Scenes[id]
		scene := &doc.Scenes[index[id]]
		changed := false

		if edit.Duration != nil {
			next := scene.Duration + *edit.Duration
			if next <= 0 {
				return spec.Document{}, Summary{}, patchErr(fmt.Sprintf("scene %q: duration would become %.3f after delta %.3f", id, next, *edit.Duration))
			}
			scene.Duration = roundDuration(next)
			changed = true
		}
		if edit.Text != nil {
			scene.Text = strings.TrimSpace(*edit.Text)
			changed = true
		}
		if edit.Visual != nil {
			if adj := edit.Visual.PromptAdjustment; adj != nil {
				if trimmed := strings.TrimSpace(*adj); trimmed != "" {
					if existing := strings.TrimSpace(scene.Visual.Prompt); existing != "" {
						scene.Visual.Prompt = existing + ", " + trimmed
					} else {
						scene.Visual.Prompt = trimmed
					}
					changed = true
				}
			}
			if edit.Visual.Motion != nil {
				scene.Visual.Motion = *edit.Visual.Motion
				changed = true
			}
		}

		if changed {
			summary.ChangedScenes = append(summary.ChangedScenes, id)
		}
	}

	// Captured before removal so a number freed by this patch is never
	// handed to an added scene.
	nextNum := doc.HighestSceneNumber()

	if len(p.Remove) > 0 {
		gone := make(map[string]struct{}, len(p.Remove))
		for _, id := range p.Remove {
			gone[id] = struct{}{}
		}
		kept := doc.Scenes[:0]
		for _, s := range doc.Scenes {
			if _, drop := gone[s.ID]; drop {
				summary.RemovedScenes = append(summary.RemovedScenes, s.ID)
				continue
			}
			kept = append(kept, s)
		}
		doc.Scenes = kept
	}

	for _, ns := range p.Add {
		nextNum++
		id := spec.FormatSceneID(nextNum)
		scene := spec.Scene{
			ID:         id,
			Duration:   roundDuration(ns.Duration),
			Text:       strings.TrimSpace(ns.Text),
			Transition: ns.Transition,
			Visual:     ns.Visual,
		}
		if scene.Visual.Type == "" {
			scene.Visual.Type = "image"
		}
		if scene.Visual.Motion == "" {
			scene.Visual.Motion = spec.DefaultMotion
		}
		doc.Scenes = append(doc.Scenes, scene)
		summary.AddedScenes = append(summary.AddedScenes, id)
	}

	if err := doc.Validate(); err != nil {
		return spec.Document{}, Summary{}, err
	}
	return doc, summary, nil
}

func applyGlobal(g *spec.Global, edit GlobalEdit) {
	if edit.Title != nil {
		g.Title = strings.TrimSpace(*edit.Title)
	}
	if edit.Description != nil {
		g.Description = strings.TrimSpace(*edit.Description)
	}
	if edit.Voice != nil {
		g.Voice = strings.TrimSpace(*edit.Voice)
	}
	if edit.AspectRatio != nil {
		g.AspectRatio = strings.TrimSpace(*edit.AspectRatio)
	}
	if edit.BGM != nil {
		g.BGM = *edit.BGM
	}
}

func roundDuration(seconds float64) float64 {
	return math.Round(seconds*1000) / 1000
}
