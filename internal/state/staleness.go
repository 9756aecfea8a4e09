package state

import (
	"context"

	"reelsmith/internal/services"
	"reelsmith/internal/spec"
)

// SceneChanges records which per-scene artifacts a new document version
// invalidates relative to an older one. A scene absent from all maps kept its
// text, prompt, motion, and duration, so its artifacts can be reused.
type SceneChanges struct {
	Image map[string]bool // prompt changed or scene is new
	Audio map[string]bool // narration text changed or scene is new
	Clip  map[string]bool // image or audio stale, or motion/duration changed
}

// StaleScenes compares two document versions and reports the scenes whose
// generated artifacts the newer version dirties. Document-level artifacts
// (joined audio, alignment, subtitles, slideshow, mux, final) are always
// rebuilt for a new version and are not tracked here.
func StaleScenes(old, next spec.Document) SceneChanges {
	changes := SceneChanges{
		Image: make(map[string]bool),
		Audio: make(map[string]bool),
		Clip:  make(map[string]bool),
	}
	for _, scene := range next.Scenes {
		prev, ok := old.SceneByID(scene.ID)
		if !ok {
			changes.Image[scene.ID] = true
			changes.Audio[scene.ID] = true
			changes.Clip[scene.ID] = true
			continue
		}
		if prev.Visual.Prompt != scene.Visual.Prompt || prev.Visual.Type != scene.Visual.Type {
			changes.Image[scene.ID] = true
		}
		if prev.Text != scene.Text {
			changes.Audio[scene.ID] = true
		}
		if changes.Image[scene.ID] || changes.Audio[scene.ID] ||
			prev.Visual.Motion != scene.Visual.Motion || prev.Duration != scene.Duration {
			changes.Clip[scene.ID] = true
		}
	}
	return changes
}

// IsDone reports whether the unit for a key has already completed.
func (s *Store) IsDone(ctx context.Context, key Key) (bool, error) {
	unit, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return unit != nil && unit.Status == StatusDone, nil
}

// InvalidateDownstream deletes unit records for the named stages in a
// version. Deleted units come back as pending on the next EnsureUnit, so the
// stages rerun from scratch.
func (s *Store) InvalidateDownstream(ctx context.Context, version int, stages []string) (int64, error) {
	if len(stages) == 0 {
		return 0, nil
	}
	var total int64
	for _, stage := range stages {
		res, err := s.execWithRetry(ctx,
			`DELETE FROM stage_units WHERE version = ? AND stage = ?`, version, stage)
		if err != nil {
			return total, services.Wrap(services.ErrStorage, "state", "invalidate", "delete stage units", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			total += n
		}
	}
	return total, nil
}
