package pipeline

import (
	"context"
	"os"

	"reelsmith/internal/build"
	"reelsmith/internal/fileutil"
	"reelsmith/internal/logging"
	"reelsmith/internal/services"
	"reelsmith/internal/spec"
	"reelsmith/internal/stage"
	"reelsmith/internal/state"
)

// SeedReuse copies per-scene artifacts (images, narration takes, clips) from
// a previous version's build directory into the new one for every scene the
// new document leaves untouched, marking the matching units done so the run
// skips them. Returns the number of units seeded.
func (o *Orchestrator) SeedReuse(ctx context.Context, previous spec.Document, previousVersion int, next spec.Document, version int) (int, error) {
	prevDir := build.New(o.cfg.Paths.BuildDir, previousVersion)
	nextDir := build.New(o.cfg.Paths.BuildDir, version)
	if err := nextDir.EnsureLayout(); err != nil {
		return 0, err
	}

	changes := state.StaleScenes(previous, next)
	seeded := 0
	for _, scene := range next.Scenes {
		candidates := []struct {
			stage string
			stale bool
			src   string
			dst   string
		}{
			{stage.Image, changes.Image[scene.ID], prevDir.ImagePath(scene.ID), nextDir.ImagePath(scene.ID)},
			{stage.Audio, changes.Audio[scene.ID], prevDir.SceneAudioPath(scene.ID), nextDir.SceneAudioPath(scene.ID)},
			{stage.Clips, changes.Clip[scene.ID], prevDir.ClipPath(scene.ID), nextDir.ClipPath(scene.ID)},
		}
		for _, c := range candidates {
			if c.stale {
				continue
			}
			ok, err := o.seedUnit(ctx,
				state.Key{Version: previousVersion, Stage: c.stage, SceneID: scene.ID},
				state.Key{Version: version, Stage: c.stage, SceneID: scene.ID},
				c.src, c.dst)
			if err != nil {
				return seeded, err
			}
			if ok {
				seeded++
			}
		}
	}

	if seeded > 0 {
		o.logger.Info("reused artifacts from previous version",
			logging.Int("units", seeded),
			logging.Int("from_version", previousVersion),
			logging.Int(logging.FieldVersion, version))
	}
	return seeded, nil
}

// seedUnit copies one artifact forward when the source unit completed and its
// file survived. A unit already done in the new version is left alone.
func (o *Orchestrator) seedUnit(ctx context.Context, from, to state.Key, src, dst string) (bool, error) {
	prevDone, err := o.store.IsDone(ctx, from)
	if err != nil {
		return false, err
	}
	if !prevDone {
		return false, nil
	}
	if _, err := os.Stat(src); err != nil {
		return false, nil
	}

	unit, err := o.store.EnsureUnit(ctx, to)
	if err != nil {
		return false, err
	}
	if unit.Status == state.StatusDone {
		return false, nil
	}
	if err := fileutil.CopyFile(src, dst); err != nil {
		return false, services.WrapScene(services.ErrStorage, to.Stage, to.SceneID, "copy reused artifact", err)
	}
	if err := o.store.MarkDone(ctx, unit.ID, dst); err != nil {
		return false, err
	}
	return true, nil
}
