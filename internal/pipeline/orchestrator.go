package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"reelsmith/internal/build"
	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/media/ffprobe"
	"reelsmith/internal/services"
	"reelsmith/internal/spec"
	"reelsmith/internal/stage"
	"reelsmith/internal/state"
)

// Handlers maps stage names to their executors.
type Handlers map[string]stage.Handler

type durationProbe func(ctx context.Context, path string) (float64, error)

// Orchestrator runs the stage pipeline for one document version. Progress is
// persisted per unit, so an interrupted run resumes where it stopped.
type Orchestrator struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *state.Store
	handlers Handlers
	probe    durationProbe
}

// NewOrchestrator constructs the stage engine.
func NewOrchestrator(cfg *config.Config, logger *slog.Logger, store *state.Store, handlers Handlers) *Orchestrator {
	o := &Orchestrator{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
		store:    store,
		handlers: handlers,
	}
	o.probe = func(ctx context.Context, path string) (float64, error) {
		return ffprobe.Duration(ctx, cfg.Tools.FFprobe, path)
	}
	return o
}

// WithDurationProbe sets a custom media duration probe (for testing).
func (o *Orchestrator) WithDurationProbe(probe func(ctx context.Context, path string) (float64, error)) {
	o.probe = probe
}

// Run executes every stage for the document version, skipping units already
// done. When a unit fails, its in-flight siblings finish, no later stage
// starts, and the returned error names the stage and scene.
func (o *Orchestrator) Run(ctx context.Context, doc *spec.Document, version int) error {
	dir := build.New(o.cfg.Paths.BuildDir, version)
	if err := dir.EnsureLayout(); err != nil {
		return err
	}

	runID := uuid.NewString()
	runCtx := services.WithVersion(services.WithRequestID(ctx, runID), version)
	logger := logging.WithContext(runCtx, o.logger)

	if reset, err := o.store.ResetRunning(runCtx, version); err != nil {
		return err
	} else if reset > 0 {
		logger.Warn("recovered units abandoned by a previous run", logging.Int64("units", reset))
	}

	if err := o.refreshMeasuredDurations(runCtx, doc, dir); err != nil {
		return err
	}

	for _, descriptor := range stage.Pipeline() {
		handler, ok := o.handlers[descriptor.Name]
		if !ok {
			return services.Wrap(services.ErrConfiguration, descriptor.Name, "run", "no handler registered", nil)
		}
		if err := o.runStage(runCtx, logger, handler, descriptor, doc, dir, version, runID); err != nil {
			return err
		}
	}

	logger.Info("pipeline complete", logging.String("final", dir.FinalPath()))
	return nil
}

// refreshMeasuredDurations re-derives scene durations from narration takes
// that already exist, so resumed or reused audio still drives clip lengths
// with measured speech instead of the authored hints.
func (o *Orchestrator) refreshMeasuredDurations(ctx context.Context, doc *spec.Document, dir build.Dir) error {
	for i, scene := range doc.Scenes {
		done, err := o.store.IsDone(ctx, state.Key{Version: dir.Version(), Stage: stage.Audio, SceneID: scene.ID})
		if err != nil {
			return err
		}
		if !done {
			continue
		}
		measured, err := o.probe(ctx, dir.SceneAudioPath(scene.ID))
		if err != nil {
			return services.WrapScene(services.ErrStale, stage.Audio, scene.ID, "completed narration take unreadable", err)
		}
		doc.Scenes[i].Duration = roundDuration(measured + o.cfg.Video.CrossfadeSeconds)
	}
	return nil
}

func roundDuration(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

func (o *Orchestrator) runStage(ctx context.Context, logger *slog.Logger, handler stage.Handler, descriptor stage.Descriptor, doc *spec.Document, dir build.Dir, version int, runID string) error {
	sceneIDs := []string{""}
	if descriptor.Granularity == stage.PerScene {
		sceneIDs = doc.SceneIDs()
	}

	pending := make([]string, 0, len(sceneIDs))
	for _, sceneID := range sceneIDs {
		done, err := o.store.IsDone(ctx, state.Key{Version: version, Stage: descriptor.Name, SceneID: sceneID})
		if err != nil {
			return err
		}
		if !done {
			pending = append(pending, sceneID)
		}
	}
	if len(pending) == 0 {
		logger.Debug("stage already complete", logging.String(logging.FieldStage, descriptor.Name))
		return nil
	}

	logger.Info("stage started",
		logging.String(logging.FieldStage, descriptor.Name),
		logging.String(logging.FieldEventType, "stage_start"),
		logging.Int("units", len(pending)))

	workers := int64(o.cfg.Workflow.SceneWorkers)
	if workers < 1 || descriptor.Granularity == stage.PerDocument {
		workers = 1
	}
	sem := semaphore.NewWeighted(workers)

	// Tool failures let in-flight siblings run to completion, so partial
	// progress is persisted. Fatal errors (storage, staleness, config)
	// cancel the stage outright.
	stageCtx, cancelStage := context.WithCancel(ctx)
	defer cancelStage()

	var (
		group    errgroup.Group
		mu       sync.Mutex
		failures []error
	)
	for _, sceneID := range pending {
		sceneID := sceneID
		if err := sem.Acquire(stageCtx, 1); err != nil {
			if stageCtx.Err() != nil {
				break
			}
			return services.Wrap(services.ErrExternalTool, descriptor.Name, "run", "acquire worker slot", err)
		}
		group.Go(func() error {
			defer sem.Release(1)
			if err := o.runUnit(stageCtx, handler, descriptor, doc, dir, version, runID, sceneID); err != nil {
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
				if services.Fatal(err) {
					cancelStage()
				}
				return err
			}
			return nil
		})
	}
	_ = group.Wait()

	if len(failures) > 0 {
		first := failures[0]
		logger.Error("stage failed",
			logging.String(logging.FieldStage, descriptor.Name),
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.Int("failed_units", len(failures)),
			logging.Error(first))
		return first
	}

	logger.Info("stage completed",
		logging.String(logging.FieldStage, descriptor.Name),
		logging.String(logging.FieldEventType, "stage_complete"))
	return nil
}

func (o *Orchestrator) runUnit(ctx context.Context, handler stage.Handler, descriptor stage.Descriptor, doc *spec.Document, dir build.Dir, version int, runID, sceneID string) error {
	key := state.Key{Version: version, Stage: descriptor.Name, SceneID: sceneID}
	unit, err := o.store.EnsureUnit(ctx, key)
	if err != nil {
		return err
	}
	if unit.Status == state.StatusDone {
		return nil
	}
	if err := o.store.MarkRunning(ctx, unit.ID, runID); err != nil {
		return err
	}

	unitCtx := ctx
	if timeout := o.cfg.Workflow.StageTimeoutSeconds; timeout > 0 {
		var cancel context.CancelFunc
		unitCtx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()
	}
	if sceneID != "" {
		unitCtx = services.WithScene(unitCtx, sceneID)
	}
	unitCtx = services.WithStage(unitCtx, descriptor.Name)

	task := &stage.Task{Document: doc, Build: dir, SceneID: sceneID}
	execErr := handler.Prepare(unitCtx, task)
	if execErr == nil {
		execErr = handler.Execute(unitCtx, task)
	}
	if execErr != nil {
		if markErr := o.store.MarkFailed(ctx, unit.ID, execErr.Error()); markErr != nil {
			return markErr
		}
		return execErr
	}

	artifact := artifactPath(dir, descriptor.Name, sceneID)
	return o.store.MarkDone(ctx, unit.ID, artifact)
}

// artifactPath resolves the canonical artifact a stage unit produces.
func artifactPath(dir build.Dir, stageName, sceneID string) string {
	switch stageName {
	case stage.Image:
		return dir.ImagePath(sceneID)
	case stage.Audio:
		return dir.SceneAudioPath(sceneID)
	case stage.AudioConcat:
		return dir.ConcatAudioPath()
	case stage.Align:
		return dir.AlignmentPath()
	case stage.Subtitles:
		return dir.SubtitlePath()
	case stage.Clips:
		return dir.ClipPath(sceneID)
	case stage.Slideshow:
		return dir.SlideshowPath()
	case stage.Mux:
		return dir.MuxedPath()
	case stage.Final:
		return dir.FinalPath()
	}
	return fmt.Sprintf("%s (stage %s)", dir.Root(), stageName)
}
