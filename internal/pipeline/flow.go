package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"reflect"
	"strings"

	"reelsmith/internal/build"
	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/patch"
	"reelsmith/internal/scriptgen"
	"reelsmith/internal/services"
	"reelsmith/internal/spec"
	"reelsmith/internal/versions"
)

// Flow drives one complete invocation of the project: it materializes the
// working document (generating it from the idea prompt on first run), folds
// pending feedback into a new revision, snapshots the revision into the
// version store, seeds reusable artifacts from the previous version, and runs
// the stage pipeline.
type Flow struct {
	cfg          *config.Config
	logger       *slog.Logger
	versions     *versions.Store
	scripts      *scriptgen.Generator
	patches      *patch.Engine
	orchestrator *Orchestrator
}

// NewFlow assembles the project flow. scripts and patches may be nil when no
// language model is configured; the flow then requires a hand-written
// document and refuses feedback.
func NewFlow(cfg *config.Config, logger *slog.Logger, store *versions.Store, scripts *scriptgen.Generator, patches *patch.Engine, orchestrator *Orchestrator) *Flow {
	return &Flow{
		cfg:          cfg,
		logger:       logging.NewComponentLogger(logger, "flow"),
		versions:     store,
		scripts:      scripts,
		patches:      patches,
		orchestrator: orchestrator,
	}
}

// Result reports what a flow invocation produced.
type Result struct {
	Version    int
	NewVersion bool
	Seeded     int
	FinalPath  string
	Summary    patch.Summary
}

// Run executes the full flow and returns the version it built.
func (f *Flow) Run(ctx context.Context) (Result, error) {
	var result Result

	doc, err := f.workingDocument(ctx)
	if err != nil {
		return result, err
	}

	feedback, err := f.pendingFeedback()
	if err != nil {
		return result, err
	}
	var derived patch.Patch
	if feedback != "" {
		doc, derived, result.Summary, err = f.applyFeedback(ctx, doc, feedback)
		if err != nil {
			return result, err
		}
	}

	version, isNew, previousVersion, err := f.resolveVersion(doc)
	if err != nil {
		return result, err
	}
	result.Version = version
	result.NewVersion = isNew
	doc.Version = version
	if err := spec.Save(doc, f.cfg.SpecPath()); err != nil {
		return result, err
	}
	if !derived.IsEmpty() {
		if err := f.persistPatch(derived, version); err != nil {
			return result, err
		}
	}

	if isNew && previousVersion > 0 {
		previous, err := f.versions.Get(previousVersion)
		if err != nil {
			return result, err
		}
		result.Seeded, err = f.orchestrator.SeedReuse(ctx, previous, previousVersion, doc, version)
		if err != nil {
			return result, err
		}
	}

	if feedback != "" {
		// Consumed only after the revision is safely snapshotted.
		if err := os.Remove(f.cfg.FeedbackPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return result, services.Wrap(services.ErrStorage, "flow", "run", "clear consumed feedback", err)
		}
	}

	if err := f.orchestrator.Run(ctx, &doc, version); err != nil {
		return result, err
	}
	result.FinalPath = build.New(f.cfg.Paths.BuildDir, version).FinalPath()
	return result, nil
}

// workingDocument loads video.yaml, generating it from idea.txt when absent.
func (f *Flow) workingDocument(ctx context.Context) (spec.Document, error) {
	doc, err := spec.Load(f.cfg.SpecPath())
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, services.ErrNotFound) {
		return spec.Document{}, err
	}

	idea, err := os.ReadFile(f.cfg.IdeaPath())
	if err != nil {
		return spec.Document{}, services.Wrap(services.ErrConfiguration, "flow", "bootstrap",
			"no video.yaml and no idea.txt in project directory", err)
	}
	if f.scripts == nil {
		return spec.Document{}, services.Wrap(services.ErrConfiguration, "flow", "bootstrap",
			"script generation requires a configured language model", nil)
	}

	f.logger.Info("generating script from idea prompt")
	doc, err = f.scripts.Generate(ctx, string(idea))
	if err != nil {
		return spec.Document{}, err
	}
	if err := spec.Save(doc, f.cfg.SpecPath()); err != nil {
		return spec.Document{}, err
	}
	return doc, nil
}

// pendingFeedback reads feedback.txt, returning "" when there is none.
func (f *Flow) pendingFeedback() (string, error) {
	data, err := os.ReadFile(f.cfg.FeedbackPath())
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", services.Wrap(services.ErrStorage, "flow", "run", "read feedback", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (f *Flow) applyFeedback(ctx context.Context, doc spec.Document, feedback string) (spec.Document, patch.Patch, patch.Summary, error) {
	if f.patches == nil {
		return spec.Document{}, patch.Patch{}, patch.Summary{}, services.Wrap(services.ErrConfiguration, "flow", "feedback",
			"feedback revision requires a configured language model", nil)
	}
	p, err := f.patches.Derive(ctx, doc, feedback)
	if err != nil {
		return spec.Document{}, patch.Patch{}, patch.Summary{}, err
	}
	revised, summary, err := patch.Apply(doc, p)
	if err != nil {
		return spec.Document{}, patch.Patch{}, patch.Summary{}, err
	}
	f.logger.Info("feedback folded into document",
		logging.Int("changed_scenes", len(summary.ChangedScenes)),
		logging.Int("added_scenes", len(summary.AddedScenes)),
		logging.Int("removed_scenes", len(summary.RemovedScenes)),
		logging.Bool("global_changed", summary.GlobalChanged))
	return revised, p, summary, nil
}

// persistPatch records the applied patch under the version's build tree so a
// revision stays auditable after feedback.txt is consumed.
func (f *Flow) persistPatch(p patch.Patch, version int) error {
	dir := build.New(f.cfg.Paths.BuildDir, version)
	if err := os.MkdirAll(dir.Root(), 0o755); err != nil {
		return services.Wrap(services.ErrStorage, "flow", "run", "create build directory", err)
	}
	data, err := patch.Encode(p)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dir.PatchPath(), data, 0o644); err != nil {
		return services.Wrap(services.ErrStorage, "flow", "run", "persist feedback patch", err)
	}
	return nil
}

// resolveVersion snapshots the document unless it matches the latest
// snapshot, in which case the existing version is rebuilt and completed
// stages are skipped rather than redone.
func (f *Flow) resolveVersion(doc spec.Document) (version int, isNew bool, previousVersion int, err error) {
	latestVersion, err := f.versions.LatestVersion()
	if errors.Is(err, services.ErrNotFound) {
		version, err = f.versions.Save(doc)
		return version, true, 0, err
	}
	if err != nil {
		return 0, false, 0, err
	}

	latest, err := f.versions.Get(latestVersion)
	if err != nil {
		return 0, false, 0, err
	}
	if sameDocument(doc, latest) {
		return latestVersion, false, 0, nil
	}

	version, err = f.versions.Save(doc)
	return version, true, latestVersion, err
}

// sameDocument compares two documents ignoring the version counter.
func sameDocument(a, b spec.Document) bool {
	a = a.Clone()
	a.Version = b.Version
	return reflect.DeepEqual(a, b)
}
