package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchema marks an invalid spec document or patch shape. Documents
	// carrying this error must never reach the version store.
	ErrSchema = errors.New("schema error")
	// ErrPatch marks a feedback-derived patch that references scene ids
	// missing from its base document. Rejected before merge.
	ErrPatch = errors.New("patch validation error")
	// ErrStorage marks a version or artifact persistence failure. Fatal for
	// the current run; history on disk stays consistent.
	ErrStorage = errors.New("storage error")
	// ErrExternalTool marks an external model or tool failure for one unit.
	ErrExternalTool = errors.New("external tool error")
	// ErrStale marks an attempt to build a stage whose dependency artifacts
	// are stale. Always a sequencing bug, never operator-recoverable.
	ErrStale = errors.New("staleness conflict")
	// ErrConfiguration marks unusable runtime configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks a missing version or artifact.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// WrapScene is Wrap with scene context in place of an operation name, for
// failures inside per-scene stage units. Failure reports built from these
// errors name both the stage and the scene.
func WrapScene(marker error, stage, sceneID, message string, err error) error {
	operation := ""
	if sceneID = strings.TrimSpace(sceneID); sceneID != "" {
		operation = "scene " + sceneID
	}
	return Wrap(marker, stage, operation, message, err)
}

// Fatal reports whether an error should abort the run immediately instead of
// being recorded as a per-unit stage failure.
func Fatal(err error) bool {
	return errors.Is(err, ErrStorage) || errors.Is(err, ErrStale) || errors.Is(err, ErrConfiguration)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
