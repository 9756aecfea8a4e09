// Package logging provides slog construction and the structured field
// conventions shared across the pipeline (stage, scene, version).
package logging
