// Package pipeline orchestrates the staged build of one document version:
// fixed stage ordering, per-scene fan-out, resumable unit state, and artifact
// reuse across versions.
package pipeline
