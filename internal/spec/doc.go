// Package spec defines the versioned declarative video specification: the
// document and scene data model, schema validation, YAML persistence, and
// transcript derivation for forced alignment.
package spec
