// Package patch derives structured edits from natural-language feedback and
// merges them into spec documents as a pure, atomic operation.
package patch
