// Package build defines the on-disk workspace layout for one version of a
// video build. Every stage reads and writes through these paths so artifacts
// from different versions never collide.
package build
