// Package ffprobe wraps the ffprobe binary for media inspection. The
// pipeline uses it to measure real narration durations after synthesis.
package ffprobe
