// Package state persists per-version stage unit status in SQLite so an
// interrupted pipeline run can resume without redoing finished work.
package state
