// Package versions stores append-only numbered snapshots of spec documents
// for reproducibility and feedback history.
package versions
