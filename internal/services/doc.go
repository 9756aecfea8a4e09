// Package services defines the shared error taxonomy and context plumbing
// used by pipeline stages and external tool wrappers.
package services
