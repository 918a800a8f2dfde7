// Package weft identifies the workflow engine build
package weft

const (
	// Name is the service name reported in logs and diagnostics
	Name = "weft"

	// Version is the engine release identifier
	Version = "0.1.0"
)
