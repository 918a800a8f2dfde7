// Package api defines the core data types for the workflow engine
//
// This package contains all the shared types used across the engine,
// including step and workflow definitions, step inputs, run results, and
// lifecycle events
package api
