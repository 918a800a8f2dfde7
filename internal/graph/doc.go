// Package graph builds and validates the step dependency graph
//
// This package partitions a workflow's steps into ordered execution
// levels, detecting unknown dependencies and cycles before any step runs
package graph
