// Package server implements the HTTP API server for the workflow engine
//
// This package provides REST endpoints for listing and running
// workflows, browsing run history, health checks, and WebSocket event
// streaming
package server
