// Package runner implements the per-language step execution shims
//
// This package provides the runner registry keyed by language tag, the
// embedded lua, ale and starlark environments, the python and javascript
// subprocess runners, the in-process shell interpreter, and the wasm
// module runner
package runner
