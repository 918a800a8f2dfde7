package builder

import "github.com/weftlabs/weft/pkg/api"

// Lua creates a lua step builder with inline code
func Lua(name api.Name, code string) *Step {
	return NewStep(name).WithLanguage("lua").WithCode(code)
}

// Ale creates an ale step builder with inline code
func Ale(name api.Name, code string) *Step {
	return NewStep(name).WithLanguage("ale").WithCode(code)
}

// Starlark creates a starlark step builder with inline code
func Starlark(name api.Name, code string) *Step {
	return NewStep(name).WithLanguage("starlark").WithCode(code)
}

// Python creates a python step builder with inline code
func Python(name api.Name, code string) *Step {
	return NewStep(name).WithLanguage("python").WithCode(code)
}

// JavaScript creates a javascript step builder with inline code
func JavaScript(name api.Name, code string) *Step {
	return NewStep(name).WithLanguage("javascript").WithCode(code)
}

// Shell creates a shell step builder with inline script source
func Shell(name api.Name, code string) *Step {
	return NewStep(name).WithLanguage("shell").WithCode(code)
}

// Wasm creates a wasm step builder referencing a compiled module and
// the exported function to call
func Wasm(name api.Name, module, funcName string) *Step {
	return NewStep(name).WithLanguage("wasm").
		WithModule(module).
		WithFunc(funcName)
}
