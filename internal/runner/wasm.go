package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tetratelabs/wazero"

	"github.com/weftlabs/weft/pkg/api"
)

// WasmRunner executes wasm steps. The step names a compiled module file
// and an exported function returning an i32 status code; the runner
// builds a structured execution report from the code and the inputs.
// Codes 1 through 10 are treated as warnings, anything higher fails
// the step
type WasmRunner struct{}

const wasmWarningCeiling = 10

var (
	ErrWasmModule    = errors.New("failed to load wasm module")
	ErrWasmNoExport  = errors.New("wasm module does not export function")
	ErrWasmExecution = errors.New("wasm execution error")
)

// NewWasmRunner creates a wasm runner
func NewWasmRunner() *WasmRunner {
	return &WasmRunner{}
}

func (r *WasmRunner) Run(
	ctx context.Context, step *api.Step, inputs api.Args,
) (*Result, error) {
	if step.Module == "" {
		return nil, fmt.Errorf(
			"%w: wasm step %q has no module path", api.ErrInvalidPayload,
			step.Name,
		)
	}
	funcName := step.Func
	if funcName == "" {
		funcName = runFunction
	}

	source, err := os.ReadFile(step.Module)
	if err != nil {
		return nil, fmt.Errorf(
			"%w: %s: %w", ErrWasmModule, step.Module, err,
		)
	}

	runtime := wazero.NewRuntime(ctx)
	defer func() { _ = runtime.Close(ctx) }()

	mod, err := runtime.Instantiate(ctx, source)
	if err != nil {
		return nil, fmt.Errorf(
			"%w: %s: %w", ErrWasmModule, step.Module, err,
		)
	}

	fn := mod.ExportedFunction(funcName)
	if fn == nil {
		return nil, fmt.Errorf(
			"%w: %q in %s", ErrWasmNoExport, funcName, step.Module,
		)
	}

	results, err := fn.Call(ctx)
	if err != nil {
		return nil, fmt.Errorf(
			"%w: step %q: %w", ErrWasmExecution, step.Name, err,
		)
	}

	var code int32
	if len(results) > 0 {
		code = int32(results[0])
	}
	if code < 0 || code > wasmWarningCeiling {
		return nil, fmt.Errorf(
			"%w: function %q returned code %d", ErrWasmExecution,
			funcName, code,
		)
	}

	return &Result{
		Output: wasmReport(step, funcName, code, inputs),
	}, nil
}

func wasmReport(
	step *api.Step, funcName string, code int32, inputs api.Args,
) map[string]any {
	report := map[string]any{
		"wasm_execution": map[string]any{
			"module":      step.Module,
			"function":    funcName,
			"return_code": code,
			"status":      wasmStatus(code),
			"input_count": len(inputs),
		},
	}
	if len(inputs) > 0 {
		summary := make(map[string]any, len(inputs))
		for name, value := range inputs {
			summary[string(name)] = describeValue(value)
		}
		report["input_summary"] = summary
	}

	processed := map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if code == 0 {
		processed["success"] = true
		processed["message"] = "wasm processing completed successfully"
	} else {
		processed["warning"] = true
		processed["message"] = fmt.Sprintf(
			"wasm processing completed with warning code %d", code,
		)
	}
	report["processed_data"] = processed
	return report
}

func wasmStatus(code int32) string {
	if code == 0 {
		return "success"
	}
	return "warning"
}

// describeValue summarizes an input value by type and size rather
// than echoing the full payload into the report
func describeValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case bool:
		return fmt.Sprintf("bool[%t]", v)
	case string:
		return fmt.Sprintf("string[%d]", len(v))
	case []any:
		return fmt.Sprintf("array[%d]", len(v))
	case map[string]any:
		return fmt.Sprintf("object[%d]", len(v))
	case int, int64, float64:
		return fmt.Sprintf("number[%v]", v)
	default:
		return fmt.Sprintf("%T", v)
	}
}
