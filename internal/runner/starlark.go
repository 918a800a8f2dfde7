package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"go.starlark.net/starlark"

	"github.com/weftlabs/weft/pkg/api"
)

// StarlarkRunner executes starlark steps in-process. The step code must
// define a run function, called with the inputs dict (or no argument
// when there are no inputs); print output is captured per step
type StarlarkRunner struct{}

var (
	ErrStarlarkExec  = errors.New("starlark execution error")
	ErrStarlarkNoRun = errors.New("starlark step does not define a run function")
)

// NewStarlarkRunner creates a starlark runner
func NewStarlarkRunner() *StarlarkRunner {
	return &StarlarkRunner{}
}

func (r *StarlarkRunner) Run(
	_ context.Context, step *api.Step, inputs api.Args,
) (*Result, error) {
	if step.Code == "" {
		return nil, fmt.Errorf(
			"%w: starlark step %q has no code", api.ErrInvalidPayload,
			step.Name,
		)
	}

	var console bytes.Buffer
	thread := &starlark.Thread{
		Name: string(step.Name),
		Print: func(_ *starlark.Thread, msg string) {
			console.WriteString(msg)
			console.WriteByte('\n')
		},
	}

	globals, err := starlark.ExecFile(
		thread, string(step.Name)+".star", step.Code, nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStarlarkExec, err)
	}

	run, ok := globals[runFunction].(starlark.Callable)
	if !ok {
		return nil, fmt.Errorf("%w: step %q", ErrStarlarkNoRun, step.Name)
	}

	var args starlark.Tuple
	if len(inputs) > 0 {
		dict, err := goToStarlark(argsToMap(inputs))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStarlarkExec, err)
		}
		args = starlark.Tuple{dict}
	}

	value, err := starlark.Call(thread, run, args, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStarlarkExec, err)
	}

	return &Result{
		Output:  starlarkToGo(value),
		Console: console.String(),
	}, nil
}

func goToStarlark(value any) (starlark.Value, error) {
	switch v := value.(type) {
	case nil:
		return starlark.None, nil
	case bool:
		return starlark.Bool(v), nil
	case int:
		return starlark.MakeInt(v), nil
	case int64:
		return starlark.MakeInt64(v), nil
	case float64:
		return starlark.Float(v), nil
	case string:
		return starlark.String(v), nil
	case []any:
		elems := make([]starlark.Value, len(v))
		for i, item := range v {
			converted, err := goToStarlark(item)
			if err != nil {
				return nil, err
			}
			elems[i] = converted
		}
		return starlark.NewList(elems), nil
	case map[string]any:
		dict := starlark.NewDict(len(v))
		for k, val := range v {
			converted, err := goToStarlark(val)
			if err != nil {
				return nil, err
			}
			if err := dict.SetKey(starlark.String(k), converted); err != nil {
				return nil, err
			}
		}
		return dict, nil
	default:
		return starlark.String(fmt.Sprintf("%v", v)), nil
	}
}

func starlarkToGo(value starlark.Value) any {
	switch v := value.(type) {
	case starlark.NoneType:
		return nil
	case starlark.Bool:
		return bool(v)
	case starlark.Int:
		if i, ok := v.Int64(); ok {
			return int(i)
		}
		return v.String()
	case starlark.Float:
		return float64(v)
	case starlark.String:
		return string(v)
	case *starlark.List:
		result := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			result[i] = starlarkToGo(v.Index(i))
		}
		return result
	case starlark.Tuple:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = starlarkToGo(item)
		}
		return result
	case *starlark.Dict:
		result := map[string]any{}
		for _, item := range v.Items() {
			key, ok := starlark.AsString(item[0])
			if !ok {
				key = item[0].String()
			}
			result[key] = starlarkToGo(item[1])
		}
		return result
	default:
		return value.String()
	}
}
