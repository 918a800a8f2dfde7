package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kode4food/ale"
	"github.com/kode4food/ale/core/bootstrap"
	"github.com/kode4food/ale/data"
	"github.com/kode4food/ale/env"
	"github.com/kode4food/ale/eval"

	"github.com/weftlabs/weft/pkg/api"
)

// AleRunner executes ale steps in-process. The step code is the body of
// a single-argument lambda receiving the inputs map; compiled procedures
// are cached by script hash
type AleRunner struct {
	env     *env.Environment
	scripts sync.Map
}

const aleLambdaTemplate = "(lambda (inputs) %s)"

var (
	ErrAleNotProcedure = errors.New("ale step did not compile to a procedure")
	ErrAleCompile      = errors.New("ale compile error")
	ErrAleCall         = errors.New("ale execution error")
)

// NewAleRunner creates an ale runner with a bootstrapped environment
func NewAleRunner() *AleRunner {
	e := env.NewEnvironment()
	bootstrap.Into(e)
	return &AleRunner{
		env: e,
	}
}

func (r *AleRunner) Run(
	_ context.Context, step *api.Step, inputs api.Args,
) (*Result, error) {
	if step.Code == "" {
		return nil, fmt.Errorf(
			"%w: ale step %q has no code", api.ErrInvalidPayload, step.Name,
		)
	}

	proc, err := r.compile(step.Code)
	if err != nil {
		return nil, err
	}

	result, err := r.call(proc, goToAle(argsToMap(inputs)))
	if err != nil {
		return nil, err
	}

	return &Result{Output: aleToGo(result)}, nil
}

func (r *AleRunner) compile(script string) (data.Procedure, error) {
	key := hashPayload(script)
	if val, ok := r.scripts.Load(key); ok {
		return val.(data.Procedure), nil
	}

	proc, err := catchPanic(ErrAleCompile,
		func() (data.Procedure, error) {
			src := fmt.Sprintf(aleLambdaTemplate, script)
			ns := r.env.GetAnonymous()
			res, err := eval.String(ns, data.String(src))
			if err != nil {
				return nil, err
			}

			proc, ok := res.(data.Procedure)
			if !ok {
				return nil, fmt.Errorf("%w, got: %T", ErrAleNotProcedure, res)
			}
			return proc, nil
		},
	)
	if err != nil {
		return nil, err
	}

	r.scripts.Store(key, proc)
	return proc, nil
}

func (r *AleRunner) call(
	proc data.Procedure, arg ale.Value,
) (ale.Value, error) {
	return catchPanic(ErrAleCall,
		func() (ale.Value, error) {
			return proc.Call(arg), nil
		},
	)
}

func catchPanic[T any](
	wrap error, fn func() (T, error),
) (res T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", wrap, r)
		}
	}()
	return fn()
}

func goToAle(value any) ale.Value {
	switch v := value.(type) {
	case string:
		return data.String(v)
	case bool:
		return data.Bool(v)
	case int:
		return data.Integer(v)
	case int64:
		return data.Integer(v)
	case float64:
		return data.Float(v)
	case []any:
		return goArrayToAle(v)
	case map[string]any:
		return goMapToAle(v)
	case nil:
		return data.Null
	default:
		return data.String(fmt.Sprintf("%v", v))
	}
}

func goArrayToAle(arr []any) data.Vector {
	vec := make(data.Vector, len(arr))
	for i, item := range arr {
		vec[i] = goToAle(item)
	}
	return vec
}

func goMapToAle(m map[string]any) *data.Object {
	obj := data.NewObject()
	for k, val := range m {
		pair := data.NewCons(data.Keyword(k), goToAle(val))
		obj = obj.Put(pair).(*data.Object)
	}
	return obj
}

func aleToGo(value ale.Value) any {
	switch v := value.(type) {
	case data.Bool:
		return bool(v)
	case data.Keyword:
		return string(v)
	case data.Integer:
		return int(v)
	case data.Float:
		return float64(v)
	case data.String:
		return string(v)
	case data.Vector:
		return aleVectorToGo(v)
	case *data.List:
		return aleListToGo(v)
	case *data.Object:
		return aleObjectToGo(v)
	default:
		return aleDefaultToGo(value, v)
	}
}

func aleVectorToGo(v data.Vector) []any {
	result := make([]any, len(v))
	for i, item := range v {
		result[i] = aleToGo(item)
	}
	return result
}

func aleListToGo(list *data.List) []any {
	var result []any
	for l := list; !l.IsEmpty(); {
		head, tail, ok := l.Split()
		if !ok {
			break
		}
		result = append(result, aleToGo(head))
		l = tail.(*data.List)
	}
	return result
}

func aleObjectToGo(obj *data.Object) map[string]any {
	result := map[string]any{}
	for _, pair := range obj.Pairs() {
		keyStr := fmt.Sprintf("%v", aleToGo(pair.Car()))
		result[keyStr] = aleToGo(pair.Cdr())
	}
	return result
}

func aleDefaultToGo(value ale.Value, v any) any {
	if value == data.Null {
		return nil
	}
	return fmt.Sprintf("%v", v)
}
