package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Shopify/go-lua"
	"github.com/kode4food/lru"

	"github.com/weftlabs/weft/pkg/api"
)

type (
	// LuaRunner executes lua steps in-process with pooled, sandboxed
	// interpreter states and a bytecode cache keyed by script hash
	LuaRunner struct {
		cache     *lru.Cache[[]byte]
		statePool chan *lua.State
	}
)

const (
	luaCacheSize        = 4096
	luaStatePoolSize    = 10
	luaGlobalTableIndex = -2
	luaArrayTableIndex  = -3
	luaMapTableIndex    = -3
	luaGlobalTableName  = "_G"
	luaPrintSeparator   = "\t"
)

var (
	ErrLuaLoad      = errors.New("lua load error")
	ErrLuaExecution = errors.New("lua execution error")
	ErrLuaNoRun     = errors.New("lua step does not define a run function")
)

var luaExclude = [...]string{
	"io", "os", "debug", "package", "require", "dofile", "loadfile", "load",
}

// NewLuaRunner creates a lua runner with a state pool for efficient
// interpreter reuse
func NewLuaRunner() *LuaRunner {
	return &LuaRunner{
		cache:     lru.NewCache[[]byte](luaCacheSize),
		statePool: make(chan *lua.State, luaStatePoolSize),
	}
}

// Run loads the step's chunk, which must define a run function, and
// calls it with the inputs table (or no argument when there are no
// inputs). The function's result converts back to the JSON value model
func (r *LuaRunner) Run(
	_ context.Context, step *api.Step, inputs api.Args,
) (*Result, error) {
	if step.Code == "" {
		return nil, fmt.Errorf(
			"%w: lua step %q has no code", api.ErrInvalidPayload, step.Name,
		)
	}

	bytecode, err := r.cache.Get(hashPayload(step.Code), func() ([]byte, error) {
		return r.compile(step.Code)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLuaLoad, err)
	}

	L := r.getState()
	defer r.returnState(L)

	var console bytes.Buffer
	r.setupSandbox(L)
	installPrint(L, &console)

	// a pooled state retains globals from its previous step
	L.PushNil()
	L.SetGlobal(runFunction)

	if err := L.Load(bytes.NewReader(bytecode), string(step.Name), "b"); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLuaLoad, err)
	}
	if err := L.ProtectedCall(0, 0, 0); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLuaExecution, err)
	}

	L.Global(runFunction)
	if !L.IsFunction(-1) {
		L.Pop(1)
		return nil, fmt.Errorf("%w: step %q", ErrLuaNoRun, step.Name)
	}

	argCount := 0
	if len(inputs) > 0 {
		pushLuaMap(L, argsToMap(inputs))
		argCount = 1
	}

	if err := L.ProtectedCall(argCount, 1, 0); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLuaExecution, err)
	}

	output := luaToGo(L, -1)
	L.Pop(1)

	return &Result{Output: output, Console: console.String()}, nil
}

func (r *LuaRunner) compile(src string) ([]byte, error) {
	L := lua.NewState()
	r.setupSandbox(L)

	if err := lua.LoadString(L, src); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := L.Dump(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *LuaRunner) setupSandbox(L *lua.State) {
	lua.OpenLibraries(L)
	L.Global(luaGlobalTableName)
	for _, name := range luaExclude {
		L.PushNil()
		L.SetField(luaGlobalTableIndex, name)
	}
	L.Pop(1)
}

func (r *LuaRunner) getState() *lua.State {
	select {
	case L := <-r.statePool:
		return L
	default:
		return lua.NewState()
	}
}

func (r *LuaRunner) returnState(L *lua.State) {
	L.SetTop(0)

	select {
	case r.statePool <- L:
	default:
	}
}

// installPrint redirects the lua print function into the step's console
// buffer so captured output never interleaves with engine logging
func installPrint(L *lua.State, console *bytes.Buffer) {
	L.PushGoFunction(func(l *lua.State) int {
		top := l.Top()
		parts := make([]string, 0, top)
		for i := 1; i <= top; i++ {
			parts = append(parts, fmt.Sprintf("%v", luaToGo(l, i)))
		}
		console.WriteString(strings.Join(parts, luaPrintSeparator))
		console.WriteByte('\n')
		return 0
	})
	L.SetGlobal("print")
}

func goToLua(L *lua.State, value any) {
	switch v := value.(type) {
	case string:
		L.PushString(v)
	case bool:
		L.PushBoolean(v)
	case int:
		L.PushInteger(v)
	case int64:
		L.PushInteger(int(v))
	case float64:
		L.PushNumber(v)
	case []any:
		pushLuaArray(L, v)
	case map[string]any:
		pushLuaMap(L, v)
	case nil:
		L.PushNil()
	default:
		L.PushString(fmt.Sprintf("%v", v))
	}
}

func pushLuaArray(L *lua.State, arr []any) {
	L.CreateTable(len(arr), 0)
	for i, item := range arr {
		L.PushInteger(i + 1)
		goToLua(L, item)
		L.SetTable(luaArrayTableIndex)
	}
}

func pushLuaMap(L *lua.State, m map[string]any) {
	L.CreateTable(0, len(m))
	for k, val := range m {
		L.PushString(k)
		goToLua(L, val)
		L.SetTable(luaMapTableIndex)
	}
}

func luaNumberToGo(L *lua.State, index int) any {
	num, _ := L.ToNumber(index)
	if num == float64(int(num)) {
		return int(num)
	}
	return num
}

func luaToGo(L *lua.State, index int) any {
	switch L.TypeOf(index) {
	case lua.TypeNil:
		return nil
	case lua.TypeBoolean:
		return L.ToBoolean(index)
	case lua.TypeNumber:
		return luaNumberToGo(L, index)
	case lua.TypeString:
		s, _ := L.ToString(index)
		return s
	case lua.TypeTable:
		return luaTableToGo(L, index)
	default:
		return nil
	}
}

func luaTableToGo(L *lua.State, index int) any {
	isArray := true
	length := 0

	L.PushNil()
	for L.Next(index - 1) {
		if !L.IsNumber(-2) {
			isArray = false
			L.Pop(2)
			break
		}
		length++
		L.Pop(1)
	}

	if isArray && length > 0 {
		return convertLuaArray(L, index, length)
	}

	result := map[string]any{}
	L.PushNil()
	for L.Next(index - 1) {
		var key string
		if !L.IsString(-2) {
			key = fmt.Sprintf("%v", luaToGo(L, -2))
			result[key] = luaToGo(L, -1)
			L.Pop(1)
			continue
		}
		key, _ = L.ToString(-2)
		result[key] = luaToGo(L, -1)
		L.Pop(1)
	}

	return result
}

func convertLuaArray(L *lua.State, index, length int) []any {
	arr := make([]any, length)
	absIndex := index
	if index < 0 {
		absIndex = L.Top() + index + 1
	}
	for i := 1; i <= length; i++ {
		L.RawGetInt(absIndex, i)
		arr[i-1] = luaToGo(L, -1)
		L.Pop(1)
	}
	return arr
}
