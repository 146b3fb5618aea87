package ext

import (
	"errors"
	"fmt"
	"time"

	"github.com/Shopify/go-lua"

	"github.com/kode4food/bpmspec/pkg/spec"
	"github.com/kode4food/bpmspec/pkg/value"
)

// LuaCheck runs a Lua chunk against the collected variables of a scenario.
// The chunk sees a copy of the variables as the global table
// vars and the active instance as instance_id. Returning false, or raising
// an error, fails the scenario
type LuaCheck struct {
	script string
}

const (
	luaGlobalTableIndex = -2
	luaTableIndex       = -3
	luaGlobalTableName  = "_G"
	luaVarsName         = "vars"
	instanceIDVar       = "instance_id"
)

var (
	ErrLuaLoad      = errors.New("lua load error")
	ErrLuaExecution = errors.New("lua execution error")
	ErrLuaRejected  = errors.New("lua check returned false")
)

var luaExclude = [...]string{
	"io", "os", "debug", "package", "require", "dofile", "loadfile", "load",
}

// Lua creates a LuaCheck for the given chunk
func Lua(script string) *LuaCheck {
	return &LuaCheck{script: script}
}

func (c *LuaCheck) ActionName() string {
	return "lua"
}

// Validate checks that the chunk compiles without running it
func (c *LuaCheck) Validate() error {
	L := lua.NewState()
	setupSandbox(L)
	if err := lua.LoadString(L, c.script); err != nil {
		return fmt.Errorf("%w: %w", ErrLuaLoad, err)
	}
	return nil
}

func (c *LuaCheck) Execute(s *spec.Scenario) error {
	L := lua.NewState()
	setupSandbox(L)

	pushVariables(L, s.Vars())
	L.SetGlobal(luaVarsName)
	if p := s.ProcessInstance(); p != nil {
		L.PushString(string(p.ID))
		L.SetGlobal(instanceIDVar)
	}

	if err := lua.LoadString(L, c.script); err != nil {
		return fmt.Errorf("%w: %w", ErrLuaLoad, err)
	}
	if err := L.ProtectedCall(0, 1, 0); err != nil {
		return fmt.Errorf("%w: %w", ErrLuaExecution, err)
	}
	defer L.Pop(1)

	if L.IsBoolean(-1) && !L.ToBoolean(-1) {
		return ErrLuaRejected
	}
	return nil
}

func setupSandbox(L *lua.State) {
	lua.OpenLibraries(L)
	L.Global(luaGlobalTableName)
	for _, name := range luaExclude {
		L.PushNil()
		L.SetField(luaGlobalTableIndex, name)
	}
	L.Pop(1)
}

func pushVariables(L *lua.State, vars value.Variables) {
	L.CreateTable(0, len(vars))
	for name, v := range vars {
		L.PushString(name)
		goToLua(L, v.Native())
		L.SetTable(luaTableIndex)
	}
}

func goToLua(L *lua.State, v any) {
	switch v := v.(type) {
	case string:
		L.PushString(v)
	case bool:
		L.PushBoolean(v)
	case int64:
		L.PushNumber(float64(v))
	case float64:
		L.PushNumber(v)
	case time.Time:
		L.PushString(v.UTC().Format(time.RFC3339))
	case []any:
		L.CreateTable(len(v), 0)
		for i, item := range v {
			L.PushInteger(i + 1)
			goToLua(L, item)
			L.SetTable(luaTableIndex)
		}
	case map[string]any:
		L.CreateTable(0, len(v))
		for k, item := range v {
			L.PushString(k)
			goToLua(L, item)
			L.SetTable(luaTableIndex)
		}
	case nil:
		L.PushNil()
	default:
		L.PushString(fmt.Sprintf("%v", v))
	}
}
