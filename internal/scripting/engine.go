// Package scripting runs user-supplied Lua property functions. Materials use
// it to compute per-point values without recompiling the framework.
package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for property evaluation.
// Single-goroutine access only (the step loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all .lua files from scriptsDir.
// A missing directory is fine; materials then fall back to their constant
// values.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load property scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded property script", zap.String("file", path))
	}
	return nil
}

// Close releases the VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// HasFunc reports whether a global Lua function with the given name exists.
// Non-function globals (API_VERSION, script-local tables) do not count.
func (e *Engine) HasFunc(name string) bool {
	return e.vm.GetGlobal(name).Type() == lua.LTFunction
}

// PointContext is the per-point input passed to a property function.
type PointContext struct {
	Step   int64   // current time step
	Point  int     // evaluation point index within the region
	Region int64   // region ID being evaluated
	Old    float64 // the property's value at this point one step ago
}

// EvalScalar calls the named Lua function with a context table and returns
// its numeric result. The Lua side sees { step, point, region, old }.
func (e *Engine) EvalScalar(name string, ctx PointContext) (float64, error) {
	fn := e.vm.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return 0, fmt.Errorf("lua function %s not found", name)
	}

	t := e.vm.NewTable()
	t.RawSetString("step", lua.LNumber(ctx.Step))
	t.RawSetString("point", lua.LNumber(ctx.Point))
	t.RawSetString("region", lua.LNumber(ctx.Region))
	t.RawSetString("old", lua.LNumber(ctx.Old))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		return 0, fmt.Errorf("lua %s: %w", name, err)
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	n, ok := result.(lua.LNumber)
	if !ok {
		return 0, fmt.Errorf("lua %s returned %s, want number", name, result.Type())
	}
	return float64(n), nil
}
