package celengine

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	"go.uber.org/fx"
)

var Module = fx.Module("celengine", fx.Provide(New))

// Engine compiles boolean CEL rules once and caches the program per
// expression and attribute shape.
type Engine struct {
	mu       sync.RWMutex
	programs map[string]cel.Program
}

func New() *Engine {
	return &Engine{programs: map[string]cel.Program{}}
}

// BuildEnv declares one CEL variable per attribute, typed from its Go value.
func BuildEnv(attrs map[string]any) (*cel.Env, error) {
	variables := make([]cel.EnvOption, 0, len(attrs))
	for key, val := range attrs {
		variables = append(variables, cel.Variable(key, celType(val)))
	}
	return cel.NewEnv(variables...)
}

func celType(val any) *cel.Type {
	switch v := val.(type) {
	case string:
		return cel.StringType
	case int, int32, int64:
		return cel.IntType
	case float32, float64:
		return cel.DoubleType
	case bool:
		return cel.BoolType
	case []any:
		if len(v) > 0 {
			if _, ok := v[0].(map[string]any); ok {
				return cel.ListType(cel.MapType(cel.StringType, cel.DynType))
			}
		}
		return cel.ListType(cel.DynType)
	case map[string]any:
		return cel.MapType(cel.StringType, cel.DynType)
	default:
		return cel.DynType
	}
}

// Compile type-checks expr against attrs and returns the cached program.
func (e *Engine) Compile(expr string, attrs map[string]any) (cel.Program, error) {
	key := cacheKey(expr, attrs)

	e.mu.RLock()
	prg, ok := e.programs[key]
	e.mu.RUnlock()
	if ok {
		return prg, nil
	}

	env, err := BuildEnv(attrs)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("expression %q must return bool, got %s", expr, ast.OutputType())
	}
	prg, err = env.Program(ast)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.programs[key] = prg
	e.mu.Unlock()
	return prg, nil
}

// Validate reports whether expr compiles to a boolean against attrs.
func (e *Engine) Validate(expr string, attrs map[string]any) error {
	_, err := e.Compile(expr, attrs)
	return err
}

func (e *Engine) Eval(expr string, attrs map[string]any) (bool, error) {
	prg, err := e.Compile(expr, attrs)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(attrs)
	if err != nil {
		return false, err
	}

	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expected bool from expression, got %T (%v)", out.Value(), out.Value())
	}
	return b, nil
}

func cacheKey(expr string, attrs map[string]any) string {
	names := make([]string, 0, len(attrs))
	for k, v := range attrs {
		names = append(names, k+":"+celType(v).String())
	}
	sort.Strings(names)
	return expr + "|" + strings.Join(names, ",")
}
