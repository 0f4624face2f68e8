package object

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"
)

// testRuntime is a minimal Runtime for the tests of this package.
type testRuntime struct {
	classes map[string]*ClassDefinition
	global  *GlobalScope
	source  *testSource
	logger  *slog.Logger
}

func newTestRuntime(classes ...*ClassDefinition) *testRuntime {
	rt := &testRuntime{
		classes: make(map[string]*ClassDefinition),
		source:  &testSource{functions: make(map[string]*FunctionDef), members: make(map[string]*ExtraMember)},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, c := range classes {
		rt.classes[c.Name] = c
	}
	rt.global = NewGlobalScope(rt, None, nil, rt.source)
	return rt
}

func (rt *testRuntime) IsAssignable(from, to string) bool {
	f, ok := rt.classes[from]
	if !ok {
		return false
	}
	t, ok := rt.classes[to]
	if !ok {
		return false
	}
	return f.IsSubclassOf(t)
}

func (rt *testRuntime) Marshaller() Marshaller              { return testMarshaller{} }
func (rt *testRuntime) Logger() *slog.Logger                { return rt.logger }
func (rt *testRuntime) LanguageVersion() string             { return DefaultLanguageVersion }
func (rt *testRuntime) GlobalScope() Scope                  { return rt.global }
func (rt *testRuntime) GlobalScopeFor(AccessModifier) Scope { return rt.global }

type testSource struct {
	functions map[string]*FunctionDef
	members   map[string]*ExtraMember
}

func (s *testSource) GlobalFunction(name string) (*FunctionDef, bool) {
	f, ok := s.functions[name]
	return f, ok
}

func (s *testSource) ExtraMember(_ AccessModifier, name string) (*ExtraMember, bool) {
	m, ok := s.members[name]
	return m, ok
}

// testMarshaller converts the handful of host types the tests use.
type testMarshaller struct{}

func (testMarshaller) ToScriptValue(t reflect.Type, v any) (Object, error) {
	switch v := v.(type) {
	case nil:
		return NIL, nil
	case Object:
		return v, nil
	case int:
		return &Number{Value: float64(v)}, nil
	case float64:
		return &Number{Value: v}, nil
	case string:
		return &String{Value: v}, nil
	case bool:
		return NativeBool(v), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrMarshalling, v)
}

func (testMarshaller) ToHostValue(obj Object, t reflect.Type) (any, error) {
	c, ok := obj.(HostConvertible)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMarshalling, obj.Type())
	}
	v, err := c.ToHost(t)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

func (m testMarshaller) ToHostArgs(args []Object, params []reflect.Type, _ bool) ([]any, error) {
	out := make([]any, len(params))
	for i, p := range params {
		if i >= len(args) {
			out[i] = reflect.Zero(p).Interface()
			continue
		}
		v, err := m.ToHostValue(args[i], p)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// script builds a script function definition.
func script(name string, access AccessModifier, ret TypeRef, run func(env Scope) (Object, error), params ...Parameter) *FunctionDef {
	return &FunctionDef{
		Name:   name,
		Access: access,
		Body:   ScriptBody{Chunk: ChunkFunc(run)},
		Params: ParameterInfo{Params: params},
		Return: ret,
	}
}

func mustAdd(c *ClassDefinition, defs ...*FunctionDef) *ClassDefinition {
	for _, d := range defs {
		if err := c.AddFunction(d); err != nil {
			panic(err)
		}
	}
	return c
}

// recordingAnnotation creates an annotation instance whose get and set hooks
// append to calls and override the value with override unless it is nil.
func recordingAnnotation(rt *testRuntime, name string, override Object, calls *[]string) *ClassInstance {
	hook := func(kind string) *FunctionDef {
		return script(kind, Local, Nullable(TypeTable), func(env Scope) (Object, error) {
			*calls = append(*calls, name+":"+kind)
			if override == nil {
				return NIL, nil
			}
			t := NewTable()
			t.SetString("override", override)
			return t, nil
		}, Parameter{Name: "value", Type: AnyType}, Parameter{Name: "name", Type: AnyType})
	}
	def := mustAdd(NewClassDefinition(name, ModeAnnotation), hook(MetaGetVariable.Name), hook(MetaSetVariable.Name))
	rt.classes[name] = def
	return NewClassInstance(rt, def)
}
