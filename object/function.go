package object

import (
	"fmt"

	"github.com/PatrickSachs/SolScript-sub001/native"
)

// AccessModifier controls from which scopes a member can be resolved.
type AccessModifier int

const (
	// None is public access.
	None AccessModifier = iota
	Local
	Internal
)

func (a AccessModifier) String() string {
	switch a {
	case None:
		return "none"
	case Local:
		return "local"
	case Internal:
		return "internal"
	}
	return fmt.Sprintf("AccessModifier(%d)", int(a))
}

// ParseAccessModifier parses the textual form returned by String. The empty
// string is None.
func ParseAccessModifier(s string) (AccessModifier, error) {
	switch s {
	case "", "none", "public":
		return None, nil
	case "local":
		return Local, nil
	case "internal":
		return Internal, nil
	}
	return None, fmt.Errorf("unknown access modifier %q", s)
}

// MemberModifier marks abstract and overriding functions.
type MemberModifier int

const (
	NoMember MemberModifier = iota
	Abstract
	Override
)

func (m MemberModifier) String() string {
	switch m {
	case NoMember:
		return "none"
	case Abstract:
		return "abstract"
	case Override:
		return "override"
	}
	return fmt.Sprintf("MemberModifier(%d)", int(m))
}

// ParseMemberModifier parses the textual form returned by String.
func ParseMemberModifier(s string) (MemberModifier, error) {
	switch s {
	case "", "none":
		return NoMember, nil
	case "abstract":
		return Abstract, nil
	case "override":
		return Override, nil
	}
	return NoMember, fmt.Errorf("unknown member modifier %q", s)
}

// Parameter is one declared parameter.
type Parameter struct {
	Name string
	Type TypeRef
}

// ParameterInfo describes the parameters of a function. Extra arguments of a
// variadic function are collected into a table named "args".
type ParameterInfo struct {
	Params   []Parameter
	Variadic bool
}

// FunctionBody is the implementation of a function: ScriptBody,
// NativeMethodBody or NativeConstructorBody.
type FunctionBody interface {
	kind() string
}

// ScriptBody is a function implemented in script code.
type ScriptBody struct {
	Chunk Chunk
}

// NativeMethodBody is a function implemented by a host method.
type NativeMethodBody struct {
	Method native.Method
}

// NativeConstructorBody constructs the native object of an instance. The first
// constructor accepting the argument count is used.
type NativeConstructorBody struct {
	Constructors []native.Constructor
}

func (ScriptBody) kind() string            { return "script" }
func (NativeMethodBody) kind() string      { return "native method" }
func (NativeConstructorBody) kind() string { return "native constructor" }

// FunctionDef is the definition of a class or global function.
type FunctionDef struct {
	Name   string
	Access AccessModifier
	Member MemberModifier
	Body   FunctionBody
	Params ParameterInfo
	Return TypeRef
	// DefinedIn is nil for global functions.
	DefinedIn   *ClassDefinition
	Annotations []AnnotationDef
}

// Function is a callable script value.
type Function interface {
	Object
	Definition() *FunctionDef
	Call(args ...Object) (Object, error)
}

// newFunction picks the function implementation for the body of def.
func newFunction(rt Runtime, def *FunctionDef, inst *ClassInstance) (Function, error) {
	switch body := def.Body.(type) {
	case ScriptBody:
		if body.Chunk == nil {
			return nil, fmt.Errorf("function %s has no body", def.Name)
		}
		return &ScriptFunction{rt: rt, def: def, inst: inst}, nil
	case NativeMethodBody:
		return &NativeMemberFunction{rt: rt, def: def, inst: inst, method: body.Method}, nil
	case NativeConstructorBody:
		if inst == nil {
			return nil, fmt.Errorf("native constructor %s needs an instance", def.Name)
		}
		return &NativeConstructorFunction{rt: rt, def: def, inst: inst, ctors: body.Constructors}, nil
	case nil:
		return nil, fmt.Errorf("function %s has no body", def.Name)
	default:
		return nil, fmt.Errorf("function %s has unsupported body %T", def.Name, body)
	}
}

// --- Script Function ---

// ScriptFunction runs a script chunk in a fresh chunk scope. Member functions
// chain that scope to the Local scope of the level they are defined at.
type ScriptFunction struct {
	rt   Runtime
	def  *FunctionDef
	inst *ClassInstance
}

// Type returns the type of the ScriptFunction object.
func (f *ScriptFunction) Type() ObjectType { return FUNCTION_OBJ }

// Inspect returns a string representation of the function.
func (f *ScriptFunction) Inspect() string { return inspectFunction(f.def) }

// Definition returns the function definition.
func (f *ScriptFunction) Definition() *FunctionDef { return f.def }

// Instance returns the instance the function is bound to, or nil.
func (f *ScriptFunction) Instance() *ClassInstance { return f.inst }

// Call binds args to the parameters and runs the body.
func (f *ScriptFunction) Call(args ...Object) (Object, error) {
	var parent Scope
	if f.inst != nil && f.def.DefinedIn != nil {
		level, ok := f.inst.levelOf(f.def.DefinedIn)
		if !ok {
			return nil, fmt.Errorf("function %s: class %s is not a level of %s", f.def.Name, f.def.DefinedIn.Name, f.inst.def.Name)
		}
		parent = f.inst.levels[level].local
	} else {
		parent = f.rt.GlobalScope()
	}
	env := NewChunkScope(f.rt, parent)
	if err := bindParameters(env, f.def, args); err != nil {
		return nil, err
	}
	res, err := f.def.Body.(ScriptBody).Chunk.Run(env)
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = NIL
	}
	ret := f.def.Return
	if ret.IsZero() {
		ret = AnyType
	}
	if !ret.Accepts(f.rt, res) {
		return nil, fmt.Errorf("%w: function %s returned %s, want %s", ErrTypeMismatch, f.def.Name, TypeOf(res), ret)
	}
	return res, nil
}

func bindParameters(env Scope, def *FunctionDef, args []Object) error {
	params := def.Params.Params
	if len(args) > len(params) && !def.Params.Variadic {
		return fmt.Errorf("function %s: want %d arguments, got %d", def.Name, len(params), len(args))
	}
	for i, p := range params {
		if err := env.Declare(p.Name, p.Type); err != nil {
			return fmt.Errorf("function %s: %w", def.Name, err)
		}
		var v Object = NIL
		if i < len(args) {
			v = args[i]
		} else if !p.Type.IsZero() && !p.Type.CanBeNil {
			return fmt.Errorf("function %s: missing argument %s", def.Name, p.Name)
		}
		if err := env.Assign(p.Name, v); err != nil {
			return fmt.Errorf("function %s: %w", def.Name, err)
		}
	}
	if def.Params.Variadic {
		var rest []Object
		if len(args) > len(params) {
			rest = args[len(params):]
		}
		if err := env.Declare("args", NonNull(TypeTable)); err != nil {
			return fmt.Errorf("function %s: %w", def.Name, err)
		}
		if err := env.Assign("args", NewArrayTable(rest...)); err != nil {
			return fmt.Errorf("function %s: %w", def.Name, err)
		}
	}
	return nil
}

// --- Native Member Function ---

// NativeMemberFunction calls a host method on the native object of its instance.
type NativeMemberFunction struct {
	rt     Runtime
	def    *FunctionDef
	inst   *ClassInstance
	method native.Method
}

// Type returns the type of the NativeMemberFunction object.
func (f *NativeMemberFunction) Type() ObjectType { return FUNCTION_OBJ }

// Inspect returns a string representation of the function.
func (f *NativeMemberFunction) Inspect() string { return inspectFunction(f.def) }

// Definition returns the function definition.
func (f *NativeMemberFunction) Definition() *FunctionDef { return f.def }

// Call marshals args, invokes the host method and marshals the result back.
func (f *NativeMemberFunction) Call(args ...Object) (Object, error) {
	var target any
	if f.inst != nil {
		t, err := f.inst.native.Retrieve()
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", f.def.Name, err)
		}
		target = t
	}
	m := f.rt.Marshaller()
	hostArgs, err := m.ToHostArgs(args, f.method.Params, f.method.Variadic)
	if err != nil {
		return nil, fmt.Errorf("function %s: %w", f.def.Name, err)
	}
	res, err := f.method.Invoke(target, hostArgs)
	if err != nil {
		return nil, err
	}
	return m.ToScriptValue(f.method.Return, res)
}

// --- Native Constructor Function ---

// NativeConstructorFunction creates and binds the native object of its instance.
type NativeConstructorFunction struct {
	rt    Runtime
	def   *FunctionDef
	inst  *ClassInstance
	ctors []native.Constructor
}

// Type returns the type of the NativeConstructorFunction object.
func (f *NativeConstructorFunction) Type() ObjectType { return FUNCTION_OBJ }

// Inspect returns a string representation of the function.
func (f *NativeConstructorFunction) Inspect() string { return inspectFunction(f.def) }

// Definition returns the function definition.
func (f *NativeConstructorFunction) Definition() *FunctionDef { return f.def }

// Call runs the first constructor accepting len(args) arguments.
func (f *NativeConstructorFunction) Call(args ...Object) (Object, error) {
	for _, c := range f.ctors {
		if !c.Accepts(len(args)) {
			continue
		}
		hostArgs, err := f.rt.Marshaller().ToHostArgs(args, c.Params, c.Variadic)
		if err != nil {
			return nil, fmt.Errorf("constructor of %s: %w", f.inst.def.Name, err)
		}
		obj, err := c.Invoke(hostArgs)
		if err != nil {
			return nil, err
		}
		if err := f.inst.BindNative(obj); err != nil {
			return nil, fmt.Errorf("constructor of %s: %w", f.inst.def.Name, err)
		}
		return NIL, nil
	}
	return nil, fmt.Errorf("class %s has no native constructor taking %d arguments", f.inst.def.Name, len(args))
}

func inspectFunction(def *FunctionDef) string {
	if def.DefinedIn != nil {
		return "function " + def.DefinedIn.Name + "." + def.Name
	}
	return "function " + def.Name
}
