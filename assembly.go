// Package solscript assembles class, function and field definitions into a
// runtime scripts can be evaluated against.
//
// An Assembly is filled with definitions (DefineClass, DefineFunction,
// DefineField, RegisterNative, RegisterGlobal), built once with Build and then
// used to create instances with New. The evaluator works with the scopes
// returned by GlobalScope and by the instances.
package solscript

import (
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/PatrickSachs/SolScript-sub001/marshal"
	"github.com/PatrickSachs/SolScript-sub001/native"
	"github.com/PatrickSachs/SolScript-sub001/object"
	"golang.org/x/mod/semver"
)

// GlobalScopeOrder selects how the local and internal assembly global scopes
// are stacked on top of the public one.
type GlobalScopeOrder int

const (
	// LocalFirst resolves local, then internal, then public globals.
	LocalFirst GlobalScopeOrder = iota
	// InternalFirst resolves internal, then local, then public globals.
	InternalFirst
)

func (o GlobalScopeOrder) String() string {
	switch o {
	case LocalFirst:
		return "local-first"
	case InternalFirst:
		return "internal-first"
	}
	return fmt.Sprintf("GlobalScopeOrder(%d)", int(o))
}

// ParseGlobalScopeOrder parses the textual form returned by String. The empty
// string is LocalFirst.
func ParseGlobalScopeOrder(s string) (GlobalScopeOrder, error) {
	switch s {
	case "", "local-first":
		return LocalFirst, nil
	case "internal-first":
		return InternalFirst, nil
	}
	return LocalFirst, fmt.Errorf("unknown global scope order %q", s)
}

// Global is a library value created on first use.
type Global struct {
	Name   string
	Type   object.TypeRef
	Access object.AccessModifier
	New    func(a *Assembly) (object.Object, error)
	// ReadOnly globals cannot be reassigned by scripts.
	ReadOnly bool
}

// Assembly is the per-assembly context: the class graph, the global scopes,
// the native type registry and the marshaller.
type Assembly struct {
	logger          *slog.Logger
	languageVersion string
	order           GlobalScopeOrder

	classes    map[string]*object.ClassDefinition
	classOrder []string
	pending    []*ClassBuilder

	functions           map[string]*object.FunctionDef
	functionAnnotations map[string][]AnnotationBuilder
	fields              []*object.FieldDef
	pendingFields       []*FieldBuilder
	globals             map[string]*Global

	registry   *native.Registry
	marshaller *marshal.Marshaller

	scopes [3]*object.GlobalScope
	inner  *object.GlobalScope

	attempted    bool
	classesReady bool
	built        bool
	annotating   map[*object.ClassDefinition]bool
}

var (
	_ object.Runtime      = (*Assembly)(nil)
	_ object.GlobalSource = (*Assembly)(nil)
	_ marshal.Resolver    = (*Assembly)(nil)
)

// Option is a function that configures an Assembly.
type Option func(*Assembly) error

// WithLogger sets the logger of the assembly.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembly) error {
		a.logger = logger
		return nil
	}
}

// WithLanguageVersion sets the language version, a semantic version such as
// "v0.2.0". It selects the recognized meta functions.
func WithLanguageVersion(version string) Option {
	return func(a *Assembly) error {
		if !semver.IsValid(version) {
			return fmt.Errorf("invalid language version %q", version)
		}
		a.languageVersion = semver.Canonical(version)
		return nil
	}
}

// WithGlobalScopeOrder sets the stacking order of the global scopes.
func WithGlobalScopeOrder(order GlobalScopeOrder) Option {
	return func(a *Assembly) error {
		if order != LocalFirst && order != InternalFirst {
			return fmt.Errorf("unknown global scope order %d", int(order))
		}
		a.order = order
		return nil
	}
}

// WithGlobals registers library globals.
func WithGlobals(globals ...Global) Option {
	return func(a *Assembly) error {
		for _, g := range globals {
			if err := a.RegisterGlobal(g); err != nil {
				return err
			}
		}
		return nil
	}
}

// New creates an empty assembly.
func New(options ...Option) (*Assembly, error) {
	a := &Assembly{
		languageVersion:     object.DefaultLanguageVersion,
		classes:             make(map[string]*object.ClassDefinition),
		functions:           make(map[string]*object.FunctionDef),
		functionAnnotations: make(map[string][]AnnotationBuilder),
		globals:             make(map[string]*Global),
		annotating:          make(map[*object.ClassDefinition]bool),
		registry:            native.NewRegistry(),
	}
	for _, opt := range options {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
	a.marshaller = marshal.New(a, a.logger)

	public := object.NewGlobalScope(a, object.None, nil, a)
	a.scopes[object.None] = public
	switch a.order {
	case InternalFirst:
		a.scopes[object.Local] = object.NewGlobalScope(a, object.Local, public, a)
		a.scopes[object.Internal] = object.NewGlobalScope(a, object.Internal, a.scopes[object.Local], a)
		a.inner = a.scopes[object.Internal]
	default:
		a.scopes[object.Internal] = object.NewGlobalScope(a, object.Internal, public, a)
		a.scopes[object.Local] = object.NewGlobalScope(a, object.Local, a.scopes[object.Internal], a)
		a.inner = a.scopes[object.Local]
	}
	return a, nil
}

// IsAssignable reports whether class from is class to or extends it.
func (a *Assembly) IsAssignable(from, to string) bool {
	f, ok := a.classes[from]
	if !ok {
		return false
	}
	t, ok := a.classes[to]
	if !ok {
		return false
	}
	return f.IsSubclassOf(t)
}

// Marshaller returns the marshaller converting values for host code.
func (a *Assembly) Marshaller() object.Marshaller { return a.marshaller }

// Logger returns the logger of the assembly.
func (a *Assembly) Logger() *slog.Logger { return a.logger }

// LanguageVersion returns the configured language version.
func (a *Assembly) LanguageVersion() string { return a.languageVersion }

// GlobalScope returns the innermost global scope, the one scripts run in.
func (a *Assembly) GlobalScope() object.Scope { return a.inner }

// GlobalScopeFor returns the global scope of one access modifier.
func (a *Assembly) GlobalScopeFor(access object.AccessModifier) object.Scope {
	if access < object.None || access > object.Internal {
		return a.scopes[object.None]
	}
	return a.scopes[access]
}

// Class returns a class by name.
func (a *Assembly) Class(name string) (*object.ClassDefinition, bool) {
	c, ok := a.classes[name]
	return c, ok
}

// Classes returns the classes in definition order.
func (a *Assembly) Classes() []*object.ClassDefinition {
	out := make([]*object.ClassDefinition, 0, len(a.classOrder))
	for _, name := range a.classOrder {
		out = append(out, a.classes[name])
	}
	return out
}

// Registry returns the native type registry.
func (a *Assembly) Registry() *native.Registry { return a.registry }

// Fields returns the global fields declared by Build.
func (a *Assembly) Fields() []*object.FieldDef { return a.fields }

// Functions returns the global functions sorted by name.
func (a *Assembly) Functions() []*object.FunctionDef {
	out := make([]*object.FunctionDef, 0, len(a.functions))
	for _, def := range a.functions {
		out = append(out, def)
	}
	slices.SortFunc(out, func(x, y *object.FunctionDef) int { return strings.Compare(x.Name, y.Name) })
	return out
}

// IsBuilt reports whether Build succeeded.
func (a *Assembly) IsBuilt() bool { return a.built }

// GlobalFunction returns the global function name.
func (a *Assembly) GlobalFunction(name string) (*object.FunctionDef, bool) {
	def, ok := a.functions[name]
	return def, ok
}

// ExtraMember returns the lazily created globals of a global scope: library
// globals of that access and, in the public scope, the singleton classes.
func (a *Assembly) ExtraMember(access object.AccessModifier, name string) (*object.ExtraMember, bool) {
	if g, ok := a.globals[name]; ok && g.Access == access {
		return &object.ExtraMember{
			Type:     g.Type,
			New:      func() (object.Object, error) { return g.New(a) },
			ReadOnly: g.ReadOnly,
		}, true
	}
	if access != object.None || !a.classesReady {
		return nil, false
	}
	def, ok := a.classes[name]
	if !ok || def.Mode != object.ModeSingleton {
		return nil, false
	}
	return &object.ExtraMember{
		Type: object.NonNull(def.Name),
		New: func() (object.Object, error) {
			a.logger.Debug("creating singleton", slog.String("class", def.Name))
			inst, err := a.create(def, nil)
			if err != nil {
				return nil, err
			}
			return inst, nil
		},
		ReadOnly: true,
	}, true
}

// ClassForHostType returns the class registered for a host type.
func (a *Assembly) ClassForHostType(t reflect.Type) (*object.ClassDefinition, bool) {
	b, ok := a.registry.Lookup(t)
	if !ok {
		return nil, false
	}
	def, ok := a.classes[b.Name]
	return def, ok
}

// WrapHost creates an instance backed by an existing host object. Script field
// initializers and constructors do not run.
func (a *Assembly) WrapHost(def *object.ClassDefinition, host any) (*object.ClassInstance, error) {
	inst := object.NewClassInstance(a, def)
	if err := inst.BindNative(host); err != nil {
		return nil, err
	}
	if err := inst.DeclareFields(); err != nil {
		return nil, err
	}
	inst.MarkInitialized()
	return inst, nil
}

// RegisterGlobal adds a library global.
func (a *Assembly) RegisterGlobal(g Global) error {
	if a.attempted {
		return ErrAlreadyBuilt
	}
	if g.Name == "" || g.New == nil {
		return fmt.Errorf("global %q needs a name and a constructor", g.Name)
	}
	if a.isGlobalName(g.Name) {
		return fmt.Errorf("global %s: %w", g.Name, object.ErrAlreadyDeclared)
	}
	a.globals[g.Name] = &g
	return nil
}
