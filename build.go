package solscript

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/PatrickSachs/SolScript-sub001/marshal"
	"github.com/PatrickSachs/SolScript-sub001/object"
	"golang.org/x/sync/errgroup"
)

// Build resolves the class graph, validates the meta functions of every class
// and declares and initializes the global fields. It can only be called once;
// definitions cannot be added afterwards.
func (a *Assembly) Build(ctx context.Context) error {
	if a.attempted {
		return ErrAlreadyBuilt
	}
	a.attempted = true

	if err := a.buildClasses(); err != nil {
		a.logger.ErrorContext(ctx, "assembly build failed", slog.String("phase", "classes"), slog.Any("error", err))
		return err
	}
	if err := a.validateClasses(ctx); err != nil {
		a.logger.ErrorContext(ctx, "assembly build failed", slog.String("phase", "meta functions"), slog.Any("error", err))
		return err
	}
	a.classesReady = true
	if err := a.declareGlobalFields(); err != nil {
		a.logger.ErrorContext(ctx, "assembly build failed", slog.String("phase", "global fields"), slog.Any("error", err))
		return err
	}
	a.built = true
	a.logger.DebugContext(ctx, "assembly built",
		slog.Int("classes", len(a.classes)),
		slog.Int("functions", len(a.functions)),
		slog.Int("fields", len(a.fields)),
		slog.String("languageVersion", a.languageVersion))
	return nil
}

func (a *Assembly) buildClasses() error {
	for _, def := range a.Classes() {
		if def.Native != nil {
			if err := a.addNativeMembers(def); err != nil {
				return err
			}
		}
	}
	for _, b := range a.pending {
		if b.Base == "" {
			continue
		}
		def := a.classes[b.Name]
		base, ok := a.classes[b.Base]
		if !ok {
			return fmt.Errorf("class %s: base %s: %w", b.Name, b.Base, ErrUnknownClass)
		}
		if !base.CanBeInherited() {
			return fmt.Errorf("class %s: base %s is %s: %w", b.Name, base.Name, base.Mode, ErrNotInheritable)
		}
		def.Base = base
	}
	for _, def := range a.Classes() {
		if err := checkCycle(def); err != nil {
			return err
		}
	}
	for _, b := range a.pending {
		if err := a.addMembers(a.classes[b.Name], b); err != nil {
			return err
		}
	}
	for _, def := range a.Classes() {
		if err := checkInheritedMembers(def); err != nil {
			return err
		}
	}
	for _, def := range a.Classes() {
		def.LanguageVersion = a.languageVersion
		for _, fn := range def.Functions() {
			if fn.Member != object.Override {
				continue
			}
			if def.Base == nil {
				return fmt.Errorf("class %s: function %s: %w", def.Name, fn.Name, ErrNothingToOverride)
			}
			if _, ok := def.Base.TryGetFunction(fn.Name, false, nil); !ok {
				return fmt.Errorf("class %s: function %s: %w", def.Name, fn.Name, ErrNothingToOverride)
			}
		}
	}
	for name, builders := range a.functionAnnotations {
		anns, err := a.resolveAnnotations(builders)
		if err != nil {
			return fmt.Errorf("global function %s: %w", name, err)
		}
		a.functions[name].Annotations = anns
	}
	for name := range a.globals {
		if def, ok := a.classes[name]; ok && def.Mode == object.ModeSingleton {
			return fmt.Errorf("singleton %s clashes with a global: %w", name, object.ErrAlreadyDeclared)
		}
	}
	return nil
}

// checkInheritedMembers rejects member layouts instances of def cannot be
// created with. Internal and public fields of all levels share one table each,
// so their names must be unique along the chain. A native object is bound
// only by the native constructor, so no level above a native one may define
// __new.
func checkInheritedMembers(def *object.ClassDefinition) error {
	if def.Base == nil {
		return nil
	}
	for _, f := range def.Fields() {
		if f.Access == object.Local {
			continue
		}
		for level := def.Base; level != nil; level = level.Base {
			if bf, ok := level.Field(f.Name); ok && bf.Access != object.Local {
				return fmt.Errorf("class %s: field %s is already declared by %s: %w",
					def.Name, f.Name, level.Name, ErrFieldRedeclared)
			}
		}
	}
	for level := def.Base; level != nil; level = level.Base {
		if level.Native == nil {
			continue
		}
		ctor, ok := def.TryGetFunction(object.MetaNew.Name, false, nil)
		if ok && ctor.DefinedIn != level {
			return fmt.Errorf("class %s: %s defined in %s above native class %s: %w",
				def.Name, object.MetaNew.Name, ctor.DefinedIn.Name, level.Name, ErrNativeConstructor)
		}
		break
	}
	return nil
}

func checkCycle(def *object.ClassDefinition) error {
	seen := map[*object.ClassDefinition]bool{}
	for cur := def; cur != nil; cur = cur.Base {
		if seen[cur] {
			return fmt.Errorf("class %s: %w", def.Name, ErrInheritanceCycle)
		}
		seen[cur] = true
	}
	return nil
}

func (a *Assembly) addMembers(def *object.ClassDefinition, b *ClassBuilder) error {
	anns, err := a.resolveAnnotations(b.Annotations)
	if err != nil {
		return fmt.Errorf("class %s: %w", def.Name, err)
	}
	def.Annotations = anns

	for _, fb := range b.Fields {
		anns, err := a.resolveAnnotations(fb.Annotations)
		if err != nil {
			return fmt.Errorf("class %s: field %s: %w", def.Name, fb.Name, err)
		}
		f := &object.FieldDef{
			Name:        fb.Name,
			Type:        fb.Type,
			Access:      fb.Access,
			Initializer: fb.Initializer,
			Annotations: anns,
		}
		if err := def.AddField(f); err != nil {
			return err
		}
	}
	for _, fb := range b.Functions {
		if fb.Body == nil && fb.Member != object.Abstract {
			return fmt.Errorf("class %s: function %s: %w", def.Name, fb.Name, ErrMissingBody)
		}
		anns, err := a.resolveAnnotations(fb.Annotations)
		if err != nil {
			return fmt.Errorf("class %s: function %s: %w", def.Name, fb.Name, err)
		}
		fn := fb.definition()
		fn.Annotations = anns
		if err := def.AddFunction(fn); err != nil {
			return err
		}
	}
	return nil
}

func (a *Assembly) resolveAnnotations(builders []AnnotationBuilder) ([]object.AnnotationDef, error) {
	var out []object.AnnotationDef
	for _, ab := range builders {
		def, ok := a.classes[ab.Class]
		if !ok {
			return nil, fmt.Errorf("annotation %s: %w", ab.Class, ErrUnknownClass)
		}
		if def.Mode != object.ModeAnnotation {
			return nil, fmt.Errorf("annotation %s: %w", ab.Class, ErrNotAnnotation)
		}
		out = append(out, object.AnnotationDef{Class: def, Args: ab.Args})
	}
	return out, nil
}

// addNativeMembers turns the members of a host type binding into class members.
func (a *Assembly) addNativeMembers(def *object.ClassDefinition) error {
	b := def.Native
	for i := range b.Fields {
		f := &b.Fields[i]
		fd := &object.FieldDef{
			Name:   f.Name,
			Type:   marshal.ScriptType(a.registry, f.Type),
			Native: f,
		}
		if err := def.AddField(fd); err != nil {
			return err
		}
	}
	for _, m := range b.Methods {
		params := make([]object.Parameter, len(m.Params))
		for i, p := range m.Params {
			params[i] = object.Parameter{Name: fmt.Sprintf("arg%d", i+1), Type: marshal.ScriptType(a.registry, p)}
		}
		fn := &object.FunctionDef{
			Name:   m.Name,
			Body:   object.NativeMethodBody{Method: m},
			Params: object.ParameterInfo{Params: params, Variadic: m.Variadic},
			Return: marshal.ScriptType(a.registry, m.Return),
		}
		if err := def.AddFunction(fn); err != nil {
			return err
		}
	}
	if len(b.Constructors) > 0 {
		fn := &object.FunctionDef{
			Name:   object.MetaNew.Name,
			Access: object.Local,
			Body:   object.NativeConstructorBody{Constructors: b.Constructors},
			Return: object.AnyType,
		}
		if err := def.AddFunction(fn); err != nil {
			return err
		}
	}
	return nil
}

// validateClasses builds the meta functions of all classes concurrently.
func (a *Assembly) validateClasses(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, def := range a.Classes() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return def.BuildMetaFunctions()
		})
	}
	return g.Wait()
}

func (a *Assembly) declareGlobalFields() error {
	for _, fb := range a.pendingFields {
		anns, err := a.resolveAnnotations(fb.Annotations)
		if err != nil {
			return fmt.Errorf("global field %s: %w", fb.Name, err)
		}
		f := &object.FieldDef{
			Name:        fb.Name,
			Type:        fb.Type,
			Access:      fb.Access,
			Initializer: fb.Initializer,
			Annotations: anns,
		}
		s := a.GlobalScopeFor(f.Access)
		if err := s.Declare(f.Name, f.Type); err != nil {
			return err
		}
		if f.Initializer != nil {
			v, err := f.Initializer.Run(a.inner)
			if err != nil {
				return fmt.Errorf("global field %s: %w", f.Name, err)
			}
			if err := s.Assign(f.Name, v); err != nil {
				return err
			}
		}
		if len(anns) > 0 {
			insts, err := a.instantiate(anns)
			if err != nil {
				return fmt.Errorf("global field %s: %w", f.Name, err)
			}
			if err := s.AssignAnnotations(f.Name, insts...); err != nil {
				return err
			}
		}
		a.fields = append(a.fields, f)
		a.logger.Debug("declared global field", slog.String("name", f.Name), slog.String("access", f.Access.String()))
	}
	return nil
}
