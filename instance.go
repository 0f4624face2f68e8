package solscript

import (
	"fmt"
	"log/slog"

	"github.com/PatrickSachs/SolScript-sub001/object"
)

// NewInstance creates an instance of a class the way the script expression
// "new Class(args...)" does.
func (a *Assembly) NewInstance(className string, args ...object.Object) (*object.ClassInstance, error) {
	if !a.built {
		return nil, ErrNotBuilt
	}
	def, ok := a.classes[className]
	if !ok {
		return nil, fmt.Errorf("class %s: %w", className, ErrUnknownClass)
	}
	if !def.CanBeCreated() {
		return nil, fmt.Errorf("class %s is %s: %w", def.Name, def.Mode, ErrCannotCreate)
	}
	return a.create(def, args)
}

// Singleton returns the instance of a singleton class, creating it on first use.
func (a *Assembly) Singleton(className string) (*object.ClassInstance, error) {
	if !a.classesReady {
		return nil, ErrNotBuilt
	}
	def, ok := a.classes[className]
	if !ok {
		return nil, fmt.Errorf("class %s: %w", className, ErrUnknownClass)
	}
	if def.Mode != object.ModeSingleton {
		return nil, fmt.Errorf("class %s is %s, not a singleton", def.Name, def.Mode)
	}
	v, err := a.scopes[object.None].Get(def.Name)
	if err != nil {
		return nil, err
	}
	inst, ok := v.(*object.ClassInstance)
	if !ok {
		return nil, fmt.Errorf("singleton %s resolved to %s", def.Name, v.Type())
	}
	return inst, nil
}

// create runs the creation sequence of an instance: field declaration, class
// annotations (__a_pre_new), field initializers and annotations, the
// constructor, then __a_post_new.
func (a *Assembly) create(def *object.ClassDefinition, args []object.Object) (*object.ClassInstance, error) {
	if def.Mode == object.ModeAbstract {
		return nil, fmt.Errorf("class %s: %w", def.Name, ErrAbstractClass)
	}
	if missing := def.AbstractFunctions(); len(missing) > 0 {
		return nil, fmt.Errorf("class %s does not implement %v: %w", def.Name, missing, ErrAbstractClass)
	}

	inst := object.NewClassInstance(a, def)
	if err := inst.DeclareFields(); err != nil {
		return nil, err
	}

	var classAnnotations []object.AnnotationDef
	for _, level := range def.Levels() {
		classAnnotations = append(classAnnotations, level.Annotations...)
	}
	annotations, err := a.instantiate(classAnnotations)
	if err != nil {
		return nil, fmt.Errorf("class %s: %w", def.Name, err)
	}
	for _, ann := range annotations {
		res, found, err := ann.CallMeta(object.MetaPreNew.Name, inst, object.NewArrayTable(args...))
		if err != nil {
			return nil, fmt.Errorf("class %s: annotation %s: %w", def.Name, ann.Definition().Name, err)
		}
		if !found {
			continue
		}
		if t, ok := res.(*object.Table); ok {
			if override, ok := t.GetString("args"); ok {
				overrideArgs, ok := override.(*object.Table)
				if !ok {
					return nil, fmt.Errorf("class %s: annotation %s: args override must be a table, got %s",
						def.Name, ann.Definition().Name, override.Type())
				}
				args = overrideArgs.Array()
			}
		}
	}

	if err := a.initFields(inst); err != nil {
		return nil, err
	}

	_, found, err := inst.CallMeta(object.MetaNew.Name, args...)
	if err != nil {
		return nil, fmt.Errorf("class %s: constructor: %w", def.Name, err)
	}
	if !found && len(args) > 0 {
		return nil, fmt.Errorf("class %s has no constructor taking %d arguments", def.Name, len(args))
	}
	a.marshaller.Track(inst)

	for _, ann := range annotations {
		if _, _, err := ann.CallMeta(object.MetaPostNew.Name, inst, object.NewArrayTable(args...)); err != nil {
			return nil, fmt.Errorf("class %s: annotation %s: %w", def.Name, ann.Definition().Name, err)
		}
	}
	inst.MarkInitialized()
	a.logger.Debug("created instance", slog.String("class", def.Name), slog.Int("args", len(args)))
	return inst, nil
}

// initFields runs the field initializers in the Local scope of the level
// declaring the field and attaches the field annotations afterwards.
func (a *Assembly) initFields(inst *object.ClassInstance) error {
	for i, level := range inst.Definition().Levels() {
		for _, f := range level.Fields() {
			s := inst.FieldScope(i, f.Access)
			if f.Initializer != nil {
				v, err := f.Initializer.Run(inst.LevelScope(i, object.Local))
				if err != nil {
					return fmt.Errorf("class %s: field %s: %w", level.Name, f.Name, err)
				}
				if err := s.Assign(f.Name, v); err != nil {
					return fmt.Errorf("class %s: %w", level.Name, err)
				}
			}
			if len(f.Annotations) == 0 {
				continue
			}
			anns, err := a.instantiate(f.Annotations)
			if err != nil {
				return fmt.Errorf("class %s: field %s: %w", level.Name, f.Name, err)
			}
			if err := s.AssignAnnotations(f.Name, anns...); err != nil {
				return fmt.Errorf("class %s: %w", level.Name, err)
			}
		}
	}
	return nil
}

// instantiate creates the annotation instances of defs. Annotation arguments
// are evaluated in the innermost global scope.
func (a *Assembly) instantiate(defs []object.AnnotationDef) ([]*object.ClassInstance, error) {
	out := make([]*object.ClassInstance, 0, len(defs))
	for _, ad := range defs {
		if a.annotating[ad.Class] {
			return nil, fmt.Errorf("annotation %s: %w", ad.Class.Name, ErrRecursiveAnnotation)
		}
		args := make([]object.Object, len(ad.Args))
		for i, c := range ad.Args {
			v, err := c.Run(a.inner)
			if err != nil {
				return nil, fmt.Errorf("annotation %s: argument %d: %w", ad.Class.Name, i+1, err)
			}
			args[i] = v
		}
		a.annotating[ad.Class] = true
		inst, err := a.create(ad.Class, args)
		delete(a.annotating, ad.Class)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, nil
}
