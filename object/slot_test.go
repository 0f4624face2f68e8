package object

import (
	"errors"
	"fmt"
	"testing"

	"github.com/PatrickSachs/SolScript-sub001/native"
	"github.com/google/go-cmp/cmp"
)

func TestScopeTable_DeclareAssignGet(t *testing.T) {
	rt := newTestRuntime()
	tbl := NewScopeTable(rt)

	if state, err := tbl.Declare("x", NonNull(TypeNumber)); state != Success {
		t.Fatalf("Declare: %s: %v", state, err)
	}
	if state, err := tbl.TryAssign("x", &Number{Value: 5}); state != Success {
		t.Fatalf("TryAssign: %s: %v", state, err)
	}
	v, state, err := tbl.TryGet("x")
	if state != Success {
		t.Fatalf("TryGet: %s: %v", state, err)
	}
	if got := v.(*Number).Value; got != 5 {
		t.Errorf("x = %v, want 5", got)
	}
}

func TestScopeTable_DeclareTwice(t *testing.T) {
	rt := newTestRuntime()
	tbl := NewScopeTable(rt)
	for _, name := range []string{"a", "b", "self"} {
		if state, _ := tbl.Declare(name, AnyType); state != Success {
			t.Fatalf("first Declare(%q) = %s", name, state)
		}
		state, err := tbl.Declare(name, NonNull(TypeString))
		if state != FailedAlreadyDeclared {
			t.Errorf("second Declare(%q) = %s, want %s", name, state, FailedAlreadyDeclared)
		}
		if !errors.Is(err, ErrAlreadyDeclared) {
			t.Errorf("second Declare(%q) error = %v, want ErrAlreadyDeclared", name, err)
		}
	}
	if diff := cmp.Diff([]string{"a", "b", "self"}, tbl.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
}

func TestScopeTable_NotDeclaredAndNotAssigned(t *testing.T) {
	rt := newTestRuntime()
	tbl := NewScopeTable(rt)
	tbl.Declare("x", AnyType)

	if _, state, _ := tbl.TryGet("y"); state != FailedNotDeclared {
		t.Errorf("TryGet(y) = %s, want %s", state, FailedNotDeclared)
	}
	if _, state, _ := tbl.TryGet("x"); state != FailedNotAssigned {
		t.Errorf("TryGet(x) = %s, want %s", state, FailedNotAssigned)
	}
	if tbl.IsAssigned("x") {
		t.Errorf("x must not be assigned yet")
	}
	if !tbl.IsDeclared("x") || tbl.IsDeclared("y") {
		t.Errorf("IsDeclared mismatch")
	}
}

func TestValueSlot_TypeGatePrecedesHooks(t *testing.T) {
	rt := newTestRuntime()
	var calls []string
	ann := recordingAnnotation(rt, "Trace", nil, &calls)

	tbl := NewScopeTable(rt)
	tbl.Declare("n", NonNull(TypeNumber))
	tbl.AssignAnnotations("n", ann)

	state, err := tbl.TryAssign("n", &String{Value: "five"})
	if state != FailedTypeMismatch {
		t.Fatalf("TryAssign = %s, want %s", state, FailedTypeMismatch)
	}
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("error = %v, want ErrTypeMismatch", err)
	}
	if len(calls) != 0 {
		t.Errorf("no hook may run on a type mismatch, got %v", calls)
	}

	if state, err := tbl.TryAssign("n", &Number{Value: 5}); state != Success {
		t.Fatalf("TryAssign: %s: %v", state, err)
	}
	if diff := cmp.Diff([]string{"Trace:__a_set_variable"}, calls); diff != "" {
		t.Errorf("hook calls mismatch (-want +got):\n%s", diff)
	}
}

func TestValueSlot_AnnotationOverrideChain(t *testing.T) {
	rt := newTestRuntime()
	var calls []string
	anns := []*ClassInstance{
		recordingAnnotation(rt, "First", &Number{Value: 1}, &calls),
		recordingAnnotation(rt, "Silent", nil, &calls),
		recordingAnnotation(rt, "Last", &Number{Value: 3}, &calls),
	}

	tbl := NewScopeTable(rt)
	tbl.Declare("n", NonNull(TypeNumber))
	tbl.TryAssign("n", &Number{Value: 0})
	tbl.AssignAnnotations("n", anns...)

	v, state, err := tbl.TryGet("n")
	if state != Success {
		t.Fatalf("TryGet: %s: %v", state, err)
	}
	if got := v.(*Number).Value; got != 3 {
		t.Errorf("n = %v, want the last override 3", got)
	}
	want := []string{"First:__a_get_variable", "Silent:__a_get_variable", "Last:__a_get_variable"}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("hook calls mismatch (-want +got):\n%s", diff)
	}

	raw, state, _ := tbl.slots["n"].TryGetRaw()
	if state != Success || raw.(*Number).Value != 0 {
		t.Errorf("TryGetRaw = %v, %s, want 0", raw, state)
	}
}

func TestValueSlot_AnnotationOverrideTypeMismatch(t *testing.T) {
	rt := newTestRuntime()
	var calls []string
	tbl := NewScopeTable(rt)
	tbl.Declare("n", NonNull(TypeNumber))
	tbl.TryAssign("n", &Number{Value: 0})
	tbl.AssignAnnotations("n", recordingAnnotation(rt, "Bad", &String{Value: "oops"}, &calls))

	_, state, err := tbl.TryGet("n")
	if state != FailedTypeMismatch {
		t.Fatalf("TryGet = %s, want %s", state, FailedTypeMismatch)
	}
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("error = %v, want ErrTypeMismatch", err)
	}
}

func TestValueSlot_AnnotationHookError(t *testing.T) {
	rt := newTestRuntime()
	failing := mustAdd(NewClassDefinition("Failing", ModeAnnotation),
		script(MetaGetVariable.Name, Internal, Nullable(TypeTable), func(Scope) (Object, error) {
			return nil, NewRuntimeError("boom")
		}, Parameter{Name: "value"}, Parameter{Name: "name"}))
	rt.classes[failing.Name] = failing

	tbl := NewScopeTable(rt)
	tbl.Declare("x", AnyType)
	tbl.TryAssign("x", TRUE)
	tbl.AssignAnnotations("x", NewClassInstance(rt, failing))

	_, state, err := tbl.TryGet("x")
	if state != FailedRuntimeError {
		t.Fatalf("TryGet = %s, want %s", state, FailedRuntimeError)
	}
	if !errors.Is(err, ErrRuntimeError) {
		t.Errorf("error = %v, want ErrRuntimeError", err)
	}
}

type counter struct {
	n int
}

func TestValueSlot_Native(t *testing.T) {
	field := native.FieldOf("n", func(c *counter) int { return c.n }, func(c *counter, v int) { c.n = v })

	t.Run("unresolved reference", func(t *testing.T) {
		rt := newTestRuntime()
		tbl := NewScopeTable(rt)
		holder := &native.Holder{}
		if state, err := tbl.DeclareNative("n", NonNull(TypeNumber), field, holder); state != Success {
			t.Fatalf("DeclareNative: %s: %v", state, err)
		}
		_, state, err := tbl.TryGet("n")
		if state != FailedNativeError {
			t.Fatalf("TryGet = %s, want %s", state, FailedNativeError)
		}
		if !errors.Is(err, ErrNativeReferenceUnresolved) {
			t.Errorf("error = %v, want ErrNativeReferenceUnresolved", err)
		}
		if state, _ := tbl.TryAssign("n", &Number{Value: 1}); state != FailedNativeError {
			t.Errorf("TryAssign = %s, want %s", state, FailedNativeError)
		}
	})

	t.Run("read and write", func(t *testing.T) {
		rt := newTestRuntime()
		tbl := NewScopeTable(rt)
		c := &counter{n: 7}
		tbl.DeclareNative("n", NonNull(TypeNumber), field, native.Fixed(c))

		v, state, err := tbl.TryGet("n")
		if state != Success {
			t.Fatalf("TryGet: %s: %v", state, err)
		}
		if got := v.(*Number).Value; got != 7 {
			t.Errorf("n = %v, want 7", got)
		}
		if state, err := tbl.TryAssign("n", &Number{Value: 9}); state != Success {
			t.Fatalf("TryAssign: %s: %v", state, err)
		}
		if c.n != 9 {
			t.Errorf("host value = %d, want 9", c.n)
		}
		if state, _ := tbl.TryAssign("n", &Number{Value: 1.5}); state != FailedNativeError {
			t.Errorf("assigning a fraction to an int field = %s, want %s", state, FailedNativeError)
		}
	})

	t.Run("accessor failure", func(t *testing.T) {
		rt := newTestRuntime()
		tbl := NewScopeTable(rt)
		panicky := native.Field{
			Name: "p",
			Type: field.Type,
			Get:  func(any) (any, error) { panic("broken getter") },
			Set:  func(any, any) error { return fmt.Errorf("rejected") },
		}
		tbl.DeclareNative("p", NonNull(TypeNumber), panicky, native.Fixed(&counter{}))

		_, state, err := tbl.TryGet("p")
		if state != FailedNativeException {
			t.Fatalf("TryGet = %s, want %s", state, FailedNativeException)
		}
		if !errors.Is(err, ErrNativeException) {
			t.Errorf("error = %v, want ErrNativeException", err)
		}
		if state, _ := tbl.TryAssign("p", &Number{Value: 1}); state != FailedNativeException {
			t.Errorf("TryAssign = %s, want %s", state, FailedNativeException)
		}
	})

	t.Run("host type cannot carry declared type", func(t *testing.T) {
		rt := newTestRuntime()
		tbl := NewScopeTable(rt)
		state, err := tbl.DeclareNative("n", NonNull(TypeString), field, native.Fixed(&counter{}))
		if state != FailedTypeMismatch {
			t.Fatalf("DeclareNative = %s, want %s", state, FailedTypeMismatch)
		}
		if !errors.Is(err, ErrTypeMismatch) {
			t.Errorf("error = %v, want ErrTypeMismatch", err)
		}
	})
}
