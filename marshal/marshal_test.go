package marshal

import (
	"errors"
	"io"
	"log/slog"
	"reflect"
	"runtime"
	"testing"
	"time"

	"github.com/PatrickSachs/SolScript-sub001/object"
	"github.com/google/go-cmp/cmp"
)

type point struct {
	X, Y int
}

// testHost is a Resolver and object.Runtime knowing a single host type.
type testHost struct {
	classes map[reflect.Type]*object.ClassDefinition
	m       *Marshaller
	global  *object.GlobalScope
	wrapped int
}

func newTestHost() *testHost {
	h := &testHost{classes: map[reflect.Type]*object.ClassDefinition{
		reflect.TypeFor[*point](): object.NewClassDefinition("Point", object.ModeSealed),
	}}
	h.m = New(h, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.global = object.NewGlobalScope(h, object.None, nil, nil)
	return h
}

func (h *testHost) ClassForHostType(t reflect.Type) (*object.ClassDefinition, bool) {
	def, ok := h.classes[t]
	return def, ok
}

func (h *testHost) WrapHost(def *object.ClassDefinition, host any) (*object.ClassInstance, error) {
	h.wrapped++
	inst := object.NewClassInstance(h, def)
	if err := inst.BindNative(host); err != nil {
		return nil, err
	}
	inst.MarkInitialized()
	return inst, nil
}

func (h *testHost) IsAssignable(from, to string) bool                 { return from == to }
func (h *testHost) Marshaller() object.Marshaller                     { return h.m }
func (h *testHost) Logger() *slog.Logger                              { return slog.New(slog.NewTextHandler(io.Discard, nil)) }
func (h *testHost) LanguageVersion() string                           { return object.DefaultLanguageVersion }
func (h *testHost) GlobalScope() object.Scope                         { return h.global }
func (h *testHost) GlobalScopeFor(object.AccessModifier) object.Scope { return h.global }

func TestMarshaller_IntRoundTrip(t *testing.T) {
	m := newTestHost().m
	v, err := m.ToScriptValue(reflect.TypeFor[int](), 42)
	if err != nil {
		t.Fatal(err)
	}
	n, ok := v.(*object.Number)
	if !ok || n.Value != 42.0 {
		t.Fatalf("ToScriptValue(42) = %#v, want Number(42)", v)
	}
	back, err := m.ToHostValue(v, reflect.TypeFor[int]())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(42, back); diff != "" {
		t.Errorf("ToHostValue mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshaller_ToScriptValue(t *testing.T) {
	m := newTestHost().m
	tests := []struct {
		name string
		typ  reflect.Type
		in   any
		want string
	}{
		{name: "nil", typ: reflect.TypeFor[*point](), in: nil, want: "nil"},
		{name: "void", typ: nil, in: 1, want: "nil"},
		{name: "bool", typ: reflect.TypeFor[bool](), in: true, want: "true"},
		{name: "uint", typ: reflect.TypeFor[uint16](), in: uint16(7), want: "7"},
		{name: "float", typ: reflect.TypeFor[float32](), in: float32(0.5), want: "0.5"},
		{name: "string", typ: reflect.TypeFor[string](), in: "s", want: "s"},
		{name: "slice", typ: reflect.TypeFor[[]int](), in: []int{1, 2}, want: "{[0] = 1, [1] = 2}"},
		{name: "nil slice", typ: reflect.TypeFor[[]int](), in: []int(nil), want: "nil"},
		{name: "map", typ: reflect.TypeFor[map[string]bool](), in: map[string]bool{"k": true}, want: "{[k] = true}"},
		{name: "script value", typ: reflect.TypeFor[any](), in: &object.String{Value: "x"}, want: "x"},
		{name: "nil pointer", typ: reflect.TypeFor[*point](), in: (*point)(nil), want: "nil"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.ToScriptValue(tt.typ, tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Inspect() != tt.want {
				t.Errorf("ToScriptValue(%v) = %q, want %q", tt.in, got.Inspect(), tt.want)
			}
		})
	}
}

func TestMarshaller_Unregistered(t *testing.T) {
	m := newTestHost().m
	type other struct{}
	_, err := m.ToScriptValue(reflect.TypeFor[*other](), &other{})
	var merr *MarshallingError
	if !errors.As(err, &merr) {
		t.Fatalf("error = %v, want *MarshallingError", err)
	}
	if merr.TypeName != "*marshal.other" {
		t.Errorf("TypeName = %q", merr.TypeName)
	}
	if !errors.Is(err, object.ErrMarshalling) {
		t.Errorf("errors.Is(err, ErrMarshalling) = false")
	}
	if _, err := m.ToScriptValue(reflect.TypeFor[point](), point{}); !errors.Is(err, object.ErrMarshalling) {
		t.Errorf("struct values must not marshal, got %v", err)
	}
}

func TestMarshaller_Identity(t *testing.T) {
	h := newTestHost()
	p := &point{X: 1}

	first, err := h.m.ToScriptValue(reflect.TypeFor[*point](), p)
	if err != nil {
		t.Fatal(err)
	}
	second, err := h.m.ToScriptValue(reflect.TypeFor[*point](), p)
	if err != nil {
		t.Fatal(err)
	}
	if first != second || h.wrapped != 1 {
		t.Errorf("the same host object must map to the same wrapper (wrapped %d times)", h.wrapped)
	}
	inst := first.(*object.ClassInstance)
	if !inst.IsInitialized() {
		t.Errorf("wrapper must be initialized")
	}
	if native, _ := inst.NativeObject(); native != p {
		t.Errorf("wrapper is not backed by the host object")
	}
	back, err := h.m.ToHostValue(first, reflect.TypeFor[*point]())
	if err != nil || back != p {
		t.Errorf("ToHostValue(wrapper) = %v, %v, want the host object", back, err)
	}

	other, _ := h.m.ToScriptValue(reflect.TypeFor[*point](), &point{X: 2})
	if other == first {
		t.Errorf("different host objects must map to different wrappers")
	}
}

func TestMarshaller_Track(t *testing.T) {
	h := newTestHost()
	p := &point{}
	inst := object.NewClassInstance(h, h.classes[reflect.TypeFor[*point]()])
	h.m.Track(inst)
	if got := h.m.cache.len(); got != 0 {
		t.Fatalf("an instance without native object must not be tracked, cache size = %d", got)
	}
	if err := inst.BindNative(p); err != nil {
		t.Fatal(err)
	}
	h.m.Track(inst)

	got, err := h.m.ToScriptValue(reflect.TypeFor[*point](), p)
	if err != nil {
		t.Fatal(err)
	}
	if got != object.Object(inst) || h.wrapped != 0 {
		t.Errorf("a tracked instance must be returned for its native object")
	}
}

func TestMarshaller_IdentityEviction(t *testing.T) {
	h := newTestHost()
	p := &point{}
	if _, err := h.m.ToScriptValue(reflect.TypeFor[*point](), p); err != nil {
		t.Fatal(err)
	}
	if got := h.m.cache.len(); got != 1 {
		t.Fatalf("cache size = %d, want 1", got)
	}
	for i := 0; i < 100 && h.m.cache.len() > 0; i++ {
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}
	if got := h.m.cache.len(); got != 0 {
		t.Errorf("cache size after collection = %d, want 0", got)
	}
	runtime.KeepAlive(p)
}

func TestMarshaller_ToHostValue(t *testing.T) {
	m := newTestHost().m
	tests := []struct {
		name    string
		in      object.Object
		typ     reflect.Type
		want    any
		wantErr bool
	}{
		{name: "passthrough", in: object.TRUE, typ: reflect.TypeFor[object.Object](), want: object.Object(object.TRUE)},
		{name: "string", in: &object.String{Value: "a"}, typ: reflect.TypeFor[string](), want: "a"},
		{name: "nil pointer", in: object.NIL, typ: reflect.TypeFor[*point](), want: (*point)(nil)},
		{name: "slice", in: object.NewArrayTable(&object.Number{Value: 1}, &object.Number{Value: 2}), typ: reflect.TypeFor[[]int](), want: []int{1, 2}},
		{name: "nil into int", in: object.NIL, typ: reflect.TypeFor[int](), wantErr: true},
		{name: "table into string", in: object.NewTable(), typ: reflect.TypeFor[string](), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.ToHostValue(tt.in, tt.typ)
			if tt.wantErr {
				if !errors.Is(err, object.ErrMarshalling) {
					t.Fatalf("error = %v, want ErrMarshalling", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ToHostValue mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMarshaller_ToHostArgs(t *testing.T) {
	m := newTestHost().m
	num := func(f float64) object.Object { return &object.Number{Value: f} }
	tests := []struct {
		name     string
		args     []object.Object
		params   []reflect.Type
		variadic bool
		want     []any
		wantErr  bool
	}{
		{
			name:   "positional",
			args:   []object.Object{num(1), &object.String{Value: "s"}},
			params: []reflect.Type{reflect.TypeFor[int](), reflect.TypeFor[string]()},
			want:   []any{1, "s"},
		},
		{
			name:   "missing arguments",
			args:   []object.Object{num(1)},
			params: []reflect.Type{reflect.TypeFor[int](), reflect.TypeFor[int](), reflect.TypeFor[*point]()},
			want:   []any{1, 0, (*point)(nil)},
		},
		{
			name:     "variadic tail",
			args:     []object.Object{&object.String{Value: "f"}, num(1), num(2), num(3)},
			params:   []reflect.Type{reflect.TypeFor[string](), reflect.TypeFor[[]int]()},
			variadic: true,
			want:     []any{"f", []int{1, 2, 3}},
		},
		{
			name:     "empty variadic tail",
			args:     []object.Object{&object.String{Value: "f"}},
			params:   []reflect.Type{reflect.TypeFor[string](), reflect.TypeFor[[]int]()},
			variadic: true,
			want:     []any{"f", []int{}},
		},
		{
			name:    "too many arguments",
			args:    []object.Object{num(1), num(2)},
			params:  []reflect.Type{reflect.TypeFor[int]()},
			wantErr: true,
		},
		{
			name:    "unconvertible argument",
			args:    []object.Object{&object.String{Value: "x"}},
			params:  []reflect.Type{reflect.TypeFor[int]()},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.ToHostArgs(tt.args, tt.params, tt.variadic)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ToHostArgs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScriptType(t *testing.T) {
	tests := []struct {
		typ  reflect.Type
		want object.TypeRef
	}{
		{typ: reflect.TypeFor[int64](), want: object.NonNull(object.TypeNumber)},
		{typ: reflect.TypeFor[string](), want: object.NonNull(object.TypeString)},
		{typ: reflect.TypeFor[[]string](), want: object.Nullable(object.TypeTable)},
		{typ: reflect.TypeFor[any](), want: object.AnyType},
		{typ: nil, want: object.AnyType},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, ScriptType(nil, tt.typ)); diff != "" {
			t.Errorf("ScriptType(%v) mismatch (-want +got):\n%s", tt.typ, diff)
		}
	}
}
