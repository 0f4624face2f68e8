package manifest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	solscript "github.com/PatrickSachs/SolScript-sub001"
	"github.com/PatrickSachs/SolScript-sub001/object"
	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

const shapes = `
languageVersion: v0.3.0
scopeOrder: internal-first
classes:
  - name: Shape
    mode: abstract
    fields:
      - {name: kind, type: string, access: local, value: shape}
      - {name: tags, type: table, value: [a, b]}
    functions:
      - {name: area, member: abstract, returns: number}
      - {name: describe, returns: string, get: kind}
  - name: Square
    base: Shape
    annotations: [Marker]
    fields:
      - name: side
        type: number?
        value: 2
        annotations:
          - class: Marker
            args: [1, true, {unit: cm}]
    functions:
      - {name: area, member: override, returns: number, value: 4}
      - name: __to_string
        access: internal
        returns: string
        value: square
  - name: Marker
    mode: annotation
    functions:
      - name: __new
        access: local
        variadic: true
functions:
  - name: identity
    params: [{name: v}]
    get: v
  - {name: hidden, access: internal, value: 42}
fields:
  - {name: answer, type: number, access: local, value: 42}
  - {name: unset, type: string?}
`

func quiet() solscript.Option {
	return solscript.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestLoad(t *testing.T) {
	m, err := Load(strings.NewReader(shapes))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	var names []string
	for _, c := range m.Classes {
		names = append(names, c.Name)
	}
	if diff := cmp.Diff([]string{"Shape", "Square", "Marker"}, names); diff != "" {
		t.Errorf("class names mismatch (-want +got):\n%s", diff)
	}
	if got := m.Classes[1].Annotations[0].Class; got != "Marker" {
		t.Errorf("short annotation form: class = %q, want Marker", got)
	}
	if got := len(m.Classes[1].Fields[0].Annotations[0].Args); got != 3 {
		t.Errorf("annotation args = %d, want 3", got)
	}

	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "unknown key", input: "classes:\n  - name: A\n    color: red\n"},
		{name: "not a mapping", input: "- a\n- b\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(strings.NewReader(tt.input)); err == nil {
				t.Errorf("Load(%q) succeeded, want an error", tt.input)
			}
		})
	}
}

func TestToObject(t *testing.T) {
	tests := []struct {
		input string
		want  string
		typ   object.ObjectType
	}{
		{input: "42", want: "42", typ: object.NUMBER_OBJ},
		{input: "1.5", want: "1.5", typ: object.NUMBER_OBJ},
		{input: "true", want: "true", typ: object.BOOLEAN_OBJ},
		{input: "~", want: "nil", typ: object.NIL_OBJ},
		{input: "hello", want: "hello", typ: object.STRING_OBJ},
		{input: `"42"`, want: "42", typ: object.STRING_OBJ},
		{input: "[1, x]", typ: object.TABLE_OBJ},
		{input: "{a: 1}", typ: object.TABLE_OBJ},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var n yaml.Node
			if err := yaml.Unmarshal([]byte(tt.input), &n); err != nil {
				t.Fatal(err)
			}
			got, err := ToObject(&n)
			if err != nil {
				t.Fatalf("ToObject() failed: %v", err)
			}
			if got.Type() != tt.typ {
				t.Errorf("type = %s, want %s", got.Type(), tt.typ)
			}
			if tt.want != "" && got.Inspect() != tt.want {
				t.Errorf("value = %s, want %s", got.Inspect(), tt.want)
			}
		})
	}

	var n yaml.Node
	if err := yaml.Unmarshal([]byte("{unit: cm, size: [1, 2]}"), &n); err != nil {
		t.Fatal(err)
	}
	got, err := ToObject(&n)
	if err != nil {
		t.Fatal(err)
	}
	tbl := got.(*object.Table)
	if unit, ok := tbl.GetString("unit"); !ok || unit.Inspect() != "cm" {
		t.Errorf("unit = %v, %v", unit, ok)
	}
	size, _ := tbl.GetString("size")
	if size.(*object.Table).Len() != 2 {
		t.Errorf("size = %s, want two elements", size.Inspect())
	}
}

func TestAssemble(t *testing.T) {
	m, err := Load(strings.NewReader(shapes))
	if err != nil {
		t.Fatal(err)
	}
	a, err := m.Assemble(context.Background(), quiet())
	if err != nil {
		t.Fatalf("Assemble() failed: %v", err)
	}
	if a.LanguageVersion() != "v0.3.0" {
		t.Errorf("LanguageVersion() = %s", a.LanguageVersion())
	}
	// internal-first puts the internal scope innermost
	if a.GlobalScope() != a.GlobalScopeFor(object.Internal) {
		t.Errorf("the innermost global scope must be the internal one")
	}

	sq, err := a.NewInstance("Square")
	if err != nil {
		t.Fatalf("NewInstance(Square) failed: %v", err)
	}
	for name, want := range map[string]string{"area": "4", "describe": "shape"} {
		fn, err := sq.GetMember(name)
		if err != nil {
			t.Fatalf("GetMember(%s) failed: %v", name, err)
		}
		got, err := fn.(object.Function).Call()
		if err != nil {
			t.Fatalf("%s() failed: %v", name, err)
		}
		if got.Inspect() != want {
			t.Errorf("%s() = %s, want %s", name, got.Inspect(), want)
		}
	}
	if side, err := sq.GetMember("side"); err != nil || side.Inspect() != "2" {
		t.Errorf("side = %v, %v", side, err)
	}
	if _, ok := sq.Definition().MetaFunction(object.MetaToString.Name); !ok {
		t.Errorf("__to_string must be registered as a meta function")
	}

	// each instance gets its own table from the initializer
	other, err := a.NewInstance("Square")
	if err != nil {
		t.Fatal(err)
	}
	t1, _ := sq.GetMember("tags")
	t2, _ := other.GetMember("tags")
	if t1 == t2 {
		t.Errorf("table initializers must not be shared between instances")
	}

	identity, err := a.GlobalScope().Get("identity")
	if err != nil {
		t.Fatal(err)
	}
	got, err := identity.(object.Function).Call(&object.String{Value: "x"})
	if err != nil || got.Inspect() != "x" {
		t.Errorf("identity(x) = %v, %v", got, err)
	}
	if v, err := a.GlobalScopeFor(object.Local).Get("answer"); err != nil || v.Inspect() != "42" {
		t.Errorf("answer = %v, %v", v, err)
	}
	if _, err := a.GlobalScopeFor(object.None).Get("hidden"); !errors.Is(err, object.ErrNotDeclared) {
		t.Errorf("internal function from the public scope = %v, want ErrNotDeclared", err)
	}
	if _, err := a.GlobalScope().Get("unset"); !errors.Is(err, object.ErrNotAssigned) {
		t.Errorf("unset = %v, want ErrNotAssigned", err)
	}
}

func TestApplyErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "bad mode", input: "classes: [{name: A, mode: frozen}]"},
		{name: "bad access", input: "fields: [{name: a, access: secret}]"},
		{name: "bad member", input: "functions: [{name: f, member: virtual}]"},
		{name: "abstract with body", input: "classes: [{name: A, functions: [{name: f, member: abstract, value: 1}]}]"},
		{name: "value and get", input: "functions: [{name: f, value: 1, get: x}]"},
		{name: "annotation without class", input: "classes: [{name: A, annotations: [{args: [1]}]}]"},
		{name: "duplicate class", input: "classes: [{name: A}, {name: A}]"},
		{name: "bad scope order", input: "scopeOrder: sideways"},
		{name: "bad language version", input: "languageVersion: latest"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Load(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("Load() failed: %v", err)
			}
			if _, err := m.Assemble(context.Background(), quiet()); err == nil {
				t.Errorf("Assemble() succeeded, want an error")
			}
		})
	}
}
