// Package object defines the script values, the variable slots and the scope chains
// the evaluator resolves identifiers through, as well as class definitions and
// class instances.
package object

import (
	"fmt"
	"hash/fnv"
	"iter"
	"math"
	"strconv"
	"strings"
)

// ObjectType is a string representation of an object's type.
type ObjectType string

const (
	NIL_OBJ            ObjectType = "NIL"
	BOOLEAN_OBJ        ObjectType = "BOOLEAN"
	NUMBER_OBJ         ObjectType = "NUMBER"
	STRING_OBJ         ObjectType = "STRING"
	TABLE_OBJ          ObjectType = "TABLE"
	FUNCTION_OBJ       ObjectType = "FUNCTION"
	CLASS_INSTANCE_OBJ ObjectType = "CLASS_INSTANCE"
)

// Object is the interface that all values in the interpreter implement.
type Object interface {
	// Type returns the type of the object.
	Type() ObjectType
	// Inspect returns a string representation of the object's value.
	Inspect() string
}

// Hashable is an interface for objects that can be used as table keys.
type Hashable interface {
	HashKey() HashKey
}

// HashKey is used as a key in the internal hash map of Table objects.
type HashKey struct {
	Type  ObjectType
	Value uint64
}

var (
	NIL   = &Nil{}
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
)

// NativeBool returns the shared Boolean for b.
func NativeBool(b bool) *Boolean {
	if b {
		return TRUE
	}
	return FALSE
}

// --- Nil Object ---

// Nil represents the absence of a value.
type Nil struct{}

// Type returns the type of the Nil object.
func (n *Nil) Type() ObjectType { return NIL_OBJ }

// Inspect returns a string representation of the Nil's value.
func (n *Nil) Inspect() string { return "nil" }

// IsNil reports whether obj is absent or the nil value.
func IsNil(obj Object) bool {
	if obj == nil {
		return true
	}
	_, ok := obj.(*Nil)
	return ok
}

// --- Number Object ---

// Number represents a numeric value. All script numbers are float64.
type Number struct {
	Value float64
}

// Type returns the type of the Number object.
func (n *Number) Type() ObjectType { return NUMBER_OBJ }

// Inspect returns a string representation of the Number's value.
func (n *Number) Inspect() string { return strconv.FormatFloat(n.Value, 'g', -1, 64) }

// HashKey returns the hash key for a Number.
func (n *Number) HashKey() HashKey {
	return HashKey{Type: n.Type(), Value: math.Float64bits(n.Value)}
}

// --- String Object ---

// String represents a string value.
type String struct {
	Value string
}

// Type returns the type of the String object.
func (s *String) Type() ObjectType { return STRING_OBJ }

// Inspect returns a string representation of the String's value.
func (s *String) Inspect() string { return s.Value }

// HashKey returns the hash key for a String.
func (s *String) HashKey() HashKey {
	h := fnv.New64a()
	h.Write([]byte(s.Value))
	return HashKey{Type: s.Type(), Value: h.Sum64()}
}

// --- Boolean Object ---

// Boolean represents a boolean value.
type Boolean struct {
	Value bool
}

// Type returns the type of the Boolean object.
func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }

// Inspect returns a string representation of the Boolean's value.
func (b *Boolean) Inspect() string { return strconv.FormatBool(b.Value) }

// HashKey returns the hash key for a Boolean.
func (b *Boolean) HashKey() HashKey {
	var value uint64
	if b.Value {
		value = 1
	}
	return HashKey{Type: b.Type(), Value: value}
}

// --- Table Object ---

type tablePair struct {
	Key   Object
	Value Object
}

// Table is the script's associative container. Iteration follows insertion order.
// Array-like tables use the number keys 0..n-1.
type Table struct {
	pairs map[HashKey]*tablePair
	order []HashKey
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{pairs: make(map[HashKey]*tablePair)}
}

// NewArrayTable returns a table holding values under the keys 0..len(values)-1.
func NewArrayTable(values ...Object) *Table {
	t := NewTable()
	for i, v := range values {
		t.put(&Number{Value: float64(i)}, v)
	}
	return t
}

// Type returns the type of the Table object.
func (t *Table) Type() ObjectType { return TABLE_OBJ }

// Inspect returns a string representation of the Table's contents.
func (t *Table) Inspect() string {
	var b strings.Builder
	b.WriteString("{")
	for i, k := range t.order {
		if i > 0 {
			b.WriteString(", ")
		}
		p := t.pairs[k]
		fmt.Fprintf(&b, "[%s] = %s", p.Key.Inspect(), p.Value.Inspect())
	}
	b.WriteString("}")
	return b.String()
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.order) }

// Get looks up key.
func (t *Table) Get(key Object) (Object, bool) {
	h, ok := key.(Hashable)
	if !ok {
		return nil, false
	}
	p, ok := t.pairs[h.HashKey()]
	if !ok {
		return nil, false
	}
	return p.Value, true
}

// GetString looks up a string key.
func (t *Table) GetString(key string) (Object, bool) {
	return t.Get(&String{Value: key})
}

// Set stores value under key. Storing nil removes the entry.
func (t *Table) Set(key, value Object) error {
	if _, ok := key.(Hashable); !ok {
		return fmt.Errorf("unusable as table key: %s", key.Type())
	}
	if IsNil(value) {
		t.remove(key.(Hashable).HashKey())
		return nil
	}
	t.put(key, value)
	return nil
}

// SetString stores value under a string key.
func (t *Table) SetString(key string, value Object) {
	_ = t.Set(&String{Value: key}, value)
}

func (t *Table) put(key, value Object) {
	hk := key.(Hashable).HashKey()
	if p, ok := t.pairs[hk]; ok {
		p.Value = value
		return
	}
	t.pairs[hk] = &tablePair{Key: key, Value: value}
	t.order = append(t.order, hk)
}

func (t *Table) remove(hk HashKey) {
	if _, ok := t.pairs[hk]; !ok {
		return
	}
	delete(t.pairs, hk)
	for i, k := range t.order {
		if k == hk {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Array returns the values stored under 0, 1, 2, ... up to the first gap.
func (t *Table) Array() []Object {
	var out []Object
	for i := 0; ; i++ {
		v, ok := t.Get(&Number{Value: float64(i)})
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

// All iterates over the entries in insertion order.
func (t *Table) All() iter.Seq2[Object, Object] {
	return func(yield func(Object, Object) bool) {
		for _, k := range t.order {
			p := t.pairs[k]
			if !yield(p.Key, p.Value) {
				return
			}
		}
	}
}
