package native

// DynamicRef is an indirection to a host object that may not exist yet.
type DynamicRef interface {
	// Retrieve returns the current host object or ErrNotRetrieved.
	Retrieve() (any, error)
	// Bind sets the host object, or returns ErrNotAssigned if the reference is fixed.
	Bind(v any) error
}

// NullRef never resolves.
type NullRef struct{}

func (NullRef) Retrieve() (any, error) { return nil, ErrNotRetrieved }
func (NullRef) Bind(any) error         { return ErrNotAssigned }

// ValueRef always resolves to the same value. A ValueRef holding nil is the target
// used for static (package level) host fields.
type ValueRef struct {
	value any
}

// Fixed returns a reference that always resolves to v.
func Fixed(v any) *ValueRef { return &ValueRef{value: v} }

// Static returns the reference used for fields that do not need a receiver.
func Static() *ValueRef { return &ValueRef{} }

func (r *ValueRef) Retrieve() (any, error) { return r.value, nil }
func (r *ValueRef) Bind(any) error         { return ErrNotAssigned }

// Holder is the live reference to the native object backing a class instance.
// It is unbound until the native constructor ran (or a host object was wrapped).
type Holder struct {
	value any
	bound bool
}

func (h *Holder) Retrieve() (any, error) {
	if !h.bound {
		return nil, ErrNotRetrieved
	}
	return h.value, nil
}

// Bind sets the backing object. Binding nil is rejected.
func (h *Holder) Bind(v any) error {
	if v == nil {
		return ErrNotAssigned
	}
	h.value = v
	h.bound = true
	return nil
}

// IsBound reports whether a backing object is present.
func (h *Holder) IsBound() bool { return h.bound }
