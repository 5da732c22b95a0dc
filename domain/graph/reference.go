package graph

// Ref is a deferred, by-name link to an entity of type T. It keeps the
// textual identifier it targets and, once Resolve runs over the final
// entity set, the positional index of the target in its owning
// collection. An identifier with no match leaves the reference
// unresolved, which is a valid terminal state rendered as "no link".
type Ref[T any] struct {
	ID    string `json:"id"`
	Index *int   `json:"index"`
}

// NewRef creates an unresolved reference to the given identifier
func NewRef[T any](id string) *Ref[T] {
	return &Ref[T]{ID: id}
}

// Resolve stores the positional index of the target, looked up in the
// identifier index of the owning collection. Safe on a nil receiver.
func (r *Ref[T]) Resolve(index map[string]int) {
	if r == nil {
		return
	}
	if i, ok := index[r.ID]; ok {
		r.Index = &i
	}
}

// Resolved returns the positional index and whether the reference
// points at a known entity. Safe on a nil receiver.
func (r *Ref[T]) Resolved() (int, bool) {
	if r == nil || r.Index == nil {
		return 0, false
	}
	return *r.Index, true
}
