package depgraph

// Hashable is implemented by values that supply their own stable identity
// key. Values that don't implement Hashable are used as map keys directly,
// so they must be comparable.
//
// Implement Hashable when a vertex payload is mutable or not comparable by
// value - the returned code is what the graph treats as the vertex identity.
type Hashable interface {
	Hashcode() any
}

// hashcode returns the identity key for a value.
func hashcode(v any) any {
	if h, ok := v.(Hashable); ok {
		return h.Hashcode()
	}
	return v
}

// Set is an unordered collection of values keyed by identity.
// Construct with make(Set). Iteration order is unspecified.
type Set map[any]any

// Add inserts v into the set. Adding an existing value has no effect.
func (s Set) Add(v any) {
	s[hashcode(v)] = v
}

// Delete removes v from the set. Deleting an absent value is a no-op.
func (s Set) Delete(v any) {
	delete(s, hashcode(v))
}

// Include reports whether v is in the set.
func (s Set) Include(v any) bool {
	_, ok := s[hashcode(v)]
	return ok
}

// Len returns the number of values in the set.
func (s Set) Len() int {
	return len(s)
}

// List returns the values of the set as a slice, in no particular order.
func (s Set) List() []any {
	result := make([]any, 0, len(s))
	for _, v := range s {
		result = append(result, v)
	}
	return result
}

// Copy returns a shallow copy of the set.
func (s Set) Copy() Set {
	result := make(Set, len(s))
	for k, v := range s {
		result[k] = v
	}
	return result
}

// Intersection returns a new set with the values present in both s and
// other. Runs over the smaller of the two sets.
func (s Set) Intersection(other Set) Set {
	result := make(Set)
	if other.Len() < s.Len() {
		s, other = other, s
	}
	for k, v := range s {
		if _, ok := other[k]; ok {
			result[k] = v
		}
	}
	return result
}

// Union returns a new set with the values present in either s or other.
func (s Set) Union(other Set) Set {
	result := make(Set, len(s)+len(other))
	for k, v := range s {
		result[k] = v
	}
	for k, v := range other {
		result[k] = v
	}
	return result
}

// Difference returns a new set with the values of s that are not in other.
func (s Set) Difference(other Set) Set {
	result := make(Set)
	for k, v := range s {
		if _, ok := other[k]; !ok {
			result[k] = v
		}
	}
	return result
}

// Filter returns a new set with the values of s for which keep returns true.
func (s Set) Filter(keep func(any) bool) Set {
	result := make(Set)
	for _, v := range s {
		if keep(v) {
			result.Add(v)
		}
	}
	return result
}
