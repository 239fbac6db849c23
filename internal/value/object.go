package value

// Object is an order-preserving string-keyed map. Insertion order is the
// order of each key's first write; subsequent writes update the value in
// place without moving its position (spec.md §3.1).
type Object struct {
	keys  []string
	index map[string]int
	vals  []Value
}

// NewObject returns an empty, ready-to-use Object.
func NewObject() *Object {
	return &Object{index: make(map[string]int)}
}

// Clone returns a deep-ish copy: the key order and top-level values are
// copied; nested Objects are shared by reference since Value.Object is
// treated as immutable once built (callers that mutate must Clone first).
func (o *Object) Clone() *Object {
	if o == nil {
		return NewObject()
	}
	n := &Object{
		keys:  append([]string(nil), o.keys...),
		vals:  append([]Value(nil), o.vals...),
		index: make(map[string]int, len(o.index)),
	}
	for k, i := range o.index {
		n.index[k] = i
	}
	return n
}

// Set inserts or updates key, preserving first-write position.
func (o *Object) Set(key string, v Value) {
	if i, ok := o.index[key]; ok {
		o.vals[i] = v
		return
	}
	o.index[key] = len(o.keys)
	o.keys = append(o.keys, key)
	o.vals = append(o.vals, v)
}

// Get looks up key. Missing keys return (Null, false); callers that want
// spec.md's "missing object keys yield Null" path-lookup behavior should
// treat a false ok the same as Null, per §4.3.3.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Null, false
	}
	if i, ok := o.index[key]; ok {
		return o.vals[i], true
	}
	return Null, false
}

func (o *Object) Has(key string) bool {
	if o == nil {
		return false
	}
	_, ok := o.index[key]
	return ok
}

// Keys returns keys in insertion order. Do not mutate the result.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return o.keys
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Each iterates key/value pairs in insertion order.
func (o *Object) Each(fn func(key string, v Value)) {
	if o == nil {
		return
	}
	for i, k := range o.keys {
		fn(k, o.vals[i])
	}
}

func (o *Object) Equal(other *Object) bool {
	if o.Len() != other.Len() {
		return false
	}
	ok := true
	o.Each(func(k string, v Value) {
		if !ok {
			return
		}
		ov, present := other.Get(k)
		if !present || !Equal(v, ov) {
			ok = false
		}
	})
	return ok
}
