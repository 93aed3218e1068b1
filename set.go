package tgc

type setData[T any] struct {
	m map[*ObjMeta]*Ptr[T]
}

// Set is a set of handles, deduplicated by the header they reference.
type Set[T any] struct {
	h *Ptr[setData[T]]
}

// NewSet allocates an empty set on the default collector.
func NewSet[T any]() *Set[T] { return NewSetIn[T](Default()) }

// NewSetIn allocates an empty set on col.
func NewSetIn[T any](col *Collector) *Set[T] {
	h := newContainer(col,
		func(m *ObjMeta) PtrEnumerator {
			d := (*setData[T])(m.obj)
			e := &hashMapEnum{vals: make([]*PtrBase, 0, len(d.m))}
			for _, v := range d.m {
				e.vals = append(e.vals, &v.PtrBase)
			}
			return e
		},
		func(d *setData[T]) { d.m = make(map[*ObjMeta]*Ptr[T]) },
	)
	return &Set[T]{h: h}
}

// Handle returns the handle to the set object itself.
func (s *Set[T]) Handle() *Ptr[setData[T]] { return s.h }

// Len returns the number of members.
func (s *Set[T]) Len() int { return len(s.h.Get().m) }

// Has reports whether the object referenced by x is a member.
func (s *Set[T]) Has(x *Ptr[T]) bool {
	if x == nil || x.meta == nil {
		return false
	}
	_, ok := s.h.Get().m[x.meta]
	return ok
}

// Add inserts the object referenced by x. It reports whether the set
// changed; empty handles and duplicates are rejected.
func (s *Set[T]) Add(x *Ptr[T]) bool {
	if x == nil || x.meta == nil {
		return false
	}
	d := s.h.Get()
	if _, ok := d.m[x.meta]; ok {
		return false
	}
	d.m[x.meta] = newElem(x)
	return true
}

// Remove drops the object referenced by x from the set.
func (s *Set[T]) Remove(x *Ptr[T]) {
	if x == nil || x.meta == nil {
		return
	}
	d := s.h.Get()
	if v, ok := d.m[x.meta]; ok {
		v.Release()
		delete(d.m, x.meta)
	}
}

// Release drops the handle to the set.
func (s *Set[T]) Release() { s.h.Release() }
