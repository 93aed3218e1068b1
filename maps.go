package tgc

type hashMapData[K comparable, V any] struct {
	m map[K]*Ptr[V]
}

// hashMapEnum snapshots the value handles at creation; enumerators are
// single-pass and short-lived, and the demotion they serve is idempotent.
type hashMapEnum struct {
	vals []*PtrBase
	i    int
}

func (e *hashMapEnum) HasNext() bool { return e.i < len(e.vals) }

func (e *hashMapEnum) Next() *PtrBase {
	p := e.vals[e.i]
	e.i++
	return p
}

// HashMap maps host keys to handles; the values live on the collected heap
// and are traced through the map.
type HashMap[K comparable, V any] struct {
	h *Ptr[hashMapData[K, V]]
}

// NewHashMap allocates an empty map on the default collector.
func NewHashMap[K comparable, V any]() *HashMap[K, V] {
	return NewHashMapIn[K, V](Default())
}

// NewHashMapIn allocates an empty map on col.
func NewHashMapIn[K comparable, V any](col *Collector) *HashMap[K, V] {
	h := newContainer(col,
		func(m *ObjMeta) PtrEnumerator {
			d := (*hashMapData[K, V])(m.obj)
			e := &hashMapEnum{vals: make([]*PtrBase, 0, len(d.m))}
			for _, v := range d.m {
				e.vals = append(e.vals, &v.PtrBase)
			}
			return e
		},
		func(d *hashMapData[K, V]) { d.m = make(map[K]*Ptr[V]) },
	)
	return &HashMap[K, V]{h: h}
}

// Handle returns the handle to the map object itself.
func (h *HashMap[K, V]) Handle() *Ptr[hashMapData[K, V]] { return h.h }

// Len returns the number of entries.
func (h *HashMap[K, V]) Len() int { return len(h.h.Get().m) }

// Put stores a slot referencing the same object as v under k, replacing
// any previous entry.
func (h *HashMap[K, V]) Put(k K, v *Ptr[V]) {
	d := h.h.Get()
	if old, ok := d.m[k]; ok {
		old.Release()
	}
	d.m[k] = newElem(v)
}

// Get returns the handle stored under k.
func (h *HashMap[K, V]) Get(k K) (*Ptr[V], bool) {
	v, ok := h.h.Get().m[k]
	return v, ok
}

// Remove drops the entry under k.
func (h *HashMap[K, V]) Remove(k K) {
	d := h.h.Get()
	if v, ok := d.m[k]; ok {
		v.Release()
		delete(d.m, k)
	}
}

// Release drops the handle to the map.
func (h *HashMap[K, V]) Release() { h.h.Release() }
