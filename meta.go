package tgc

import "unsafe"

// Tri-color mark state of a header.
type markColor uint8

const (
	colorWhite markColor = iota // not yet visited this cycle
	colorGray                   // visited, children pending
	colorBlack                  // fully visited this cycle
)

// ObjMeta is the per-allocation header. It records the class of the
// allocation, the number of live elements, the tri-color mark, and the
// payload location. The payload backing store is referenced from the header
// so the host allocator keeps it alive until the collector deallocates.
//
// A header with length 0 has had its destructors run; the payload is
// logically dead but the header stays in the live set until the sweeper
// reaches it.
type ObjMeta struct {
	klass  *ClassMeta
	col    *Collector
	obj    unsafe.Pointer // payload start
	ref    any            // payload backing store, dropped on dealloc
	length uint32         // element count, 0 once destroyed
	color  markColor
}

// Klass returns the class descriptor of the allocation.
func (m *ObjMeta) Klass() *ClassMeta { return m.klass }

// Len returns the element count, or 0 if the payload has been destroyed.
func (m *ObjMeta) Len() int { return int(m.length) }

func (m *ObjMeta) start() uintptr { return uintptr(m.obj) }

func (m *ObjMeta) end() uintptr {
	return m.start() + m.klass.size*uintptr(m.length)
}

// contains reports whether addr lies inside the payload interval
// [start, start+size*length).
func (m *ObjMeta) contains(addr uintptr) bool {
	return m.start() <= addr && addr < m.end()
}

// metaLess orders headers by payload interval. Intervals of distinct live
// allocations never overlap, so comparing the interval ends yields a total
// order and makes lower-bound containment queries possible.
func metaLess(a, b *ObjMeta) bool {
	return a.end() < b.end()
}

// destroy runs the element destructors and releases the handles embedded in
// the payload, then marks the payload dead. Destroying an already-destroyed
// header is a no-op. The header itself is only released by the sweeper.
func (m *ObjMeta) destroy() {
	if m.length == 0 {
		return
	}
	m.klass.handler(m.klass, memDestruct, m)
	m.length = 0
}

// free destroys the payload if needed and releases the header.
func (m *ObjMeta) free() {
	m.destroy()
	m.klass.handler(m.klass, memDealloc, m)
}

// sentinelClass backs the stack-constructed header used for lower-bound
// lookups. It owns no memory and never allocates.
var sentinelClass = &ClassMeta{size: 0}
