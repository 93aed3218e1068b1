// Package tgc is a tiny incremental tri-color mark & sweep garbage
// collector for object graphs managed by the host program.
//
// The collector reclaims heap objects forming arbitrary graphs, cycles
// included, without the host registering roots explicitly. Every live
// handle self-registers with the collector; whether a handle is a root is
// decided spatially, by checking whether its own storage lies inside any
// collected payload. Handles embedded in an object are discovered while the
// first instance of the object's type is constructed: each handle brought
// under management during construction looks up the in-construction stack,
// finds the header whose payload contains its address, and records its byte
// offset in the type's class descriptor. The descriptor's offset list is
// frozen after that first construction and drives the default pointer
// enumerator thereafter.
//
// Collection is incremental. Each call to Collect advances a three-phase
// state machine by a bounded number of steps:
//
//   - RootMarking walks the handle vector, lazily demotes container
//     elements from their optimistic root state, and shades the targets of
//     root handles Gray.
//   - LeafMarking drains the gray worklist, blackening headers and shading
//     their White children.
//   - Sweeping walks the interval-ordered live set, frees White headers
//     (running destructors) and resets survivors to White for the next
//     cycle.
//
// A write barrier fires on every handle mutation so the algorithm stays
// sound while user code interleaves with collection steps.
//
// More information:
// https://github.com/crazybie/tgc
// "The Garbage Collection Handbook" by Richard Jones, Antony Hosking,
// Eliot Moss.
package tgc

import (
	"reflect"
	"unsafe"
)

// New allocates one T, runs the constructors over it and returns a root
// handle. Embedded handle fields must be initialized by the constructors
// (see Ptr.Init). Release the handle when done with it.
func New[T any](ctors ...func(*T)) *Ptr[T] {
	return NewIn[T](Default(), ctors...)
}

// NewIn is New against an explicit collector.
func NewIn[T any](col *Collector, ctors ...func(*T)) *Ptr[T] {
	return newObject[T](col, 1, ctors)
}

// NewArray allocates n contiguous T and constructs each in order. When a
// constructor panics, the previously constructed elements are destroyed in
// reverse order, the allocation is released, and the panic is re-raised.
// Allocating a zero-length array is well-formed; its payload interval is
// empty.
func NewArray[T any](n int, ctors ...func(*T)) *Ptr[T] {
	return NewArrayIn[T](Default(), n, ctors...)
}

// NewArrayIn is NewArray against an explicit collector.
func NewArrayIn[T any](col *Collector, n int, ctors ...func(*T)) *Ptr[T] {
	return newObject[T](col, n, ctors)
}

// NewValue allocates a boxed copy of v and returns a root handle.
func NewValue[T any](v T) *Ptr[T] {
	return NewValueIn(Default(), v)
}

// NewValueIn is NewValue against an explicit collector.
func NewValueIn[T any](col *Collector, v T) *Ptr[T] {
	return NewIn[T](col, func(p *T) { *p = v })
}

// From resolves a raw payload pointer back to a root handle by scanning
// the live set, the way shared_from_this recovers a shared pointer. A
// pointer lying in no live payload yields an empty handle.
func From[T any](obj *T) *Ptr[T] {
	return FromIn(Default(), obj)
}

// FromIn is From against an explicit collector.
func FromIn[T any](col *Collector, obj *T) *Ptr[T] {
	h := &Ptr[T]{}
	if obj == nil {
		return h
	}
	m := col.findOwnerMeta(unsafe.Pointer(obj))
	if m == nil {
		return h
	}
	col.registerPtr(&h.PtrBase)
	h.meta = m
	h.p = obj
	col.onPtrChanged(&h.PtrBase)
	return h
}

// Delete destroys the pointee now: destructors run and the payload is
// marked dead, while the header stays in the live set for the next sweep.
// Deleting an empty or already-deleted handle is a no-op. Other handles to
// the same object observe a destroyed header and enumerate nothing.
func Delete[T any](p *Ptr[T]) {
	if p == nil || p.meta == nil {
		return
	}
	p.meta.destroy()
	p.SetNil()
}

// Collect advances the default collector by the given step budget.
func Collect(steps int) { Default().Collect(steps) }

// Step advances the default collector by its configured budget.
func Step() { Default().Step() }

// DumpStats prints the default collector's statistics to standard output.
func DumpStats() { Default().DumpStats(nil) }

// StaticCast reinterprets the payload as To while preserving the header
// reference. The handle returned for a non-empty p is a registered root.
func StaticCast[To any, From any](p *Ptr[From]) *Ptr[To] {
	h := &Ptr[To]{}
	if p == nil || p.meta == nil {
		return h
	}
	col := p.meta.col
	col.registerPtr(&h.PtrBase)
	h.meta = p.meta
	h.p = (*To)(unsafe.Pointer(p.p))
	col.onPtrChanged(&h.PtrBase)
	return h
}

// DynamicCast is StaticCast with a class check: when the header's element
// type is not To, the result has a nil payload but retains the header, so
// callers can still reason about the allocation it came from.
func DynamicCast[To any, From any](p *Ptr[From]) *Ptr[To] {
	h := StaticCast[To](p)
	if h.meta != nil && h.meta.klass.elem != reflect.TypeOf((*To)(nil)).Elem() {
		h.p = nil
	}
	return h
}

// newObject is the common allocation path: allocate count elements, run
// the constructors, freeze the class on success, and hand back a root
// handle. The constructor context is pushed around the constructor loop so
// embedded handles can find the collector that owns the construction.
func newObject[T any](col *Collector, count int, ctors []func(*T)) *Ptr[T] {
	cls := classFor[T]()
	m := cls.newMeta(col, count)

	pushCtorCollector(col)
	built := 0
	func() {
		defer func() {
			popCtorCollector()
			if r := recover(); r != nil {
				abortConstruction(cls, m, built)
				panic(r)
			}
		}()
		for i := 0; i < count; i++ {
			obj := (*T)(unsafe.Add(m.obj, uintptr(i)*cls.size))
			for _, ctor := range ctors {
				ctor(obj)
			}
			built++
		}
	}()
	cls.endNewMeta(m, false)

	h := &Ptr[T]{}
	col.registerPtr(&h.PtrBase)
	h.meta = m
	h.p = (*T)(m.obj)
	col.onPtrChanged(&h.PtrBase)
	return h
}

// abortConstruction unwinds a failed NewArray: destroy the constructed
// prefix in reverse, drop the handles the aborted construction registered,
// and release the allocation.
func abortConstruction(cls *ClassMeta, m *ObjMeta, built int) {
	if d := cls.dtor; d != nil {
		for i := built - 1; i >= 0; i-- {
			d(unsafe.Add(m.obj, uintptr(i)*cls.size))
		}
	}
	// The panicking element may have registered some of its handles before
	// dying; include it in the cleanup scan.
	n := min(built+1, int(m.length))
	for i := 0; i < n; i++ {
		base := unsafe.Add(m.obj, uintptr(i)*cls.size)
		for _, off := range cls.offsets {
			p := (*PtrBase)(unsafe.Add(base, off))
			if p.registered {
				m.col.unregisterPtr(p)
				p.meta = nil
			}
		}
	}
	cls.endNewMeta(m, true)
}
