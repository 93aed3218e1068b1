package tgc

import (
	"sync"
	"unsafe"
)

// PtrBase is the per-handle record tracked by the collector: the referenced
// header, the root flag, and the handle's slot in the collector's handle
// vector (for O(1) unregistration and marking-cursor checks).
//
// A handle is a root when its own storage does not lie inside any live
// payload. Handles are optimistically registered as roots; owner discovery
// during construction and the lazy demotion done by RootMarking turn the
// embedded ones into non-roots.
type PtrBase struct {
	meta       *ObjMeta
	col        *Collector
	index      int
	isRoot     bool
	registered bool
}

func (p *PtrBase) addr() uintptr { return uintptr(unsafe.Pointer(p)) }

// Ptr is a handle to a collected allocation of element type T. Handles are
// addressed by pointer and must not be copied by value once in use: the
// collector tracks them by their storage address.
//
// Handles returned by New, NewArray, From and the casts are registered
// roots; call Release when done with one. A Ptr embedded by value inside a
// collected object must be brought under management from the object's
// constructor with Init (or any Set), which is when the class descriptor
// observes its offset.
type Ptr[T any] struct {
	PtrBase
	p *T
}

// Get returns the payload pointer, or nil for an empty handle. The payload
// of an explicitly deleted object must not be dereferenced.
func (p *Ptr[T]) Get() *T {
	if p.meta == nil {
		return nil
	}
	return p.p
}

// Meta returns the referenced header, or nil.
func (p *Ptr[T]) Meta() *ObjMeta { return p.meta }

// Len returns the element count of the referenced allocation; 1 for
// scalars, 0 for empty handles and destroyed payloads.
func (p *Ptr[T]) Len() int {
	if p.meta == nil {
		return 0
	}
	return p.meta.Len()
}

// At returns a pointer to element i of an array allocation.
func (p *Ptr[T]) At(i int) *T {
	if i < 0 || i >= p.Len() {
		panic("tgc: array index out of range")
	}
	return (*T)(unsafe.Add(unsafe.Pointer(p.p), uintptr(i)*p.meta.klass.size))
}

// IsNil reports whether the handle references no header.
func (p *Ptr[T]) IsNil() bool { return p.meta == nil }

// Equal reports whether both handles reference the same header.
func (p *Ptr[T]) Equal(o *Ptr[T]) bool {
	if o == nil {
		return p.meta == nil
	}
	return p.meta == o.meta
}

// Init brings the handle under collector management without assigning a
// target. Object constructors call it for every embedded handle field;
// outside construction it is a no-op (the handle registers on first Set).
func (p *Ptr[T]) Init() {
	if p.registered {
		return
	}
	if col := currentCtorCollector(); col != nil {
		col.registerPtr(&p.PtrBase)
	}
}

// Set points the handle at the same header as src and fires the write
// barrier. A nil or empty src clears the handle.
func (p *Ptr[T]) Set(src *Ptr[T]) {
	if src == nil || src.meta == nil {
		p.SetNil()
		return
	}
	if !p.registered {
		pickCollector(src.meta).registerPtr(&p.PtrBase)
	}
	p.meta = src.meta
	p.p = src.p
	p.col.onPtrChanged(&p.PtrBase)
}

// SetNil clears the handle. The write barrier has nothing to shade for an
// empty target, so none fires.
func (p *Ptr[T]) SetNil() {
	p.Init()
	p.meta = nil
	p.p = nil
}

// Release drops the handle's reference and removes it from the collector.
// The pointee stays alive for as long as it is reachable from other
// handles; release of the last path to an object makes it garbage for the
// next full cycle.
func (p *Ptr[T]) Release() {
	if p.registered {
		p.col.unregisterPtr(&p.PtrBase)
	}
	p.meta = nil
	p.p = nil
}

// pickCollector chooses the collector a lazily-registered handle joins: the
// construction in progress wins, then the collector owning the assigned
// header, then the process-wide default.
func pickCollector(m *ObjMeta) *Collector {
	if col := currentCtorCollector(); col != nil {
		return col
	}
	if m != nil {
		return m.col
	}
	return Default()
}

// Constructor context: the stack of collectors currently running user
// constructors. Handle fields initialized during construction use it to
// find the collector that owns the construction, which in turn scans its
// in-construction stack for the owner header.
var (
	ctorMu   sync.Mutex
	ctorCols []*Collector
)

func pushCtorCollector(c *Collector) {
	ctorMu.Lock()
	ctorCols = append(ctorCols, c)
	ctorMu.Unlock()
}

func popCtorCollector() {
	ctorMu.Lock()
	ctorCols = ctorCols[:len(ctorCols)-1]
	ctorMu.Unlock()
}

func currentCtorCollector() *Collector {
	ctorMu.Lock()
	defer ctorMu.Unlock()
	if n := len(ctorCols); n > 0 {
		return ctorCols[n-1]
	}
	return nil
}
