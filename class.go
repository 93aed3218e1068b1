package tgc

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"
)

type classState uint8

const (
	classUnregistered classState = iota
	classRegistered
)

// memRequest selects one of the per-class memory operations. Unifying them
// behind a single tagged entry point keeps the collector core down to one
// function value per class.
type memRequest uint8

const (
	memAlloc      memRequest = iota // arg: element count, returns *ObjMeta
	memDealloc                      // arg: *ObjMeta, releases the header
	memDestruct                     // arg: *ObjMeta, runs element destructors
	memEnumerator                   // arg: *ObjMeta, returns PtrEnumerator
)

type memHandler func(cls *ClassMeta, req memRequest, arg any) any

// maxArrayLen bounds the element count of a single allocation; the header
// stores the length in 32 bits.
const maxArrayLen = 1<<32 - 1

// AllocError reports a failed allocation request. It is delivered by panic
// from New and NewArray and can be caught with recover.
type AllocError struct {
	Elem  reflect.Type
	Count int
}

func (e *AllocError) Error() string {
	return fmt.Sprintf("tgc: allocation of %d x %v failed", e.Count, e.Elem)
}

// ClassMeta is the per-type descriptor. One instance exists per concrete
// element type for the life of the process.
//
// The byte offsets of the handles embedded in an element are not declared
// by the user: they are observed while the very first instance of the type
// is constructed, and frozen once that construction succeeds.
type ClassMeta struct {
	handler memHandler
	size    uintptr
	elem    reflect.Type
	dtor    func(unsafe.Pointer)
	enumFn  func(*ObjMeta) PtrEnumerator

	// offsets of embedded handles from the element base, strictly
	// ascending, immutable once state is classRegistered.
	offsets []uintptr
	state   classState
	mu      rwLock
}

// Elem returns the element type described by the class.
func (c *ClassMeta) Elem() reflect.Type { return c.elem }

// Size returns the size in bytes of one element.
func (c *ClassMeta) Size() uintptr { return c.size }

var (
	classesMu sync.Mutex
	classes   = map[reflect.Type]*ClassMeta{}
)

func classFor[T any]() *ClassMeta { return classOf[T](nil) }

// classOf returns the class descriptor for T, creating it on first use.
// enumFn, when non-nil on the creating call, installs a custom enumerator
// (container wrappers use this before their first allocation).
func classOf[T any](enumFn func(*ObjMeta) PtrEnumerator) *ClassMeta {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	classesMu.Lock()
	defer classesMu.Unlock()
	if c, ok := classes[rt]; ok {
		return c
	}
	c := &ClassMeta{
		handler: makeHandler[T](),
		size:    rt.Size(),
		elem:    rt,
		enumFn:  enumFn,
	}
	classes[rt] = c
	return c
}

// SetDestructor registers fn to run over every element of a T allocation
// when the object is destroyed, explicitly or by the sweeper.
func SetDestructor[T any](fn func(*T)) {
	c := classFor[T]()
	c.mu.lock()
	if fn == nil {
		c.dtor = nil
	} else {
		c.dtor = func(p unsafe.Pointer) { fn((*T)(p)) }
	}
	c.mu.unlock()
}

// makeHandler builds the unified memory handler for element type T.
func makeHandler[T any]() memHandler {
	return func(cls *ClassMeta, req memRequest, arg any) any {
		switch req {
		case memAlloc:
			n := arg.(int)
			if n < 0 || uint64(n) > maxArrayLen ||
				(cls.size > 0 && uintptr(n) > ^uintptr(0)/cls.size) {
				panic(&AllocError{Elem: cls.elem, Count: n})
			}
			// Empty payloads still get a non-empty backing store (one byte
			// for zero-sized element types, one element for zero-length
			// arrays): the live set is keyed by payload address, which must
			// stay unique per allocation.
			var obj unsafe.Pointer
			var ref any
			if cls.size == 0 {
				b := make([]byte, 1)
				obj, ref = unsafe.Pointer(&b[0]), b
			} else {
				backing := make([]T, max(n, 1))
				obj, ref = unsafe.Pointer(&backing[0]), backing
			}
			return &ObjMeta{
				klass:  cls,
				obj:    obj,
				ref:    ref,
				length: uint32(n),
			}

		case memDestruct:
			m := arg.(*ObjMeta)
			if d := cls.dtor; d != nil {
				for i := uintptr(m.length); i > 0; i-- {
					d(unsafe.Add(m.obj, (i-1)*cls.size))
				}
			}
			// Handles owned by the payload die with it; drop them from the
			// collector's handle vector after the destructors have run.
			it := cls.enumerate(m)
			for it.HasNext() {
				if p := it.Next(); p.registered {
					m.col.unregisterPtr(p)
					p.meta = nil
				}
			}
			return nil

		case memDealloc:
			m := arg.(*ObjMeta)
			m.ref = nil
			m.obj = nil
			return nil

		case memEnumerator:
			m := arg.(*ObjMeta)
			if m.length == 0 {
				return emptyEnumerator{}
			}
			if cls.enumFn != nil {
				return cls.enumFn(m)
			}
			return &objPtrEnumerator{meta: m}
		}
		return nil
	}
}

// enumerate produces a fresh single-pass enumerator over the handles
// reachable through m.
func (c *ClassMeta) enumerate(m *ObjMeta) PtrEnumerator {
	return c.handler(c, memEnumerator, m).(PtrEnumerator)
}

// newMeta allocates count elements plus a header, inserts the header into
// the collector's live set and pushes it onto the in-construction stack.
// On allocation failure nothing is inserted and the failure propagates.
func (c *ClassMeta) newMeta(col *Collector, count int) *ObjMeta {
	m := c.handler(c, memAlloc, count).(*ObjMeta)
	m.col = col
	col.addMeta(m)
	col.isCreating.Add(1)
	return m
}

// endNewMeta finishes a construction started by newMeta. On success the
// class state freezes to Registered; on failure the header is removed from
// the live set and deallocated.
func (c *ClassMeta) endNewMeta(m *ObjMeta, failed bool) {
	col := m.col
	col.isCreating.Add(-1)
	if !failed {
		c.mu.lock()
		c.state = classRegistered
		c.mu.unlock()
	}

	got := col.mu.tryLock()
	col.removeCreating(m)
	if failed {
		col.metas.Erase(m)
		col.frees++
		col.mu.unlockIf(got)
		c.handler(c, memDealloc, m)
		return
	}
	col.mu.unlockIf(got)
}

// registerSubPtr records the offset of a handle discovered inside owner
// during construction. Offsets are observed once, on the first-ever
// construction of the class; a non-increasing offset means a recursing
// constructor already recorded this slot.
func (c *ClassMeta) registerSubPtr(owner *ObjMeta, p *PtrBase) {
	off := p.addr() - owner.start()

	got := c.mu.tryRLock()
	if c.state == classRegistered {
		c.mu.runlockIf(got)
		return
	}
	if n := len(c.offsets); n > 0 && off <= c.offsets[n-1] {
		c.mu.runlockIf(got)
		return
	}
	c.mu.runlockIf(got)

	got = c.mu.tryLock()
	c.offsets = append(c.offsets, off)
	c.mu.unlockIf(got)
}
