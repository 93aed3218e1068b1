package tgc

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/mattn/go-colorable"

	"github.com/crazybie/tgc/internal/metaset"
)

// gcAsserts enables internal consistency checks. They panic on violation
// and are compiled out of normal builds.
const gcAsserts = false

// Phase of the incremental collection state machine.
type gcPhase uint8

const (
	phaseRootMarking gcPhase = iota
	phaseLeafMarking
	phaseSweeping
)

func (p gcPhase) String() string {
	switch p {
	case phaseRootMarking:
		return "RootMarking"
	case phaseLeafMarking:
		return "LeafMarking"
	case phaseSweeping:
		return "Sweeping"
	default:
		return "!err"
	}
}

// Collector owns all garbage-collection state: the handle vector, the
// interval-ordered live set, the gray worklist, the in-construction stack
// and the phase cursors. It only runs when the mutator calls Collect, and
// any call may suspend between steps and resume on the next one.
type Collector struct {
	mu rwLock

	ptrs     []*PtrBase
	gray     []*ObjMeta
	metas    *metaset.Set[*ObjMeta]
	creating []*ObjMeta

	phase         gcPhase
	nextRootIndex int
	sweepIt       metaset.Iterator[*ObjMeta]

	isCreating atomic.Int32

	cfg   Config
	trace io.Writer

	totalAlloc uint64
	mallocs    uint64
	frees      uint64
}

// NewCollector returns a collector with the default configuration.
func NewCollector() *Collector {
	return NewCollectorWithConfig(DefaultConfig())
}

// NewCollectorWithConfig returns a collector tuned by cfg. Zero or negative
// tunables fall back to their defaults.
func NewCollectorWithConfig(cfg Config) *Collector {
	cfg = cfg.withDefaults()
	return &Collector{
		ptrs:  make([]*PtrBase, 0, cfg.PtrCapacity),
		gray:  make([]*ObjMeta, 0, cfg.GrayCapacity),
		metas: metaset.New(metaLess),
		cfg:   cfg,
		trace: colorable.NewColorableStderr(),
	}
}

// SetTraceWriter redirects the debug trace (Config.Debug) to w.
func (c *Collector) SetTraceWriter(w io.Writer) { c.trace = w }

var (
	defaultOnce sync.Once
	defaultCol  *Collector
)

// Default returns the process-wide collector, creating it on first use.
func Default() *Collector {
	defaultOnce.Do(func() { defaultCol = NewCollector() })
	return defaultCol
}

// addMeta inserts a fresh header into the live set and pushes it onto the
// in-construction stack, so handles created while the object is being
// constructed can discover their owner.
func (c *Collector) addMeta(m *ObjMeta) {
	got := c.mu.tryLock()
	defer c.mu.unlockIf(got)
	c.metas.Insert(m)
	c.creating = append(c.creating, m)
	c.mallocs++
	c.totalAlloc += uint64(m.klass.size) * uint64(m.length)
}

// removeCreating pops m from the in-construction stack. Constructions
// unwind in LIFO order, so the scan from the top is O(1) in practice.
func (c *Collector) removeCreating(m *ObjMeta) {
	for i := len(c.creating) - 1; i >= 0; i-- {
		if c.creating[i] == m {
			c.creating = append(c.creating[:i], c.creating[i+1:]...)
			return
		}
	}
	if gcAsserts {
		panic("tgc: removeCreating: header not under construction")
	}
}

// registerPtr appends a handle to the handle vector as an optimistic root,
// then demotes it to a subobject handle when its storage lies inside an
// object currently under construction.
func (c *Collector) registerPtr(p *PtrBase) {
	p.col = c
	p.isRoot = true
	p.registered = true

	got := c.mu.tryLock()
	p.index = len(c.ptrs)
	c.ptrs = append(c.ptrs, p)
	c.mu.unlockIf(got)

	if c.isCreating.Load() > 0 {
		if owner := c.findCreatingObj(p); owner != nil {
			p.isRoot = false
			owner.klass.registerSubPtr(owner, p)
		}
	}
}

// unregisterPtr removes a handle by swapping the last slot into its place.
// When the moved handle lands behind the root-marking cursor it is
// re-shaded: its reference may otherwise be missed for the rest of the
// pass.
func (c *Collector) unregisterPtr(p *PtrBase) {
	got := c.mu.tryLock()
	if gcAsserts && (p.index >= len(c.ptrs) || c.ptrs[p.index] != p) {
		panic("tgc: unregister of unknown handle")
	}
	last := len(c.ptrs) - 1
	var moved *PtrBase
	if p.index != last {
		moved = c.ptrs[last]
		c.ptrs[p.index] = moved
		moved.index = p.index
	}
	c.ptrs[last] = nil
	c.ptrs = c.ptrs[:last]
	c.mu.unlockIf(got)

	p.registered = false
	p.col = nil

	if moved == nil || moved.meta == nil {
		return
	}
	rgot := c.mu.tryRLock()
	defer c.mu.runlockIf(rgot)
	if c.phase == phaseRootMarking && moved.index < c.nextRootIndex {
		c.tryMarkRoot(moved)
	}
}

// tryMarkRoot shades the target of a root handle: a White header becomes
// Gray and joins the worklist.
func (c *Collector) tryMarkRoot(p *PtrBase) {
	if p.isRoot && p.meta.color == colorWhite {
		p.meta.color = colorGray
		c.gray = append(c.gray, p.meta)
	}
}

// onPtrChanged is the write barrier, called on every handle mutation.
func (c *Collector) onPtrChanged(p *PtrBase) {
	if p.meta == nil {
		return
	}
	got := c.mu.tryRLock()
	defer c.mu.runlockIf(got)

	switch c.phase {
	case phaseRootMarking:
		// A store into the already-visited region must still be captured.
		if p.index < c.nextRootIndex {
			c.tryMarkRoot(p)
		}
	case phaseLeafMarking:
		c.tryMarkRoot(p)
	case phaseSweeping:
		if p.meta.color == colorWhite {
			if c.sweepIt.Valid() && !metaLess(p.meta, c.sweepIt.Item()) {
				// Not yet reached: recolor Black to shield it from the
				// sweeper for the rest of this cycle.
				p.meta.color = colorBlack
			}
			// Otherwise the sweeper has already passed it; survivors are
			// reset to White as the cursor moves, so there is nothing to do
			// until the next cycle.
		}
	}
}

// findCreatingObj scans the in-construction stack from the top for the
// header whose payload contains the handle's storage. The owner may not be
// the innermost entry when constructors recurse.
func (c *Collector) findCreatingObj(p *PtrBase) *ObjMeta {
	got := c.mu.tryRLock()
	defer c.mu.runlockIf(got)
	for i := len(c.creating) - 1; i >= 0; i-- {
		if c.creating[i].contains(p.addr()) {
			return c.creating[i]
		}
	}
	return nil
}

// findOwnerMeta resolves an arbitrary payload address to its header via a
// lower-bound search over the live set, or nil when the address lies in no
// live payload.
func (c *Collector) findOwnerMeta(obj unsafe.Pointer) *ObjMeta {
	got := c.mu.tryRLock()
	defer c.mu.runlockIf(got)

	// The sentinel's empty interval ends one past obj, so the lower bound
	// lands on the first header whose interval end lies beyond obj even
	// when two payloads happen to be adjacent in memory.
	sentinel := ObjMeta{klass: sentinelClass, obj: unsafe.Add(obj, 1)}
	it := c.metas.LowerBound(&sentinel)
	if it.Valid() && it.Item().contains(uintptr(obj)) {
		return it.Item()
	}
	return nil
}

// Collect advances the state machine by at most steps units of work. A unit
// is one handle visited, one gray header scanned or child enumerated, or
// one header examined by the sweeper. A single call keeps going across
// phase transitions until the budget runs out; on a quiescent empty heap it
// returns immediately.
func (c *Collector) Collect(steps int) {
	c.mu.lock()
	defer c.mu.unlock()

	for {
		switch c.phase {
		case phaseRootMarking:
			for ; c.nextRootIndex < len(c.ptrs) && steps > 0; c.nextRootIndex++ {
				steps--
				p := c.ptrs[c.nextRootIndex]
				m := p.meta
				if m == nil {
					continue
				}
				// Demote the handles owned by the pointee. Container
				// elements live outside any payload interval and start out
				// as optimistic roots; this is where they are corrected.
				it := m.klass.enumerate(m)
				for it.HasNext() {
					it.Next().isRoot = false
				}
				c.tryMarkRoot(p)
			}
			if c.nextRootIndex < len(c.ptrs) {
				return
			}
			c.nextRootIndex = 0
			c.setPhase(phaseLeafMarking)

		case phaseLeafMarking:
			for len(c.gray) > 0 && steps > 0 {
				steps--
				m := c.gray[len(c.gray)-1]
				c.gray = c.gray[:len(c.gray)-1]
				m.color = colorBlack

				it := m.klass.enumerate(m)
				for it.HasNext() {
					steps--
					child := it.Next().meta
					if child != nil && child.color == colorWhite {
						child.color = colorGray
						c.gray = append(c.gray, child)
					}
				}
			}
			if len(c.gray) > 0 {
				return
			}
			c.sweepIt = c.metas.Begin()
			c.setPhase(phaseSweeping)

		case phaseSweeping:
			for c.sweepIt.Valid() && steps > 0 {
				steps--
				m := c.sweepIt.Item()
				if m.color == colorWhite {
					next, _ := c.metas.Erase(m)
					c.sweepIt = next
					c.frees++
					if c.cfg.Debug {
						fmt.Fprintf(c.trace, "tgc: sweep %v x%d\n", m.klass.elem, m.length)
					}
					m.free()
					continue
				}
				m.color = colorWhite
				c.sweepIt.Next()
			}
			if c.sweepIt.Valid() {
				return
			}
			c.setPhase(phaseRootMarking)
			if c.metas.Len() == 0 {
				return
			}
		}
		if steps <= 0 {
			return
		}
	}
}

// Step advances the state machine by the configured step budget.
func (c *Collector) Step() { c.Collect(c.cfg.StepBudget) }

func (c *Collector) setPhase(p gcPhase) {
	if c.cfg.Debug && c.phase != p {
		fmt.Fprintf(c.trace, "tgc: phase %v -> %v\n", c.phase, p)
	}
	c.phase = p
}

// Close tears the collector down: every remaining header is destroyed
// (running destructors) and released, and handles still registered are
// emptied. The collector is reset to its initial quiescent state.
func (c *Collector) Close() {
	c.mu.lock()
	defer c.mu.unlock()

	it := c.metas.Begin()
	for it.Valid() {
		m := it.Item()
		next, _ := c.metas.Erase(m)
		it = next
		c.frees++
		m.free()
	}
	for _, p := range c.ptrs {
		p.meta = nil
	}
	c.gray = c.gray[:0]
	c.creating = c.creating[:0]
	c.nextRootIndex = 0
	c.sweepIt = metaset.Iterator[*ObjMeta]{}
	c.phase = phaseRootMarking
}
