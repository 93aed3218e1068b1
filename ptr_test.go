package tgc

import "testing"

type fromNode struct {
	self  Ptr[fromNode]
	value int
}

func TestFromRoundTrip(t *testing.T) {
	c := NewCollector()
	h := NewIn(c, func(n *fromNode) { n.self.Init(); n.value = 7 })

	got := FromIn(c, h.Get())
	if got.Meta() != h.Meta() {
		t.Errorf("From(h.Get()) resolved a different header")
	}
	if got.Get().value != 7 {
		t.Errorf("payload mismatch through recovered handle")
	}

	// Interior pointers resolve to the containing allocation too.
	inner := FromIn(c, &h.Get().value)
	if inner.Meta() != h.Meta() {
		t.Errorf("interior pointer resolved a different header")
	}

	got.Release()
	inner.Release()
	h.Release()
	c.Collect(1000)
}

func TestFromDanglingPointer(t *testing.T) {
	c := NewCollector()
	var local fromNode
	h := FromIn(c, &local)
	if !h.IsNil() {
		t.Errorf("From of a non-collected pointer must yield an empty handle")
	}
	if got := c.ReadStats().Handles; got != 0 {
		t.Errorf("empty handle was registered: %d handles", got)
	}
}

func TestFromInsideConstructor(t *testing.T) {
	c := NewCollector()
	h := NewIn(c, func(n *fromNode) {
		n.self.Init()
		me := FromIn(c, n)
		n.self.Set(me)
		me.Release()
	})
	if h.Get().self.Meta() != h.Meta() {
		t.Errorf("From inside the constructor did not resolve the creating object")
	}
	h.Release()
	c.Collect(10000)
	if got := c.ReadStats().Headers; got != 0 {
		t.Errorf("headers = %d, want 0", got)
	}
}

type castTarget struct {
	a, b uint32
}

func TestCasts(t *testing.T) {
	c := NewCollector()
	h := NewIn(c, func(x *castTarget) { x.a = 0x11223344 })

	s := StaticCast[uint32](h)
	if s.Meta() != h.Meta() {
		t.Errorf("static cast lost the header")
	}
	if *s.Get() != 0x11223344 {
		t.Errorf("static cast payload mismatch: %#x", *s.Get())
	}

	ok := DynamicCast[castTarget](s)
	if ok.Get() == nil || ok.Meta() != h.Meta() {
		t.Errorf("dynamic cast back to the recorded type failed")
	}
	ok.Release()

	bad := DynamicCast[uint64](h)
	if bad.Meta() != h.Meta() {
		t.Errorf("failed dynamic cast must retain the header")
	}
	if bad.Get() != nil {
		t.Errorf("failed dynamic cast must have a nil payload")
	}
	bad.Release()

	s.Release()
	h.Release()
	c.Collect(1000)
	if got := c.ReadStats().Headers; got != 0 {
		t.Errorf("headers = %d, want 0", got)
	}
}

func TestHandleEquality(t *testing.T) {
	c := NewCollector()
	a := NewIn[fromNode](c, func(n *fromNode) { n.self.Init() })
	b := FromIn(c, a.Get())
	d := NewIn[fromNode](c, func(n *fromNode) { n.self.Init() })

	if !a.Equal(b) {
		t.Errorf("handles to the same object compare unequal")
	}
	if a.Equal(d) {
		t.Errorf("handles to distinct objects compare equal")
	}

	var empty Ptr[fromNode]
	if a.Equal(&empty) {
		t.Errorf("live handle equals empty handle")
	}
	b.SetNil()
	if !b.Equal(&empty) {
		t.Errorf("cleared handle does not equal empty handle")
	}

	a.Release()
	b.Release()
	d.Release()
	c.Collect(1000)
}

func TestNewValue(t *testing.T) {
	c := NewCollector()
	h := NewValueIn(c, 42)
	if *h.Get() != 42 {
		t.Errorf("boxed value = %d, want 42", *h.Get())
	}
	h.Release()
	c.Collect(1000)
	if got := c.ReadStats().Headers; got != 0 {
		t.Errorf("headers = %d, want 0", got)
	}
}
