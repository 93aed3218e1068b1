package tgc

import "testing"

type vecNode struct {
	weight int
}

func TestVectorKeepsElementsAlive(t *testing.T) {
	c := NewCollector()
	dtors := 0
	SetDestructor(func(*vecNode) { dtors++ })
	defer SetDestructor[vecNode](nil)

	v := NewVectorIn[vecNode](c)
	for i := 0; i < 10; i++ {
		n := NewIn(c, func(x *vecNode) { x.weight = i })
		v.Push(n)
		n.Release()
	}

	c.Collect(1000)
	if got := c.ReadStats().Headers; got != 11 {
		t.Fatalf("headers = %d, want 11 (vector + 10 nodes)", got)
	}
	if v.Len() != 10 {
		t.Fatalf("vector len = %d, want 10", v.Len())
	}
	for i := 0; i < 10; i++ {
		if v.At(i).Get().weight != i {
			t.Errorf("element %d corrupted", i)
		}
	}

	v.Release()
	c.Collect(10000)
	if got := c.ReadStats().Headers; got != 0 {
		t.Errorf("headers = %d, want 0", got)
	}
	if dtors != 10 {
		t.Errorf("destructors = %d, want 10", dtors)
	}
	if got := c.ReadStats().Handles; got != 0 {
		t.Errorf("handles = %d, want 0 (element handles released)", got)
	}
}

func TestVectorPopReleasesElement(t *testing.T) {
	c := NewCollector()
	dtors := 0
	SetDestructor(func(*vecNode) { dtors++ })
	defer SetDestructor[vecNode](nil)

	v := NewVectorIn[vecNode](c)
	n := NewIn[vecNode](c)
	v.Push(n)
	n.Release()

	v.Pop()
	c.Collect(10000)
	if got := c.ReadStats().Headers; got != 1 {
		t.Errorf("headers = %d, want 1 (just the vector)", got)
	}
	if dtors != 1 {
		t.Errorf("destructors = %d, want 1", dtors)
	}

	v.Release()
	c.Collect(10000)
}

func TestListReclamation(t *testing.T) {
	c := NewCollector()
	dtors := 0
	SetDestructor(func(*vecNode) { dtors++ })
	defer SetDestructor[vecNode](nil)

	l := NewListIn[vecNode](c)
	for i := 0; i < 3; i++ {
		n := NewIn[vecNode](c)
		l.Push(n)
		n.Release()
	}
	if l.Len() != 3 {
		t.Fatalf("list len = %d, want 3", l.Len())
	}

	c.Collect(10000)
	if got := c.ReadStats().Headers; got != 4 {
		t.Fatalf("headers = %d, want 4", got)
	}

	l.Pop()
	c.Collect(10000)
	if got := c.ReadStats().Headers; got != 3 {
		t.Errorf("headers after pop = %d, want 3", got)
	}
	if dtors != 1 {
		t.Errorf("destructors = %d, want 1", dtors)
	}
	if l.Front() == nil || l.Front().IsNil() {
		t.Errorf("front of list is empty")
	}

	visited := 0
	l.Each(func(p *Ptr[vecNode]) { visited++ })
	if visited != 2 {
		t.Errorf("visited %d elements, want 2", visited)
	}

	l.Release()
	c.Collect(10000)
	if got := c.ReadStats().Headers; got != 0 {
		t.Errorf("headers = %d, want 0", got)
	}
	if dtors != 3 {
		t.Errorf("destructors = %d, want 3", dtors)
	}
}

func TestDeque(t *testing.T) {
	c := NewCollector()

	q := NewDequeIn[vecNode](c)
	for i := 0; i < 5; i++ {
		n := NewIn(c, func(x *vecNode) { x.weight = i })
		if i%2 == 0 {
			q.PushBack(n)
		} else {
			q.PushFront(n)
		}
		n.Release()
	}
	// logical order: 3 1 0 2 4
	want := []int{3, 1, 0, 2, 4}
	for i, w := range want {
		if got := q.At(i).Get().weight; got != w {
			t.Errorf("deque[%d] = %d, want %d", i, got, w)
		}
	}

	c.Collect(10000)
	if got := c.ReadStats().Headers; got != 6 {
		t.Fatalf("headers = %d, want 6", got)
	}

	q.PopFront()
	q.PopBack()
	c.Collect(10000)
	if got := c.ReadStats().Headers; got != 4 {
		t.Errorf("headers = %d, want 4", got)
	}
	if q.Len() != 3 {
		t.Errorf("deque len = %d, want 3", q.Len())
	}

	q.Release()
	c.Collect(10000)
	if got := c.ReadStats().Headers; got != 0 {
		t.Errorf("headers = %d, want 0", got)
	}
}

func TestHashMap(t *testing.T) {
	c := NewCollector()
	dtors := 0
	SetDestructor(func(*vecNode) { dtors++ })
	defer SetDestructor[vecNode](nil)

	m := NewHashMapIn[string, vecNode](c)
	for i, k := range []string{"a", "b", "c"} {
		n := NewIn(c, func(x *vecNode) { x.weight = i })
		m.Put(k, n)
		n.Release()
	}

	c.Collect(10000)
	if got := c.ReadStats().Headers; got != 4 {
		t.Fatalf("headers = %d, want 4", got)
	}
	if v, ok := m.Get("b"); !ok || v.Get().weight != 1 {
		t.Errorf("lookup of b failed")
	}

	// Replacing an entry releases the old slot and the old value dies.
	n := NewIn(c, func(x *vecNode) { x.weight = 9 })
	m.Put("b", n)
	n.Release()
	c.Collect(10000)
	if got := c.ReadStats().Headers; got != 4 {
		t.Errorf("headers after replace = %d, want 4", got)
	}
	if dtors != 1 {
		t.Errorf("destructors = %d, want 1 (replaced value)", dtors)
	}

	m.Remove("a")
	c.Collect(10000)
	if got := c.ReadStats().Headers; got != 3 {
		t.Errorf("headers after remove = %d, want 3", got)
	}
	if m.Len() != 2 {
		t.Errorf("map len = %d, want 2", m.Len())
	}

	m.Release()
	c.Collect(10000)
	if got := c.ReadStats().Headers; got != 0 {
		t.Errorf("headers = %d, want 0", got)
	}
}

func TestSet(t *testing.T) {
	c := NewCollector()

	s := NewSetIn[vecNode](c)
	a := NewIn[vecNode](c)
	b := NewIn[vecNode](c)
	rawA := a.Get()

	if !s.Add(a) || !s.Add(b) {
		t.Fatalf("adding distinct objects failed")
	}
	if s.Add(a) {
		t.Errorf("duplicate add reported success")
	}
	dup := FromIn(c, a.Get())
	if s.Add(dup) {
		t.Errorf("second handle to a member was added")
	}
	if !s.Has(dup) {
		t.Errorf("membership is not by referenced object")
	}
	dup.Release()
	if s.Len() != 2 {
		t.Fatalf("set len = %d, want 2", s.Len())
	}

	a.Release()
	b.Release()
	c.Collect(10000)
	if got := c.ReadStats().Headers; got != 3 {
		t.Errorf("headers = %d, want 3 (set keeps members alive)", got)
	}

	ha := FromIn(c, rawA)
	s.Remove(ha)
	ha.Release()
	c.Collect(10000)
	if got := c.ReadStats().Headers; got != 2 {
		t.Errorf("headers after remove = %d, want 2", got)
	}

	s.Release()
	c.Collect(10000)
	if got := c.ReadStats().Headers; got != 0 {
		t.Errorf("headers = %d, want 0", got)
	}
}
