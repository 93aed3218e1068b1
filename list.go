package tgc

// listNode links one element handle into a List. The handle is embedded by
// value, so its address is stable for the life of the node.
type listNode[T any] struct {
	val  Ptr[T]
	next *listNode[T]
}

type listData[T any] struct {
	head, tail *listNode[T]
	n          int
}

type listEnum[T any] struct {
	cur *listNode[T]
}

func (e *listEnum[T]) HasNext() bool { return e.cur != nil }

func (e *listEnum[T]) Next() *PtrBase {
	p := &e.cur.val.PtrBase
	e.cur = e.cur.next
	return p
}

// List is a FIFO list of handles on the collected heap.
type List[T any] struct {
	h *Ptr[listData[T]]
}

// NewList allocates an empty list on the default collector.
func NewList[T any]() *List[T] { return NewListIn[T](Default()) }

// NewListIn allocates an empty list on col.
func NewListIn[T any](col *Collector) *List[T] {
	h := newContainer[listData[T]](col, func(m *ObjMeta) PtrEnumerator {
		return &listEnum[T]{cur: (*listData[T])(m.obj).head}
	})
	return &List[T]{h: h}
}

// Handle returns the handle to the list object itself.
func (l *List[T]) Handle() *Ptr[listData[T]] { return l.h }

// Len returns the number of elements.
func (l *List[T]) Len() int { return l.h.Get().n }

// Push appends a node referencing the same object as x.
func (l *List[T]) Push(x *Ptr[T]) {
	d := l.h.Get()
	nd := &listNode[T]{}
	nd.val.Set(x)
	if d.tail != nil {
		d.tail.next = nd
	} else {
		d.head = nd
	}
	d.tail = nd
	d.n++
}

// Front returns the handle held by the first node, or nil for an empty
// list.
func (l *List[T]) Front() *Ptr[T] {
	d := l.h.Get()
	if d.head == nil {
		return nil
	}
	return &d.head.val
}

// Pop unlinks the first node.
func (l *List[T]) Pop() {
	d := l.h.Get()
	nd := d.head
	if nd == nil {
		return
	}
	d.head = nd.next
	if d.tail == nd {
		d.tail = nil
	}
	nd.next = nil
	nd.val.Release()
	d.n--
}

// Each calls fn for every element handle, front to back.
func (l *List[T]) Each(fn func(*Ptr[T])) {
	for nd := l.h.Get().head; nd != nil; nd = nd.next {
		fn(&nd.val)
	}
}

// Release drops the handle to the list.
func (l *List[T]) Release() { l.h.Release() }
