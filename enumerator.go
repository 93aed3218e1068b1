package tgc

import "unsafe"

// PtrEnumerator streams the handles reachable through one object. An
// enumerator is produced fresh for each use, is single-pass, and is not
// restartable. Container wrappers supply their own implementations that
// walk their logical contents.
type PtrEnumerator interface {
	HasNext() bool
	Next() *PtrBase
}

// objPtrEnumerator is the default implementation: it yields the handle at
// every observed class offset of every array element.
type objPtrEnumerator struct {
	meta *ObjMeta
	elem uint32
	off  int
}

func (e *objPtrEnumerator) HasNext() bool {
	return e.elem < e.meta.length && e.off < len(e.meta.klass.offsets)
}

func (e *objPtrEnumerator) Next() *PtrBase {
	cls := e.meta.klass
	base := unsafe.Add(e.meta.obj, uintptr(e.elem)*cls.size)
	p := (*PtrBase)(unsafe.Add(base, cls.offsets[e.off]))
	e.off++
	if e.off == len(cls.offsets) {
		e.off = 0
		e.elem++
	}
	return p
}

// emptyEnumerator is returned for destroyed payloads, which expose nothing.
type emptyEnumerator struct{}

func (emptyEnumerator) HasNext() bool  { return false }
func (emptyEnumerator) Next() *PtrBase { return nil }
