package tgc

// Container wrappers hold their element handles in ordinary host storage,
// outside any collected payload. Such handles register as optimistic roots
// and are demoted by the container's custom enumerator the first time the
// root-marking phase visits the container; from then on the elements are
// traced through the container alone, so dropping the container makes the
// whole contents collectable.

// newContainer installs a custom enumerator for D's class (before its
// first allocation freezes the descriptor) and allocates one D.
func newContainer[D any](col *Collector, enumFn func(*ObjMeta) PtrEnumerator, ctors ...func(*D)) *Ptr[D] {
	classOf[D](enumFn)
	return newObject[D](col, 1, ctors)
}

// newElem creates the backing handle for one container slot.
func newElem[T any](src *Ptr[T]) *Ptr[T] {
	e := &Ptr[T]{}
	e.Set(src)
	return e
}
