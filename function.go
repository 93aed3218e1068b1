package tgc

// Function is a callable whose captured state lives on the collected heap.
// The state object is an ordinary collected allocation: handles embedded in
// it are traced like any other, so a Function can participate in (and be
// reclaimed as part of) reference cycles once released.
type Function[S any, R any] struct {
	state *Ptr[S]
	fn    func(*S) R
}

// NewFunction allocates the captured state with the given constructors and
// binds fn over it.
func NewFunction[S any, R any](fn func(*S) R, ctors ...func(*S)) *Function[S, R] {
	return NewFunctionIn(Default(), fn, ctors...)
}

// NewFunctionIn is NewFunction against an explicit collector.
func NewFunctionIn[S any, R any](col *Collector, fn func(*S) R, ctors ...func(*S)) *Function[S, R] {
	return &Function[S, R]{
		state: NewIn[S](col, ctors...),
		fn:    fn,
	}
}

// Valid reports whether the function is callable.
func (f *Function[S, R]) Valid() bool {
	return f != nil && f.fn != nil && f.state != nil && f.state.meta != nil
}

// Call invokes the function over its captured state.
func (f *Function[S, R]) Call() R {
	return f.fn(f.state.Get())
}

// State returns the handle to the captured state.
func (f *Function[S, R]) State() *Ptr[S] { return f.state }

// Release drops the handle to the captured state.
func (f *Function[S, R]) Release() {
	if f.state != nil {
		f.state.Release()
	}
}
