package tgc

import (
	"fmt"
	"io"

	"github.com/inhies/go-bytesize"
	"github.com/mattn/go-colorable"
)

// Stats is a point-in-time snapshot of collector state.
type Stats struct {
	// Handles is the number of registered handles, Headers the number of
	// headers in the live set (including destroyed ones awaiting sweep),
	// Gray the worklist depth and Live the number of headers whose payload
	// has not been destroyed.
	Handles int
	Headers int
	Gray    int
	Live    int

	// LiveBytes is the payload size of the live headers.
	LiveBytes uint64

	// Mallocs and Frees count headers ever allocated and released;
	// TotalAlloc accumulates requested payload bytes.
	Mallocs    uint64
	Frees      uint64
	TotalAlloc uint64

	// Phase names the state-machine phase at snapshot time.
	Phase string
}

// ReadStats snapshots the collector.
func (c *Collector) ReadStats() Stats {
	got := c.mu.tryRLock()
	defer c.mu.runlockIf(got)

	s := Stats{
		Handles:    len(c.ptrs),
		Headers:    c.metas.Len(),
		Gray:       len(c.gray),
		Mallocs:    c.mallocs,
		Frees:      c.frees,
		TotalAlloc: c.totalAlloc,
		Phase:      c.phase.String(),
	}
	for it := c.metas.Begin(); it.Valid(); it.Next() {
		m := it.Item()
		if m.length > 0 {
			s.Live++
			s.LiveBytes += uint64(m.klass.size) * uint64(m.length)
		}
	}
	return s
}

// DumpStats writes a human-readable snapshot to w, or to the colorable
// standard output when w is nil. Observability only.
func (c *Collector) DumpStats(w io.Writer) {
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	s := c.ReadStats()
	fmt.Fprintln(w, "========= [gc] =========")
	fmt.Fprintf(w, "[handles     ] %3d\n", s.Handles)
	fmt.Fprintf(w, "[headers     ] %3d\n", s.Headers)
	fmt.Fprintf(w, "[gray headers] %3d\n", s.Gray)
	fmt.Fprintf(w, "[live objects] %3d\n", s.Live)
	fmt.Fprintf(w, "[live bytes  ] %v\n", bytesize.New(float64(s.LiveBytes)))
	fmt.Fprintf(w, "[mallocs     ] %3d\n", s.Mallocs)
	fmt.Fprintf(w, "[frees       ] %3d\n", s.Frees)
	fmt.Fprintf(w, "[total alloc ] %v\n", bytesize.New(float64(s.TotalAlloc)))
	fmt.Fprintf(w, "[phase       ] %s\n", s.Phase)
	fmt.Fprintln(w, "========================")
}
