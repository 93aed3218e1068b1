package tgc

import (
	"bytes"
	"strings"
	"testing"
)

func TestReadStats(t *testing.T) {
	c := NewCollector()

	a := NewIn[testNode](c, nodeCtor)
	b := NewIn[testNode](c, nodeCtor)
	Delete(b)

	s := c.ReadStats()
	if s.Headers != 2 {
		t.Errorf("Headers = %d, want 2", s.Headers)
	}
	if s.Live != 1 {
		t.Errorf("Live = %d, want 1 (deleted object is not live)", s.Live)
	}
	if s.Mallocs != 2 {
		t.Errorf("Mallocs = %d, want 2", s.Mallocs)
	}
	if s.Phase != "RootMarking" {
		t.Errorf("Phase = %q, want RootMarking", s.Phase)
	}
	if s.LiveBytes == 0 || s.TotalAlloc == 0 {
		t.Errorf("byte counters not accumulated: %+v", s)
	}

	a.Release()
	c.Collect(10000)
	s = c.ReadStats()
	if s.Headers != 0 || s.Live != 0 {
		t.Errorf("not drained: %+v", s)
	}
	if s.Frees != 2 {
		t.Errorf("Frees = %d, want 2", s.Frees)
	}
}

func TestDumpStats(t *testing.T) {
	c := NewCollector()
	h := NewIn[testNode](c, nodeCtor)

	var buf bytes.Buffer
	c.DumpStats(&buf)
	out := buf.String()
	for _, want := range []string{"[gc]", "handles", "headers", "live objects", "phase", "RootMarking"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}

	h.Release()
	c.Collect(10000)
}
