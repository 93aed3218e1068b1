package tgc

import (
	"strings"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader("step_budget: 16\ndebug: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StepBudget != 16 {
		t.Errorf("StepBudget = %d, want 16", cfg.StepBudget)
	}
	if !cfg.Debug {
		t.Errorf("Debug not set")
	}
	// Missing fields keep their defaults.
	d := DefaultConfig()
	if cfg.PtrCapacity != d.PtrCapacity || cfg.GrayCapacity != d.GrayCapacity {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(strings.NewReader("step_budget: [nonsense")); err == nil {
		t.Errorf("malformed yaml accepted")
	}
}

func TestConfiguredStep(t *testing.T) {
	c := NewCollectorWithConfig(Config{StepBudget: 1})

	// With a budget of one, a single Step must not finish marking a
	// two-object graph.
	a := NewIn[testNode](c, nodeCtor)
	b := NewIn[testNode](c, nodeCtor)
	a.Get().child.Set(b)
	b.Release()

	c.Step()
	if c.phase != phaseRootMarking || c.nextRootIndex != 1 {
		t.Errorf("step budget not honored: phase %v cursor %d", c.phase, c.nextRootIndex)
	}

	a.Release()
	c.Collect(10000)
	if got := c.ReadStats().Headers; got != 0 {
		t.Errorf("headers = %d, want 0", got)
	}
}
