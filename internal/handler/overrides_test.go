package handler

import (
	"sync"
	"testing"
)

func TestModelOverrides(t *testing.T) {
	o := NewModelOverrides()

	if _, ok := o.Get(1); ok {
		t.Error("unset chat should report no override")
	}

	o.Set(1, "gpt-4")
	if model, ok := o.Get(1); !ok || model != "gpt-4" {
		t.Errorf("Get(1) = %q, %v", model, ok)
	}

	o.Set(1, "gpt-4o")
	if model, _ := o.Get(1); model != "gpt-4o" {
		t.Errorf("override should be replaced, got %q", model)
	}

	if _, ok := o.Get(2); ok {
		t.Error("overrides must be scoped per chat")
	}
}

func TestRequestGuard(t *testing.T) {
	g := NewRequestGuard()

	if !g.Acquire(1) {
		t.Fatal("first Acquire must succeed")
	}
	if g.Acquire(1) {
		t.Error("second Acquire for the same chat must fail while busy")
	}
	if !g.Acquire(2) {
		t.Error("other chats are unaffected")
	}

	g.Release(1)
	if !g.Acquire(1) {
		t.Error("Acquire must succeed again after Release")
	}
}

func TestRequestGuardConcurrent(t *testing.T) {
	g := NewRequestGuard()

	const workers = 32
	var wg sync.WaitGroup
	acquired := make(chan struct{}, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Acquire(7) {
				acquired <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(acquired)

	if n := len(acquired); n != 1 {
		t.Errorf("%d goroutines acquired the same chat, want exactly 1", n)
	}
}
