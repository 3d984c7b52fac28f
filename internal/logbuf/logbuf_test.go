package logbuf

import (
	"fmt"
	"sync"
	"testing"

	"github.com/viicttorhugo/invest-botnuvem/internal/model"
)

func TestAppendAndSnapshot(t *testing.T) {
	b := New(10)
	b.Append(model.LogInfo, "first")
	b.Append(model.LogGain, "second %d", 2)

	snap := b.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(snap))
	}
	if snap[0].Message != "first" || snap[1].Message != "second 2" {
		t.Errorf("unexpected messages: %q, %q", snap[0].Message, snap[1].Message)
	}
	if snap[1].Tag != model.LogGain {
		t.Errorf("expected gain tag, got %s", snap[1].Tag)
	}
}

func TestEvictionKeepsNewest(t *testing.T) {
	b := New(5)
	for i := 0; i < 12; i++ {
		b.Append(model.LogInfo, "entry %d", i)
	}
	if b.Len() != 5 {
		t.Fatalf("expected capacity-bounded length 5, got %d", b.Len())
	}
	snap := b.Snapshot()
	for i, e := range snap {
		want := fmt.Sprintf("entry %d", 7+i)
		if e.Message != want {
			t.Errorf("entry %d: expected %q, got %q", i, want, e.Message)
		}
	}
}

func TestDefaultCapacityBound(t *testing.T) {
	b := New(0)
	for i := 0; i < DefaultCapacity+50; i++ {
		b.Append(model.LogInfo, "e")
	}
	if b.Len() != DefaultCapacity {
		t.Errorf("expected %d entries, got %d", DefaultCapacity, b.Len())
	}
}

func TestConcurrentAppendAndSnapshot(t *testing.T) {
	b := New(100)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			b.Append(model.LogInfo, "w %d", i)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if snap := b.Snapshot(); len(snap) > 100 {
				t.Errorf("snapshot exceeded capacity: %d", len(snap))
				return
			}
		}
	}()
	wg.Wait()
}
