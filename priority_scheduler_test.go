package csp

import (
	"sync"
	"testing"
	"time"
)

// TestPriorityOrdersBeforeWorkersDrain queues low- then high-priority
// work behind a single worker that is not yet free, and asserts the
// high-priority entry runs first even though it was queued second.
func TestPriorityOrdersBeforeWorkersDrain(t *testing.T) {
	sched := NewPriorityScheduler(1)
	defer sched.Close()

	block := make(chan struct{})
	started := make(chan struct{})
	_, err := sched.CreateProcess(0, 0, "blocker", func() {
		close(started)
		<-block
	})
	if err != nil {
		t.Fatalf("CreateProcess(blocker) = %v", err)
	}
	<-started

	var mu sync.Mutex
	var order []string
	done := make(chan struct{}, 2)
	record := func(name string) func() {
		return func() {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			done <- struct{}{}
		}
	}

	if _, err := sched.CreateProcess(0, 1, "low", record("low")); err != nil {
		t.Fatalf("CreateProcess(low) = %v", err)
	}
	if _, err := sched.CreateProcess(0, 9, "high", record("high")); err != nil {
		t.Fatalf("CreateProcess(high) = %v", err)
	}

	close(block)
	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("queued entries never ran")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "high" || order[1] != "low" {
		t.Fatalf("run order = %v, want [high low]", order)
	}
}

// TestPriorityFIFOWithinLevel checks that same-priority entries run in
// arrival order.
func TestPriorityFIFOWithinLevel(t *testing.T) {
	sched := NewPriorityScheduler(1)
	defer sched.Close()

	block := make(chan struct{})
	started := make(chan struct{})
	_, err := sched.CreateProcess(0, 0, "blocker", func() {
		close(started)
		<-block
	})
	if err != nil {
		t.Fatalf("CreateProcess(blocker) = %v", err)
	}
	<-started

	var mu sync.Mutex
	var order []int
	done := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		i := i
		if _, err := sched.CreateProcess(0, 5, "same", func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			done <- struct{}{}
		}); err != nil {
			t.Fatalf("CreateProcess(%d) = %v", i, err)
		}
	}

	close(block)
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("queued entries never ran")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Fatalf("run order = %v, want [0 1 2]", order)
	}
}

// TestPrioritySchedulerDrivesSpawn exercises PriorityScheduler through
// the public Spawn/Wait/Ret surface, not just CreateProcess directly.
func TestPrioritySchedulerDrivesSpawn(t *testing.T) {
	sched := NewPriorityScheduler(2)
	defer sched.Close()

	ctx := Spawn(func(args any) any {
		return args.(int) + 1
	}, 41, WithProcessScheduler(sched))
	if ctx == nil {
		t.Fatal("Spawn returned nil")
	}
	Wait(ctx)
	if got := Ret(ctx); got != 42 {
		t.Fatalf("Ret = %v, want 42", got)
	}
}
