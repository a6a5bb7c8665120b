package csp

import (
	"context"
	"testing"
	"time"
)

func TestReturnValuePreservation(t *testing.T) {
	ctx := Spawn(func(args any) any {
		n := args.(int)
		return n * 2
	}, 21)
	if ctx == nil {
		t.Fatal("Spawn returned nil")
	}
	Wait(ctx)
	if got := Ret(ctx); got != 42 {
		t.Fatalf("Ret = %v, want 42", got)
	}
}

func TestRunningTransitionsToFalse(t *testing.T) {
	release := make(chan struct{})
	ctx := Spawn(func(args any) any {
		<-release
		return nil
	}, nil)
	if !Running(ctx) {
		t.Fatal("Running should report true before the process returns")
	}
	close(release)
	Wait(ctx)
	if Running(ctx) {
		t.Fatal("Running should report false after the process returns")
	}
}

func TestSpawnWithChannelRoundTrip(t *testing.T) {
	creator, peer := Make(false)
	ctx := SpawnWithChannel(func(args any, ch *Channel) any {
		buf := make([]byte, 32)
		n := ch.Recv(buf)
		return string(buf[:n])
	}, nil, peer)

	msg := []byte("hello world!")
	if n := creator.Send(msg, len(msg)); n != len(msg) {
		t.Fatalf("Send = %d, want %d", n, len(msg))
	}
	Wait(ctx)
	if got := Ret(ctx); got != "hello world!" {
		t.Fatalf("Ret = %v, want \"hello world!\"", got)
	}
}

func TestKillMarksStopped(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	ctx := Spawn(func(args any) any {
		<-release
		return nil
	}, nil)
	Kill(ctx)
	if Running(ctx) {
		t.Fatal("Running should report false immediately after Kill")
	}
}

func TestSpawnRejectedReturnsNil(t *testing.T) {
	ctx := Spawn(func(args any) any { return nil }, nil, WithStackSize(-1))
	if ctx != nil {
		t.Fatal("Spawn with an invalid stack size should be rejected")
	}
}

func TestWithContextKillsOnCancel(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	parent, cancel := context.WithCancel(context.Background())

	ctx := Spawn(func(args any) any {
		<-release
		return nil
	}, nil, WithContext(parent))

	if !Running(ctx) {
		t.Fatal("Running should report true before cancellation")
	}
	cancel()

	deadline := time.After(time.Second)
	for Running(ctx) {
		select {
		case <-deadline:
			t.Fatal("process was not killed after its context was canceled")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestGoroutineCountScaling(t *testing.T) {
	const n = 50
	var g Group
	ctxs := make([]*Context, n)
	for i := 0; i < n; i++ {
		i := i
		ctxs[i] = g.Go(func(args any) any {
			return args.(int) * args.(int)
		}, i)
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("Group.Wait = %v, want nil", err)
	}
	for i, ctx := range ctxs {
		if ctx == nil {
			t.Fatalf("process %d: Go returned a nil Context", i)
		}
		if Running(ctx) {
			t.Fatalf("process %d: still running after Group.Wait", i)
		}
		if got := Ret(ctx); got != i*i {
			t.Fatalf("process %d: Ret = %v, want %d", i, got, i*i)
		}
	}
}

func TestWaitDoesNotReturnBeforeCompletion(t *testing.T) {
	release := make(chan struct{})
	ctx := Spawn(func(args any) any {
		<-release
		return "done"
	}, nil)

	done := make(chan struct{})
	go func() {
		Wait(ctx)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Wait returned before the process released")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)
	<-done
	if got := Ret(ctx); got != "done" {
		t.Fatalf("Ret = %v, want \"done\"", got)
	}
}
