package csp

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Group joins a batch of spawned processes and reports the first
// failure among them, restoring the "spawn N workers, wait for all,
// surface the first error" shape the original examples (the packet
// plexer, the worker pool) hand-roll with explicit wait loops.
type Group struct {
	g errgroup.Group
}

// Go spawns fn as a new process under the group and folds its
// completion into the group's join, returning the spawned Context (or
// nil if the Scheduler Façade rejected the spawn) so a caller can still
// assert Ret on it once Wait returns. Spawn itself never blocks — the
// Context is available to the caller the moment Go returns, well before
// the process it names has finished.
func (g *Group) Go(fn Func, args any, opts ...SpawnOption) *Context {
	ctx := Spawn(fn, args, opts...)
	g.g.Go(func() error {
		if ctx == nil {
			return fmt.Errorf("csp: spawn rejected")
		}
		Wait(ctx)
		return nil
	})
	return ctx
}

// GoWithChannel spawns fn as a new process with ch as its channel
// endpoint, joined and returned the same way as Go.
func (g *Group) GoWithChannel(fn ChanFunc, args any, ch *Channel, opts ...SpawnOption) *Context {
	ctx := SpawnWithChannel(fn, args, ch, opts...)
	g.g.Go(func() error {
		if ctx == nil {
			return fmt.Errorf("csp: spawn rejected")
		}
		Wait(ctx)
		return nil
	})
	return ctx
}

// Wait blocks until every process spawned through the group has
// completed, returning the first spawn rejection encountered, if any.
func (g *Group) Wait() error {
	return g.g.Wait()
}
