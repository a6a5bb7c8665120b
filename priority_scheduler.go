package csp

import (
	"container/heap"
	"container/list"
	"fmt"
	"runtime"
	"sync"
)

// bucket holds every pending entry at one priority level, in the order
// CreateProcess received them.
type bucket struct {
	priority int
	tasks    list.List
}

// bucketQueue orders buckets highest-priority-first for container/heap;
// FIFO order within a priority level falls out of bucket.tasks being a
// plain list.
type bucketQueue []*bucket

func (q bucketQueue) Len() int            { return len(q) }
func (q bucketQueue) Less(i, j int) bool  { return q[i].priority > q[j].priority }
func (q bucketQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *bucketQueue) Push(x any)         { *q = append(*q, x.(*bucket)) }
func (q *bucketQueue) Pop() any {
	old := *q
	n := len(old)
	b := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return b
}

// PriorityScheduler is a Scheduler backed by a fixed pool of worker
// goroutines draining a priority queue, giving the priority hint that
// CreateProcess otherwise only carries for a host to act on somewhere
// to actually land: entries queued at a higher priority run before
// lower-priority ones queued earlier, and entries sharing a priority
// run in arrival order.
type PriorityScheduler struct {
	mu      sync.Mutex
	cond    *sync.Cond
	buckets map[int]*bucket
	order   bucketQueue
	closed  bool
}

// NewPriorityScheduler starts workers goroutines (minimum 1) that pull
// queued process entries off the priority queue and run them.
func NewPriorityScheduler(workers int) *PriorityScheduler {
	if workers < 1 {
		workers = 1
	}
	s := &PriorityScheduler{buckets: make(map[int]*bucket)}
	s.cond = sync.NewCond(&s.mu)
	for i := 0; i < workers; i++ {
		go s.drain()
	}
	return s
}

func (s *PriorityScheduler) drain() {
	for {
		entry := s.dequeue()
		if entry == nil {
			return
		}
		runEntry(entry)
	}
}

// terminateSignal is the sentinel PriorityScheduler's Terminate panics
// with. runEntry recovers exactly this value so one entry ending itself
// early unwinds only that entry's call stack, not the worker goroutine
// running it — a worker must survive to dequeue the next entry.
type terminateSignal struct{}

func runEntry(entry func()) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(terminateSignal); !ok {
				panic(r)
			}
		}
	}()
	entry()
}

func (s *PriorityScheduler) dequeue() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.order) == 0 {
		if s.closed {
			return nil
		}
		s.cond.Wait()
	}
	b := s.order[0]
	front := b.tasks.Front()
	b.tasks.Remove(front)
	if b.tasks.Len() == 0 {
		heap.Pop(&s.order)
		delete(s.buckets, b.priority)
	}
	return front.Value.(func())
}

func (s *PriorityScheduler) enqueue(priority int, entry func()) {
	s.mu.Lock()
	b, ok := s.buckets[priority]
	if !ok {
		b = &bucket{priority: priority}
		s.buckets[priority] = b
		heap.Push(&s.order, b)
	}
	b.tasks.PushBack(entry)
	s.mu.Unlock()
	s.cond.Signal()
}

// Yield hints the scheduler to let another runnable goroutine run; a
// PriorityScheduler has no notion of the caller's own priority here, so
// it defers to the host Go runtime exactly as the default Scheduler does.
func (s *PriorityScheduler) Yield() { runtime.Gosched() }

// IsInterruptContext always reports false: a PriorityScheduler's workers
// are plain goroutines with no notion of interrupt context.
func (s *PriorityScheduler) IsInterruptContext() bool { return false }

// SwitchToPriority is advisory only: by the time a process is actually
// running, CreateProcess has already placed it in its priority's
// bucket, so there is nothing left to re-order. It still yields, the
// same nudge the default Scheduler gives.
func (s *PriorityScheduler) SwitchToPriority(priority int) { runtime.Gosched() }

// CreateProcess queues entry at priority and returns immediately,
// without waiting for a worker to pick it up; stackSize is validated but
// otherwise advisory, as with the default Scheduler.
func (s *PriorityScheduler) CreateProcess(stackSize, priority int, name string, entry func()) (ProcessHandle, error) {
	if stackSize < 0 {
		return nil, fmt.Errorf("csp: negative stack size hint %d for process %q", stackSize, name)
	}
	h := &goroutineHandle{done: make(chan struct{})}
	s.enqueue(priority, func() {
		defer close(h.done)
		entry()
	})
	return h, nil
}

// Terminate ends the calling entry only, not the worker goroutine
// running it: unlike the default Scheduler's Goexit-based Terminate, a
// PriorityScheduler's workers are long-lived and must survive to
// dequeue the next entry, so this unwinds via a panic runEntry recovers
// instead of tearing down the goroutine outright. Every deferred call
// registered by the entry (the dispatch trampoline's status/completion
// bookkeeping among them) still runs during that unwind.
func (s *PriorityScheduler) Terminate() { panic(terminateSignal{}) }

// Kill is best-effort only, same caveat as the default Scheduler: a
// queued-but-not-yet-running entry cannot be pulled back out of its
// bucket, and a running one cannot be preempted.
func (s *PriorityScheduler) Kill(h ProcessHandle) {}

// Close lets every worker goroutine exit once the queue is empty,
// releasing idle workers. It does not reject later CreateProcess calls:
// an entry queued after Close runs only if a worker has not yet exited.
// A PriorityScheduler used for the lifetime of a program never needs to
// call this.
func (s *PriorityScheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cond.Broadcast()
}
