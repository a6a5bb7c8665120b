package csp

import "container/ring"

// SendSelect attempts a TrySend of data[:n] on each channel, returning
// the index of the first one that accepts it. It busy-loops, yielding
// between full scans (never within one). Each scan starts one slot
// further around the set than the last, via a ring that rotates once
// per round, so a slice's earlier entries cannot permanently starve its
// later ones the way a fixed left-to-right scan would. There is no
// timeout.
func SendSelect(channels []*Channel, data []byte, n int) int {
	if len(channels) == 0 {
		return -1
	}
	sched := selectScheduler(channels)
	r := newIndexRing(len(channels))
	for {
		cur := r
		for i := 0; i < len(channels); i++ {
			idx := cur.Value.(int)
			if channels[idx].TrySend(data, n) > 0 {
				return idx
			}
			cur = cur.Next()
		}
		r = r.Next()
		sched.Yield()
	}
}

// RecvSelect attempts a TryRecv into dst on each channel, returning the
// index of the first one that yields a complete message. Scan order
// rotates exactly as SendSelect's does.
func RecvSelect(channels []*Channel, dst []byte) int {
	if len(channels) == 0 {
		return -1
	}
	sched := selectScheduler(channels)
	r := newIndexRing(len(channels))
	for {
		cur := r
		for i := 0; i < len(channels); i++ {
			idx := cur.Value.(int)
			if channels[idx].TryRecv(dst) > 0 {
				return idx
			}
			cur = cur.Next()
		}
		r = r.Next()
		sched.Yield()
	}
}

// newIndexRing builds a ring of the integers [0, n) in order, so walking
// n steps from any starting point visits every index exactly once.
func newIndexRing(n int) *ring.Ring {
	r := ring.New(n)
	for i := 0; i < n; i++ {
		r.Value = i
		r = r.Next()
	}
	return r
}

func selectScheduler(channels []*Channel) Scheduler {
	if len(channels) > 0 {
		return channels[0].scheduler()
	}
	return DefaultScheduler
}
