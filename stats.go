package csp

import "time"

// timecacheResolution bounds how stale Stats.LastParkedAt may be; a
// millisecond is ample for a human-facing diagnostic and far cheaper
// than a time.Now() syscall on every park.
const timecacheResolution = time.Millisecond

// Stats is a snapshot of a channel's blocking instrumentation, standing
// in for the source's sampled cputicks()/blockprofilerate block
// profiling: always-on here, since the cached clock makes it cheap
// enough not to need sampling.
type Stats struct {
	SendParks    uint64
	RecvParks    uint64
	LastParkedAt time.Time
}

// recordPark must be called with c.mu held.
func (c *core) recordPark(isSender bool) {
	if isSender {
		c.stats.SendParks++
	} else {
		c.stats.RecvParks++
	}
	c.stats.LastParkedAt = clock.CachedTime()
}
