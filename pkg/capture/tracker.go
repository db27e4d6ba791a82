package capture

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// startTracker remembers when each in-flight flow started so latency can be
// computed once the outcome arrives. The bounded LRU keeps flows whose
// outcome never arrives from accumulating forever.
type startTracker struct {
	starts *lru.Cache[string, time.Time]
}

func newStartTracker(maxFlows int) (*startTracker, error) {
	starts, err := lru.New[string, time.Time](maxFlows)
	if err != nil {
		return nil, err
	}
	return &startTracker{starts: starts}, nil
}

// Put records the start time of a flow.
func (t *startTracker) Put(flowID string, start time.Time) {
	t.starts.Add(flowID, start)
}

// Take returns the start time of a flow and forgets it. The zero time means
// the start was never recorded or has been evicted.
func (t *startTracker) Take(flowID string) time.Time {
	start, ok := t.starts.Get(flowID)
	if !ok {
		return time.Time{}
	}
	t.starts.Remove(flowID)
	return start
}

// Len reports how many flows are currently tracked.
func (t *startTracker) Len() int {
	return t.starts.Len()
}
