package service

import (
	"context"
	"time"
)

// responseFloor pads a call out to a minimum duration so a caller cannot tell
// from timing whether any work was done.
type responseFloor struct {
	min time.Duration
}

func newResponseFloor(d time.Duration) responseFloor {
	return responseFloor{min: d}
}

// wait blocks until min has passed since started, or ctx is done.
func (f responseFloor) wait(ctx context.Context, started time.Time) {
	remaining := f.min - time.Since(started)
	if remaining <= 0 {
		return
	}
	t := time.NewTimer(remaining)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
