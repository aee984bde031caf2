// Package timing rate limits callbacks fired in bursts.
package timing

import (
	"sync"
	"time"
)

// Throttle returns a function that runs f at most once per d. Calls made during the
// quiet period are dropped.
func Throttle(d time.Duration, f func()) func() {
	var (
		mu   sync.Mutex
		last time.Time
	)

	return func() {
		mu.Lock()
		now := time.Now()
		if !last.IsZero() && now.Sub(last) < d {
			mu.Unlock()
			return
		}
		last = now
		mu.Unlock()

		f()
	}
}
