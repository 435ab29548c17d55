package mqtt

import (
	"errors"
	"sync"

	"github.com/sweeney/traffic-light/internal/events"
	"github.com/sweeney/traffic-light/internal/logic"
)

// ForwardStatus publishes status events from bus to pub. Consecutive
// identical statuses are published once, so the 200 ms sampler and the
// 500 ms status task do not flood the broker while nothing changes. It
// returns the unsubscribe function.
func ForwardStatus(bus *events.Bus, pub Publisher) func() {
	var (
		mu   sync.Mutex
		last logic.Status
		sent bool
	)
	return bus.Subscribe(func(e events.StatusEvent) {
		st := e.Status()

		mu.Lock()
		defer mu.Unlock()
		if sent && st == last {
			return
		}
		if err := pub.PublishStatus(st, e.Timestamp); err != nil {
			if !errors.Is(err, errNotConnected) {
				log.Warn("Status publish failed", "error", err)
			}
			return
		}
		last, sent = st, true
	})
}
