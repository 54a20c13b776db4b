package monetization

import (
	"context"
	"sync"
	"time"

	"github.com/scribblepad/monetize/pkg/entitlement"
	"github.com/scribblepad/monetize/pkg/tier"
)

// Change describes an entitlement state transition observed by the engine.
// UI consumers re-render badges and paywalls when one arrives.
type Change struct {
	State entitlement.State
	Tier  tier.Tier
	At    time.Time
}

// changeHub fans Change values out to subscribers. Slow consumers have
// messages dropped rather than blocking the engine's mutation path.
type changeHub struct {
	mu   sync.Mutex
	subs map[chan Change]struct{}
}

func newChangeHub() *changeHub {
	return &changeHub{subs: make(map[chan Change]struct{})}
}

// subscribe registers a buffered channel that is removed and closed when
// ctx is cancelled.
func (h *changeHub) subscribe(ctx context.Context) <-chan Change {
	ch := make(chan Change, 8)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
		close(ch)
	}()

	return ch
}

func (h *changeHub) publish(c Change) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- c:
		default:
			// drop for slow consumers
		}
	}
}
