package devtools

import (
	"sync"

	"academy/internal/progress"
	"academy/internal/telemetry"
)

const clientBuffer = 8

// hub fans progress snapshots out to connected event-stream clients.
type hub struct {
	logger *telemetry.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	outbound chan progress.Summary
	done     chan struct{}
	once     sync.Once
}

func newHub(logger *telemetry.Logger) *hub {
	return &hub{logger: logger, clients: map[*client]struct{}{}}
}

func (h *hub) add() *client {
	c := &client{
		outbound: make(chan progress.Summary, clientBuffer),
		done:     make(chan struct{}),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("dev_api.events.subscribed", map[string]any{"clients": n})
	return c
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	c.close()
	h.logger.Debug("dev_api.events.unsubscribed", map[string]any{"clients": n})
}

// broadcast never blocks; a client whose buffer is full misses the update.
func (h *hub) broadcast(sum progress.Summary) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.outbound <- sum:
		default:
			h.logger.Warn("dev_api.events.dropped", map[string]any{"reason": "outbound buffer full"})
		}
	}
}

// closeAll ends every open stream.
func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
}

func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}
