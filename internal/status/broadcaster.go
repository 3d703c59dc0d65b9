package status

import "sync"

const (
	subscriberBuffer = 100
	backlogSize      = 200
)

// Broadcaster fans log lines out to every connected log stream. New
// subscribers first receive the recent backlog. A subscriber whose buffer is
// full misses lines instead of blocking the publisher.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[chan string]struct{}
	backlog []string
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{clients: make(map[chan string]struct{})}
}

// Subscribe registers a new stream. The returned func unregisters it.
func (b *Broadcaster) Subscribe() (<-chan string, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan string, subscriberBuffer+backlogSize)
	for _, line := range b.backlog {
		ch <- line
	}
	b.clients[ch] = struct{}{}

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.clients, ch)
	}
}

// Publish sends a line to all subscribers without blocking.
func (b *Broadcaster) Publish(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.backlog = append(b.backlog, line)
	if len(b.backlog) > backlogSize {
		b.backlog = b.backlog[len(b.backlog)-backlogSize:]
	}

	for ch := range b.clients {
		select {
		case ch <- line:
		default:
		}
	}
}

// Subscribers returns the number of connected streams.
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.clients)
}
