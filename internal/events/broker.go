package events

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/myron98980/halloween-party-app/internal/domain"
)

// Broker fans record-store notifications out to in-process subscribers.
// Changes carry before/after snapshots per mutation; snapshots carry the
// complete current ticket set after a committed write. Delivery is
// best-effort: a subscriber that cannot keep up loses messages rather
// than blocking the write path.
type Broker struct {
	logger *logrus.Logger

	mu        sync.Mutex
	closed    bool
	changes   []chan domain.Change
	snapshots []chan []domain.Ticket
}

const subscriberBuffer = 64

func NewBroker(logger *logrus.Logger) *Broker {
	return &Broker{logger: logger}
}

// SubscribeChanges registers a change subscriber. The returned channel is
// closed when the broker shuts down.
func (b *Broker) SubscribeChanges() <-chan domain.Change {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan domain.Change, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch
	}
	b.changes = append(b.changes, ch)
	return ch
}

// SubscribeSnapshots registers a full-result-set subscriber.
func (b *Broker) SubscribeSnapshots() <-chan []domain.Ticket {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan []domain.Ticket, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch
	}
	b.snapshots = append(b.snapshots, ch)
	return ch
}

func (b *Broker) PublishChange(change domain.Change) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	for _, ch := range b.changes {
		select {
		case ch <- change:
		default:
			b.logger.WithField("kind", change.Kind).
				Warn("change subscriber buffer full, dropping notification")
		}
	}
}

func (b *Broker) PublishSnapshot(tickets []domain.Ticket) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	for _, ch := range b.snapshots {
		select {
		case ch <- tickets:
		default:
			b.logger.Warn("snapshot subscriber buffer full, dropping snapshot")
		}
	}
}

// Close shuts the broker down and closes all subscriber channels.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.changes {
		close(ch)
	}
	for _, ch := range b.snapshots {
		close(ch)
	}
	b.changes = nil
	b.snapshots = nil
}
