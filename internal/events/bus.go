package events

import "sync"

// Type enumerates the event variants carried by the bus. These replace the
// ad hoc string-typed DOM events and window globals of a browser client with
// an explicit, typed channel.
type Type string

const (
	AuthChanged      Type = "auth_changed"
	LogoutBroadcast  Type = "logout_broadcast"
	RefreshStarted   Type = "refresh_started"
	RefreshComplete  Type = "refresh_complete"
	ConsentChanged   Type = "consent_changed"
	ConsentRevoked   Type = "consent_revoked"
	OrderStatusMoved Type = "order_status_moved"
)

// Event is a single broadcast message. Only the fields relevant to the
// variant are populated.
type Event struct {
	Type      Type
	SessionID string
	UserID    string
	Category  string // consent events
	Consent   string // "all", "selected"
	OrderID   string // order status events
	Status    string
}

// Bus is a small in-process pub/sub fan-out. Subscribers receive every
// published event; a slow subscriber drops events rather than blocking the
// publisher.
type Bus struct {
	mu   sync.RWMutex
	subs []chan Event
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a new subscriber and returns its receive channel.
func (b *Bus) Subscribe() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 16)
	b.subs = append(b.subs, ch)
	return ch
}

// Publish delivers the event to every subscriber without blocking.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			// subscriber buffer full, drop
		}
	}
}
