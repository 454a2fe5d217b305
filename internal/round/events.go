package round

import (
	"sync"
	"time"

	"github.com/meir-san/ultimateholdem/internal/market"
)

// EventType represents a round event type
type EventType string

const (
	EventTypeRoundStart   EventType = "round_start"
	EventTypePhaseChange  EventType = "phase_change"
	EventTypeOddsUpdate   EventType = "odds_update"
	EventTypeTrade        EventType = "trade"
	EventTypeTick         EventType = "tick"
	EventTypeRoundResolve EventType = "round_resolve"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// Event is published after every state change. Each event carries the
// snapshot taken when the change was applied.
type Event interface {
	EventType() EventType
	Timestamp() time.Time
	State() Snapshot
}

type baseEvent struct {
	snapshot  Snapshot
	timestamp time.Time
}

func (e baseEvent) Timestamp() time.Time { return e.timestamp }
func (e baseEvent) State() Snapshot      { return e.snapshot }

// RoundStartEvent is published when a fresh round is set up
type RoundStartEvent struct{ baseEvent }

func (e RoundStartEvent) EventType() EventType { return EventTypeRoundStart }

// PhaseChangeEvent is published when cards are dealt
type PhaseChangeEvent struct {
	baseEvent
	From, To Phase
}

func (e PhaseChangeEvent) EventType() EventType { return EventTypePhaseChange }

// OddsUpdateEvent is published when a computed distribution is applied
type OddsUpdateEvent struct {
	baseEvent
	Odds       market.Odds
	Rebalanced bool
}

func (e OddsUpdateEvent) EventType() EventType { return EventTypeOddsUpdate }

// TradeEvent is published for every bet or sale, human or crowd
type TradeEvent struct {
	baseEvent
	Item ActivityItem
}

func (e TradeEvent) EventType() EventType { return EventTypeTrade }

// TickEvent is published when the countdown moves
type TickEvent struct {
	baseEvent
	Timer int
}

func (e TickEvent) EventType() EventType { return EventTypeTick }

// RoundResolveEvent is published when a round settles
type RoundResolveEvent struct {
	baseEvent
	Result HistoryItem
	Payout float64
}

func (e RoundResolveEvent) EventType() EventType { return EventTypeRoundResolve }

// Subscriber receives round events. OnEvent runs on the goroutine that
// applied the change, after the Game lock is released.
type Subscriber interface {
	OnEvent(event Event)
}

// EventBus manages event publishing and subscription
type EventBus interface {
	Subscribe(subscriber Subscriber)
	Unsubscribe(subscriber Subscriber)
	Publish(event Event)
}

// SimpleEventBus is an in-memory event bus safe for concurrent use
type SimpleEventBus struct {
	mu          sync.Mutex
	subscribers []Subscriber
}

// NewEventBus creates a new event bus
func NewEventBus() *SimpleEventBus {
	return &SimpleEventBus{}
}

// Subscribe adds a subscriber to receive events
func (bus *SimpleEventBus) Subscribe(subscriber Subscriber) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.subscribers = append(bus.subscribers, subscriber)
}

// Unsubscribe removes a subscriber. Subscribers must be comparable values.
func (bus *SimpleEventBus) Unsubscribe(subscriber Subscriber) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	for i, sub := range bus.subscribers {
		if sub == subscriber {
			bus.subscribers = append(bus.subscribers[:i:i], bus.subscribers[i+1:]...)
			break
		}
	}
}

// Publish sends an event to all subscribers
func (bus *SimpleEventBus) Publish(event Event) {
	bus.mu.Lock()
	subs := bus.subscribers
	bus.mu.Unlock()
	for _, sub := range subs {
		sub.OnEvent(event)
	}
}
