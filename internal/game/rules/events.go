package rules

import (
	"sync"
	"time"
)

// EventType indicates the category of a rules event.
type EventType string

const (
	// Lifecycle events
	EventGameStarted EventType = "GAME_STARTED"
	EventGameOver    EventType = "GAME_OVER"
	EventTurnStarted EventType = "TURN_STARTED"
	EventTurnEnded   EventType = "TURN_ENDED"

	// Zone events
	EventCardsDrawn     EventType = "CARDS_DRAWN"
	EventDeckReshuffled EventType = "DECK_RESHUFFLED"
	EventCardDiscarded  EventType = "CARD_DISCARDED"
	EventHandTrimmed    EventType = "HAND_TRIMMED"

	// Play events
	EventCardBanked     EventType = "CARD_BANKED"
	EventPropertyPlayed EventType = "PROPERTY_PLAYED"
	EventActionPlayed   EventType = "ACTION_PLAYED"
	EventWildFlipped    EventType = "WILD_FLIPPED"

	// Effect resolution events
	EventPaymentRequested  EventType = "PAYMENT_REQUESTED"
	EventPaymentResolved   EventType = "PAYMENT_RESOLVED"
	EventPaymentForgiven   EventType = "PAYMENT_FORGIVEN"
	EventActionCancelled   EventType = "ACTION_CANCELLED"
	EventPropertyStolen    EventType = "PROPERTY_STOLEN"
	EventSetStolen         EventType = "SET_STOLEN"
	EventPropertiesSwapped EventType = "PROPERTIES_SWAPPED"
	EventRentCharged       EventType = "RENT_CHARGED"
	EventBuildingDisplaced EventType = "BUILDING_DISPLACED"

	// Error events
	EventRuleViolation EventType = "RULE_VIOLATION"
)

// Event represents a state change that other subsystems may react to.
type Event struct {
	Type        EventType
	GameID      string
	PlayerID    string // Acting player
	TargetID    string // Target player, if any
	CardID      string // Card driving the event, if any
	Amount      int    // Numeric value (payment, rent, draw count)
	Timestamp   time.Time
	Metadata    map[string]string
	Description string // Human-readable entry for the match log
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

// TypedListener defines a callback that reacts to a specific event type.
type TypedListener struct {
	Handle    int
	EventType EventType
	Callback  func(Event)
}

// EventBus provides a synchronous publish/subscribe implementation with type
// filtering. The match log and repository layer subscribe here.
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	typedListeners map[EventType][]TypedListener
	nextHandle     int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]TypedListener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback func(Event)) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], TypedListener{
		Handle:    handle,
		EventType: eventType,
		Callback:  callback,
	})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
	for eventType, listeners := range bus.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].Handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to all registered listeners synchronously.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	for _, listener := range bus.listeners {
		listener(event)
	}
	if typedListeners, ok := bus.typedListeners[event.Type]; ok {
		for _, listener := range typedListeners {
			listener.Callback(event)
		}
	}
}

// NewEvent creates a new event with common fields populated.
func NewEvent(eventType EventType, gameID, playerID string) Event {
	return Event{
		Type:      eventType,
		GameID:    gameID,
		PlayerID:  playerID,
		Timestamp: time.Now(),
		Metadata:  make(map[string]string),
	}
}
