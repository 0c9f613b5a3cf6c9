package voxmotion

import "github.com/akmonengine/voxmotion/actor"

const (
	CONTACT_ADDED EventType = iota
	CONTACT_REMOVED
	BOUNCE
	ENTITY_STICK
	ENTITY_BOUNCE
)

type EventType uint8

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// Terrain events
type ContactAddedEvent struct {
	Entity    *Entity
	ContactID string
	Plane     actor.Plane
	Tick      int64
}

func (e ContactAddedEvent) Type() EventType { return CONTACT_ADDED }

// ContactRemovedEvent is sent for terrain and entity contacts alike
type ContactRemovedEvent struct {
	Entity    *Entity
	ContactID string
	Tick      int64
}

func (e ContactRemovedEvent) Type() EventType { return CONTACT_REMOVED }

type BounceEvent struct {
	Entity *Entity
	Count  int
	Tick   int64
}

func (e BounceEvent) Type() EventType { return BOUNCE }

// Entity pair events
type EntityStickEvent struct {
	EntityA *Entity
	EntityB *Entity
	Tick    int64
}

func (e EntityStickEvent) Type() EventType { return ENTITY_STICK }

type EntityBounceEvent struct {
	EntityA *Entity
	EntityB *Entity
	Tick    int64
}

func (e EntityBounceEvent) Type() EventType { return ENTITY_BOUNCE }

// EventListener - callback for events
type EventListener func(event Event)

// Events manager. Events raised during a step are buffered and delivered once
// the step is complete, in the order they were raised.
type Events struct {
	// Listeners by event type
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event
}

func NewEvents() Events {
	return Events{
		listeners: make(map[EventType][]EventListener),
		buffer:    make([]Event, 0, 256),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

func (e *Events) emit(event Event) {
	e.buffer = append(e.buffer, event)
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	e.deliver(e.take())
}

// take empties the buffer and returns its events
func (e *Events) take() []Event {
	if len(e.buffer) == 0 {
		return nil
	}
	events := e.buffer
	e.buffer = make([]Event, 0, cap(events))
	return events
}

func (e *Events) deliver(events []Event) {
	for _, event := range events {
		if listeners, ok := e.listeners[event.Type()]; ok {
			for _, listener := range listeners {
				listener(event)
			}
		}
	}
}
