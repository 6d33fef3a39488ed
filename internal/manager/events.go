package manager

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/osdasl/internal/annotation"
)

// EventType names a public annotation event.
type EventType string

const (
	EventAdded      EventType = "annotation:added"
	EventUpdated    EventType = "annotation:updated"
	EventRemoved    EventType = "annotation:removed"
	EventSelected   EventType = "annotation:selected"
	EventDeselected EventType = "annotation:deselected"
)

// EventTypes lists every public event type in a stable order.
var EventTypes = []EventType{EventAdded, EventUpdated, EventRemoved, EventSelected, EventDeselected}

// ErrUnknownEvent is returned by DecodeEvent for unrecognized types.
var ErrUnknownEvent = errors.New("unknown event type")

// Event is what the manager publishes on its broadcast channel.
//
// Data is annotation.Init for added, updated and removed (a removal by
// keyboard only fills ID), IDRef for selected and nil for deselected.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// IDRef is the payload of events that only name an annotation.
type IDRef struct {
	ID string `json:"id"`
}

// ID returns the annotation id carried by the event, if any.
func (e Event) ID() string {
	switch d := e.Data.(type) {
	case annotation.Init:
		return d.ID
	case *annotation.Init:
		return d.ID
	case IDRef:
		return d.ID
	}
	return ""
}

// Init returns the annotation state carried by added, updated and
// removed events.
func (e Event) Init() (annotation.Init, bool) {
	switch d := e.Data.(type) {
	case annotation.Init:
		return d, true
	case *annotation.Init:
		return *d, true
	}
	return annotation.Init{}, false
}

// DecodeEvent parses a published message back into an Event with a typed
// Data field.
func DecodeEvent(b []byte) (Event, error) {
	var raw struct {
		Type EventType       `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	ev := Event{Type: raw.Type}
	switch raw.Type {
	case EventAdded, EventUpdated, EventRemoved:
		var init annotation.Init
		if err := json.Unmarshal(raw.Data, &init); err != nil {
			return Event{}, fmt.Errorf("decode %s: %w", raw.Type, err)
		}
		ev.Data = init
	case EventSelected:
		var ref IDRef
		if err := json.Unmarshal(raw.Data, &ref); err != nil {
			return Event{}, fmt.Errorf("decode %s: %w", raw.Type, err)
		}
		ev.Data = ref
	case EventDeselected:
	default:
		return Event{}, fmt.Errorf("decode event %q: %w", raw.Type, ErrUnknownEvent)
	}
	return ev, nil
}
