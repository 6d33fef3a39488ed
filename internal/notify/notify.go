// Package notify turns published annotation events into desktop
// notifications.
package notify

import (
	"fmt"
	"log"
	"strings"

	"github.com/example/osdasl/internal/config"
	"github.com/example/osdasl/internal/manager"
	"github.com/example/osdasl/internal/platform"
)

// EventPreference describes formatting for a notification event. The
// template may reference {id} and {location}.
type EventPreference struct {
	Template string
}

// Preferences describes notification behaviour loaded from configuration.
type Preferences struct {
	Title  string
	Events map[manager.EventType]EventPreference
}

// DefaultPreferences returns the default notification settings.
func DefaultPreferences() Preferences {
	return Preferences{
		Title: "osdasl",
		Events: map[manager.EventType]EventPreference{
			manager.EventAdded:   {Template: "Added {id} at {location}"},
			manager.EventUpdated: {Template: "Updated {id} to {location}"},
			manager.EventRemoved: {Template: "Removed {id}"},
		},
	}
}

// Sender delivers one notification.
type Sender func(title, body string, opts platform.Options) error

// Notifier sends OS-level notifications based on the configured preferences.
type Notifier struct {
	prefs   Preferences
	enabled map[manager.EventType]bool
	send    Sender
}

// New creates a new Notifier using the provided preferences. A nil send
// uses platform.Notify.
func New(prefs Preferences, send Sender) *Notifier {
	cloned := Preferences{Title: prefs.Title, Events: make(map[manager.EventType]EventPreference, len(prefs.Events))}
	for k, v := range prefs.Events {
		cloned.Events[k] = v
	}
	if send == nil {
		send = platform.Notify
	}
	return &Notifier{prefs: cloned, enabled: make(map[manager.EventType]bool), send: send}
}

// FromConfig builds a Notifier with the events enabled in cfg.
func FromConfig(cfg config.Notify, send Sender) *Notifier {
	prefs := DefaultPreferences()
	if strings.TrimSpace(cfg.Title) != "" {
		prefs.Title = cfg.Title
	}
	n := New(prefs, send)
	n.Enable(manager.EventAdded, cfg.Added)
	n.Enable(manager.EventRemoved, cfg.Removed)
	n.Enable(manager.EventUpdated, cfg.Updated)
	return n
}

// Enable toggles the notifier for the provided event.
func (n *Notifier) Enable(event manager.EventType, enabled bool) {
	if n == nil {
		return
	}
	n.enabled[event] = enabled
}

// Any reports whether at least one event is enabled.
func (n *Notifier) Any() bool {
	if n == nil {
		return false
	}
	for _, on := range n.enabled {
		if on {
			return true
		}
	}
	return false
}

// Handle sends the notification for ev if its type is enabled.
func (n *Notifier) Handle(ev manager.Event) {
	if n == nil || !n.enabled[ev.Type] {
		return
	}
	template := strings.TrimSpace(n.prefs.Events[ev.Type].Template)
	if template == "" {
		return
	}
	where := ""
	if init, ok := ev.Init(); ok && init.Location != [4]float64{} {
		l := init.Location
		where = fmt.Sprintf("(%.3f, %.3f) %.3f×%.3f", l[0], l[1], l[2], l[3])
	}
	body := strings.TrimSpace(strings.NewReplacer("{id}", ev.ID(), "{location}", where).Replace(template))
	if body == "" {
		return
	}
	if err := n.send(n.prefs.Title, body, platform.Options{}); err != nil {
		log.Printf("notification %s: %v", ev.Type, err)
	}
}

// Run handles every message read from msgs until it is closed. Messages
// that are not annotation events are logged and skipped.
func (n *Notifier) Run(msgs <-chan []byte) {
	for msg := range msgs {
		ev, err := manager.DecodeEvent(msg)
		if err != nil {
			log.Printf("notify: %v", err)
			continue
		}
		n.Handle(ev)
	}
}
