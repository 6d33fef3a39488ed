package notify

import (
	"errors"
	"testing"

	"github.com/example/osdasl/internal/annotation"
	"github.com/example/osdasl/internal/config"
	"github.com/example/osdasl/internal/manager"
	"github.com/example/osdasl/internal/platform"
)

type sent struct{ title, body string }

func recorder(out *[]sent) Sender {
	return func(title, body string, _ platform.Options) error {
		*out = append(*out, sent{title, body})
		return nil
	}
}

func TestHandleFormatsEnabledEvents(t *testing.T) {
	var got []sent
	n := FromConfig(config.Notify{Added: true, Removed: true, Title: "Review"}, recorder(&got))

	n.Handle(manager.Event{Type: manager.EventAdded, Data: annotation.Init{ID: "a", Location: [4]float64{0.48, 0.48, 0.04, 0.04}}})
	n.Handle(manager.Event{Type: manager.EventUpdated, Data: annotation.Init{ID: "a"}})
	n.Handle(manager.Event{Type: manager.EventRemoved, Data: manager.IDRef{ID: "a"}})
	n.Handle(manager.Event{Type: manager.EventDeselected})

	if len(got) != 2 {
		t.Fatalf("sent %d notifications: %+v", len(got), got)
	}
	if got[0].title != "Review" || got[0].body != "Added a at (0.480, 0.480) 0.040×0.040" {
		t.Errorf("added = %+v", got[0])
	}
	if got[1].body != "Removed a" {
		t.Errorf("removed = %+v", got[1])
	}
}

func TestRunSkipsGarbage(t *testing.T) {
	var got []sent
	n := New(DefaultPreferences(), recorder(&got))
	n.Enable(manager.EventRemoved, true)
	if !n.Any() {
		t.Fatalf("Any = false after Enable")
	}
	msgs := make(chan []byte, 3)
	msgs <- []byte(`garbage`)
	msgs <- []byte(`{"type":"annotation:removed","data":{"id":"x"}}`)
	close(msgs)
	n.Run(msgs)
	if len(got) != 1 || got[0].body != "Removed x" {
		t.Fatalf("got %+v", got)
	}
}

func TestSendErrorIsLogged(t *testing.T) {
	calls := 0
	n := New(DefaultPreferences(), func(string, string, platform.Options) error {
		calls++
		return errors.New("no daemon")
	})
	n.Enable(manager.EventUpdated, true)
	n.Handle(manager.Event{Type: manager.EventUpdated, Data: annotation.Init{ID: "u"}})
	if calls != 1 {
		t.Fatalf("calls = %d", calls)
	}
}
