package broadcast

import (
	"fmt"
	"log"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"
)

const (
	// DBusInterface is the interface the bridge emits signals on.
	DBusInterface = "org.example.Osdasl"
	// DBusMember is the signal member name.
	DBusMember = "Event"
	// DBusPath is the object path signals are emitted from.
	DBusPath = dbus.ObjectPath("/org/example/Osdasl")
)

// signalConn is the part of *dbus.Conn the bridge uses.
type signalConn interface {
	Emit(path dbus.ObjectPath, name string, values ...interface{}) error
	AddMatchSignal(options ...dbus.MatchOption) error
	Signal(ch chan<- *dbus.Signal)
	RemoveSignal(ch chan<- *dbus.Signal)
	Close() error
}

// Bridge mirrors one named channel onto the D-Bus session bus so
// observers in other processes see the same messages. Each bridge tags
// what it emits with a random origin and ignores signals carrying it.
type Bridge struct {
	conn   signalConn
	local  *Channel
	origin string
	sigc   chan *dbus.Signal
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// DialBridge connects to the session bus and bridges channel name of hub.
func DialBridge(hub *Hub, name string) (*Bridge, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("dbus connect: %w", err)
	}
	b, err := newBridge(conn, hub, name)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return b, nil
}

func newBridge(conn signalConn, hub *Hub, name string) (*Bridge, error) {
	err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(DBusPath),
		dbus.WithMatchInterface(DBusInterface),
		dbus.WithMatchMember(DBusMember),
	)
	if err != nil {
		return nil, fmt.Errorf("dbus add match: %w", err)
	}
	b := &Bridge{
		conn:   conn,
		local:  hub.Open(name),
		origin: uuid.NewString(),
		sigc:   make(chan *dbus.Signal, 16),
		done:   make(chan struct{}),
	}
	conn.Signal(b.sigc)
	b.wg.Add(2)
	go b.outbound()
	go b.inbound()
	return b, nil
}

// Origin returns the identifier stamped on emitted signals.
func (b *Bridge) Origin() string { return b.origin }

func (b *Bridge) outbound() {
	defer b.wg.Done()
	for msg := range b.local.Messages() {
		err := b.conn.Emit(DBusPath, DBusInterface+"."+DBusMember, b.local.Name(), b.origin, string(msg))
		if err != nil {
			log.Printf("broadcast: dbus emit: %v", err)
		}
	}
}

func (b *Bridge) inbound() {
	defer b.wg.Done()
	for {
		select {
		case sig, ok := <-b.sigc:
			if !ok {
				return
			}
			name, origin, payload, ok := decodeSignal(sig)
			if !ok || name != b.local.Name() || origin == b.origin {
				continue
			}
			b.local.Post([]byte(payload))
		case <-b.done:
			return
		}
	}
}

func decodeSignal(sig *dbus.Signal) (name, origin, payload string, ok bool) {
	if sig == nil || sig.Path != DBusPath || sig.Name != DBusInterface+"."+DBusMember || len(sig.Body) != 3 {
		return "", "", "", false
	}
	if name, ok = sig.Body[0].(string); !ok {
		return "", "", "", false
	}
	if origin, ok = sig.Body[1].(string); !ok {
		return "", "", "", false
	}
	payload, ok = sig.Body[2].(string)
	return name, origin, payload, ok
}

// Close stops forwarding and closes the bus connection. Events already
// queued for the bus are emitted first.
func (b *Bridge) Close() error {
	var err error
	b.once.Do(func() {
		close(b.done)
		b.local.Drain()
		b.conn.RemoveSignal(b.sigc)
		b.wg.Wait()
		err = b.conn.Close()
	})
	return err
}
