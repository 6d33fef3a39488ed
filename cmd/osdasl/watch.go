package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/example/osdasl/internal/broadcast"
	"github.com/example/osdasl/internal/manager"
)

// watchCmd prints events published by annotate sessions on the session
// bus as JSON lines.
type watchCmd struct {
	*root
	fs      *flag.FlagSet
	channel string
	types   map[manager.EventType]bool
}

func (w *watchCmd) FlagSet() *flag.FlagSet {
	return w.fs
}

func (w *watchCmd) Program() string {
	return w.subcommand("watch")
}

func parseWatchCmd(args []string, r *root) (*watchCmd, error) {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	w := &watchCmd{root: r, fs: fs}
	fs.StringVar(&w.channel, "channel", r.config.Channel, "broadcast channel to follow")
	types := fs.String("types", "", "comma separated event types to print, e.g. added,removed")
	fs.Usage = usageFunc(w)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, &UsageError{of: w}
		}
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, &UsageError{of: w, msg: fmt.Sprintf("unexpected argument %q", fs.Arg(0))}
	}
	filter, err := parseEventTypes(*types)
	if err != nil {
		return nil, err
	}
	w.types = filter
	return w, nil
}

// parseEventTypes accepts full names or the part after "annotation:".
// An empty list selects every type.
func parseEventTypes(list string) (map[manager.EventType]bool, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	out := map[manager.EventType]bool{}
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		t := manager.EventType(item)
		if !strings.Contains(item, ":") {
			t = manager.EventType("annotation:" + item)
		}
		known := false
		for _, k := range manager.EventTypes {
			known = known || k == t
		}
		if !known {
			return nil, fmt.Errorf("unknown event type %q", item)
		}
		out[t] = true
	}
	return out, nil
}

func (w *watchCmd) Run() error {
	hub := broadcast.NewHub()
	ch := hub.Open(w.channel)
	defer ch.Close()
	b, err := dialBridgeFn(hub, w.channel)
	if err != nil {
		return err
	}
	defer b.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return w.print(ctx, ch.Messages(), w.stdout)
}

// print writes each matching message as one line until ctx ends or msgs
// closes.
func (w *watchCmd) print(ctx context.Context, msgs <-chan []byte, out io.Writer) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			ev, err := manager.DecodeEvent(msg)
			if err != nil {
				log.Printf("watch: %v", err)
				continue
			}
			if w.types != nil && !w.types[ev.Type] {
				continue
			}
			if _, err := fmt.Fprintf(out, "%s\n", msg); err != nil {
				return err
			}
		}
	}
}
