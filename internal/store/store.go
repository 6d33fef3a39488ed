// Package store reads annotation sets from JSON files and keeps a file in
// step with published annotation events.
//
// Two layouts are accepted on load: an array of {"id","location"} objects,
// or an object keyed by annotation id. Writes always use the keyed layout.
package store

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/example/osdasl/internal/annotation"
	"github.com/example/osdasl/internal/manager"
)

var errInvalidJSON = errors.New("invalid JSON")

// Parse decodes an annotation set. Null entries are skipped.
func Parse(data []byte) ([]*annotation.Init, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, errInvalidJSON
	}
	doc := gjson.ParseBytes(data)
	var out []*annotation.Init
	var err error
	switch {
	case doc.IsArray():
		doc.ForEach(func(_, v gjson.Result) bool {
			var init *annotation.Init
			init, err = parseInit("", v)
			if init != nil {
				out = append(out, init)
			}
			return err == nil
		})
	case doc.IsObject():
		doc.ForEach(func(k, v gjson.Result) bool {
			var init *annotation.Init
			init, err = parseInit(k.String(), v)
			if init != nil {
				out = append(out, init)
			}
			return err == nil
		})
	default:
		return nil, fmt.Errorf("annotation set must be an array or object, got %s", doc.Type)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func parseInit(key string, v gjson.Result) (*annotation.Init, error) {
	if v.Type == gjson.Null {
		return nil, nil
	}
	if !v.IsObject() {
		return nil, fmt.Errorf("annotation %q: expected object", key)
	}
	id := v.Get("id").String()
	if id == "" {
		id = key
	}
	if id == "" {
		return nil, errors.New("annotation without id")
	}
	if err := annotation.ValidID(id); err != nil {
		return nil, err
	}
	loc := v.Get("location").Array()
	if len(loc) != 4 {
		return nil, fmt.Errorf("annotation %q: location needs 4 numbers, got %d", id, len(loc))
	}
	init := &annotation.Init{ID: id}
	for i, n := range loc {
		if n.Type != gjson.Number {
			return nil, fmt.Errorf("annotation %q: location[%d] is not a number", id, i)
		}
		init.Location[i] = n.Float()
	}
	return init, nil
}

// Load reads the annotation set at path. A missing file is an empty set.
func Load(path string) ([]*annotation.Init, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	inits, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return inits, nil
}

// Mirror applies annotation events to a JSON file.
type Mirror struct {
	path string
	mu   sync.Mutex
}

// NewMirror returns a mirror writing to path. The file is created on the
// first change.
func NewMirror(path string) *Mirror {
	return &Mirror{path: path}
}

// Path returns the mirrored file.
func (m *Mirror) Path() string { return m.path }

// Apply writes the effect of ev. Selection events leave the file alone.
func (m *Mirror) Apply(ev manager.Event) error {
	switch ev.Type {
	case manager.EventAdded, manager.EventUpdated, manager.EventRemoved:
	default:
		return nil
	}
	id := ev.ID()
	if id == "" {
		return fmt.Errorf("%s without id", ev.Type)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, err := m.read()
	if err != nil {
		return err
	}
	key := escapeKey(id)
	if ev.Type == manager.EventRemoved {
		doc, err = sjson.DeleteBytes(doc, key)
	} else {
		init, _ := ev.Init()
		doc, err = sjson.SetBytes(doc, key, init)
	}
	if err != nil {
		return fmt.Errorf("update %s: %w", m.path, err)
	}
	return m.write(doc)
}

// Run applies every event read from msgs until it is closed.
func (m *Mirror) Run(msgs <-chan []byte) {
	for msg := range msgs {
		ev, err := manager.DecodeEvent(msg)
		if err != nil {
			log.Printf("store: %v", err)
			continue
		}
		if err := m.Apply(ev); err != nil {
			log.Printf("store: %v", err)
		}
	}
}

// read returns the current file in keyed layout.
func (m *Mirror) read() ([]byte, error) {
	data, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(strings.TrimSpace(string(data))) == 0) {
		return []byte("{}"), nil
	}
	if err != nil {
		return nil, err
	}
	if gjson.ValidBytes(data) && gjson.ParseBytes(data).IsObject() {
		return data, nil
	}
	inits, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.path, err)
	}
	doc := []byte("{}")
	for _, init := range inits {
		if doc, err = sjson.SetBytes(doc, escapeKey(init.ID), init); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func (m *Mirror) write(doc []byte) error {
	if dir := filepath.Dir(m.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, doc, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, m.path)
}

var keyEscaper = strings.NewReplacer(
	`\`, `\\`,
	".", `\.`,
	"*", `\*`,
	"?", `\?`,
	"|", `\|`,
	"#", `\#`,
	"@", `\@`,
	":", `\:`,
)

// escapeKey turns an id into a literal gjson/sjson path component.
func escapeKey(id string) string {
	return keyEscaper.Replace(id)
}
