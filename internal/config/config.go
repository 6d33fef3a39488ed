package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/example/osdasl/internal/theme"
)

// Activate holds the manager activation switches.
type Activate struct {
	ClickToAdd        bool
	KeyboardShortcuts bool
}

// Annotation holds the interactions wired onto new annotations.
type Annotation struct {
	Selectable bool
	Removable  bool
	Draggable  bool
	Resizable  bool
}

// Notify holds desktop notification settings.
type Notify struct {
	Added   bool
	Removed bool
	Updated bool
	Title   string
}

// Broadcast holds cross-process event settings.
type Broadcast struct {
	DBus bool
}

// Config holds the application configuration.
type Config struct {
	Channel     string
	Theme       string
	Annotations string // File the annotation set is restored from and mirrored to
	Activate    Activate
	Annotation  Annotation
	Notify      Notify
	Broadcast   Broadcast
	Themes      map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		Channel: "osdasl",
		Activate: Activate{
			ClickToAdd:        true,
			KeyboardShortcuts: true,
		},
		Annotation: Annotation{
			Selectable: true,
			Removable:  true,
			Draggable:  true,
			Resizable:  true,
		},
		Notify: Notify{Title: "osdasl"},
		Themes: make(map[string]*theme.Theme),
	}
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "channel = %s\n", c.Channel)
	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.Annotations != "" {
		fmt.Fprintf(&sb, "annotations = %s\n", c.Annotations)
	}
	sb.WriteString("\n")

	sb.WriteString("[activate]\n")
	fmt.Fprintf(&sb, "click_to_add = %v\n", c.Activate.ClickToAdd)
	fmt.Fprintf(&sb, "keyboard_shortcuts = %v\n", c.Activate.KeyboardShortcuts)
	sb.WriteString("\n")

	sb.WriteString("[annotation]\n")
	fmt.Fprintf(&sb, "selectable = %v\n", c.Annotation.Selectable)
	fmt.Fprintf(&sb, "removable = %v\n", c.Annotation.Removable)
	fmt.Fprintf(&sb, "draggable = %v\n", c.Annotation.Draggable)
	fmt.Fprintf(&sb, "resizable = %v\n", c.Annotation.Resizable)
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "added = %v\n", c.Notify.Added)
	fmt.Fprintf(&sb, "removed = %v\n", c.Notify.Removed)
	fmt.Fprintf(&sb, "updated = %v\n", c.Notify.Updated)
	fmt.Fprintf(&sb, "title = %q\n", c.Notify.Title)
	sb.WriteString("\n")

	sb.WriteString("[broadcast]\n")
	fmt.Fprintf(&sb, "dbus = %v\n", c.Broadcast.DBus)
	sb.WriteString("\n")

	// Sort keys for deterministic output
	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		_ = theme.Format(&sb, c.Themes[name])
		sb.WriteString("\n")
	}

	return sb.String()
}
