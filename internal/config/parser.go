package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/osdasl/internal/theme"
)

// Parse reads configuration from an io.Reader.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	var currentSection string
	var currentTheme *theme.Theme
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = strings.ToLower(strings.TrimSpace(line[1 : len(line)-1]))
			currentTheme = nil

			if name, ok := strings.CutPrefix(currentSection, "theme."); ok {
				// Start with defaults so missing keys are fine
				currentTheme = theme.Default()
				currentTheme.Name = name
				cfg.Themes[name] = currentTheme
			}
			continue
		}

		// Key = Value or Key: Value
		sep := strings.IndexAny(line, "=:")
		if sep < 0 {
			continue
		}
		key := strings.TrimSpace(line[:sep])
		value := strings.TrimSpace(line[sep+1:])
		if len(value) >= 2 && strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") {
			if unq, err := strconv.Unquote(value); err == nil {
				value = unq
			} else {
				value = value[1 : len(value)-1]
			}
		}

		var err error
		switch {
		case currentTheme != nil:
			err = theme.Set(currentTheme, key, value)
		case currentSection == "":
			err = setRootField(cfg, key, value)
		case currentSection == "activate":
			err = setBools(key, value, map[string]*bool{
				"click_to_add":       &cfg.Activate.ClickToAdd,
				"keyboard_shortcuts": &cfg.Activate.KeyboardShortcuts,
			})
		case currentSection == "annotation":
			err = setBools(key, value, map[string]*bool{
				"selectable": &cfg.Annotation.Selectable,
				"removable":  &cfg.Annotation.Removable,
				"draggable":  &cfg.Annotation.Draggable,
				"resizable":  &cfg.Annotation.Resizable,
			})
		case currentSection == "notify":
			if strings.EqualFold(key, "title") {
				cfg.Notify.Title = value
				break
			}
			err = setBools(key, value, map[string]*bool{
				"added":   &cfg.Notify.Added,
				"removed": &cfg.Notify.Removed,
				"updated": &cfg.Notify.Updated,
			})
		case currentSection == "broadcast":
			err = setBools(key, value, map[string]*bool{
				"dbus": &cfg.Broadcast.DBus,
			})
		}
		if err != nil {
			section := currentSection
			if section == "" {
				section = "root"
			}
			return nil, fmt.Errorf("line %d: error in section [%s]: %w", lineNo, section, err)
		}
	}

	return cfg, scanner.Err()
}

func setRootField(cfg *Config, key, value string) error {
	switch strings.ToLower(key) {
	case "channel":
		cfg.Channel = value
	case "theme":
		cfg.Theme = value
	case "annotations":
		cfg.Annotations = value
	}
	return nil
}

func setBools(key, value string, fields map[string]*bool) error {
	dst, ok := fields[strings.ToLower(key)]
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	*dst = b
	return nil
}
