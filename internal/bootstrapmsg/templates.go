// Package bootstrapmsg loads the canned first-message templates used when
// a chat is started from a bare phone number and the caller supplies no
// text of its own.
package bootstrapmsg

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultGreeting is used when no templates file is configured or the
// configured template name is missing from it.
const DefaultGreeting = "Good afternoon! How can we help you?"

// Templates maps template names to first-message texts.
type Templates struct {
	byName      map[string]string
	defaultName string
	logger      *slog.Logger
}

// Load reads a YAML file of name -> text pairs. A missing file is not an
// error: the built-in greeting covers that case.
func Load(path, defaultName string, logger *slog.Logger) (*Templates, error) {
	t := &Templates{
		byName:      make(map[string]string),
		defaultName: defaultName,
		logger:      logger,
	}

	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("templates file does not exist, using built-in greeting", "path", path)
			return t, nil
		}
		return nil, fmt.Errorf("read templates file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &t.byName); err != nil {
		return nil, fmt.Errorf("parse templates file %s: %w", path, err)
	}

	logger.Info("bootstrap templates loaded", "path", path, "count", len(t.byName))
	return t, nil
}

// Get returns the named template, falling back to the built-in greeting.
func (t *Templates) Get(name string) string {
	if text, ok := t.byName[name]; ok && text != "" {
		return text
	}
	t.logger.Debug("template not found, using built-in greeting", "name", name)
	return DefaultGreeting
}

// Default returns the configured default template's text.
func (t *Templates) Default() string {
	return t.Get(t.defaultName)
}
