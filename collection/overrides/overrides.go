// Package overrides loads the hand written class corrections and writes the
// ones the department generators produce.
package overrides

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"
	classentry "github.com/sipb/hydrant/data/class-entry"
	log "github.com/sirupsen/logrus"
)

// Generator scrapes a department page into overrides.
type Generator interface {
	GetName() string
	Generate(logger *log.Entry, ctx context.Context) (classentry.Overrides, error)
}

// Load merges every toml file under dir in lexical path order, a later file
// wins field by field. A missing dir has no overrides.
func Load(logger *log.Entry, dir string) (classentry.Overrides, error) {
	merged := classentry.Overrides{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".toml") {
			return nil
		}
		var file map[string]map[string]any
		if _, err := toml.DecodeFile(path, &file); err != nil {
			return fmt.Errorf("overrides %s: %w", path, err)
		}
		logger.Debugf("Loaded %d overrides from %s", len(file), path)
		for number, override := range file {
			// "number" repeats the table key in some files
			delete(override, "number")
			if err := Merge(merged, number, override); err != nil {
				return fmt.Errorf("overrides %s: %w", path, err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warnf("No overrides directory at %s", dir)
			return merged, nil
		}
		return nil, err
	}
	return merged, nil
}

// Merge lays override over whatever overrides already has for number.
func Merge(o classentry.Overrides, number string, override map[string]any) error {
	current, ok := o[number]
	if !ok {
		current = classentry.Override{}
		o[number] = current
	}
	dst := map[string]any(current)
	return mergo.Merge(&dst, override, mergo.WithOverride)
}

// plain converts overrides to the maps and slices the json encoder would
// write, so encoders without custom marshalers see the wire format.
func plain(o classentry.Overrides) (map[string]any, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	return integral(generic).(map[string]any), nil
}

// integral turns whole floats back into integers, slot codes are never
// fractional
func integral(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for key, value := range v {
			v[key] = integral(value)
		}
		return v
	case []any:
		for i, value := range v {
			v[i] = integral(value)
		}
		return v
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
			return int64(v)
		}
		return v
	}
	return v
}

func WriteTOML(w io.Writer, o classentry.Overrides) error {
	generic, err := plain(o)
	if err != nil {
		return err
	}
	return toml.NewEncoder(w).Encode(generic)
}

func WriteJSON(w io.Writer, o classentry.Overrides) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(o)
}
