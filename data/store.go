package data

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	classentry "github.com/sipb/hydrant/data/class-entry"
	"github.com/titanous/json5"
)

const LatestTermFile = "latestTerm.json"

// Store reads and writes json snapshots in a single directory. Writes are
// atomic so a reader never sees a half written snapshot.
type Store struct {
	Dir string
}

func NewStore(dir string) Store {
	return Store{Dir: dir}
}

func (s Store) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

func (s Store) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

func (s Store) Write(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	if err := atomic.WriteFile(s.Path(name), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

func (s Store) Read(name string, v any) error {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", name, err)
	}
	return nil
}

// KeepOrEmpty leaves an existing snapshot alone and otherwise writes {} so
// later steps always find a file. Reports whether a previous snapshot was kept.
func (s Store) KeepOrEmpty(name string) (bool, error) {
	if s.Exists(name) {
		return true, nil
	}
	return false, s.Write(name, struct{}{})
}

// ReadLatestTerm reads latestTerm.json from dir. The file is maintained by
// hand so comments and trailing commas are accepted.
func ReadLatestTerm(dir string) (classentry.LatestTerm, error) {
	var latest classentry.LatestTerm
	data, err := os.ReadFile(filepath.Join(dir, LatestTermFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return latest, fmt.Errorf("no %s in %s: %w", LatestTermFile, dir, err)
		}
		return latest, err
	}
	if err := json5.Unmarshal(data, &latest); err != nil {
		return latest, fmt.Errorf("decoding %s: %w", LatestTermFile, err)
	}
	return latest, nil
}
