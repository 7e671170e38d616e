// Package state persists partial store snapshots across process
// restarts, one JSON file per store. It is the console's stand-in for
// browser local storage: only the fields a store chooses to snapshot
// are written, and a missing or corrupt file silently falls back to
// defaults. Persisted state must never crash startup.
package state

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Dir stores snapshots as <dir>/<name>.json with atomic replace.
type Dir struct {
	path   string
	logger *zap.Logger
}

// NewDir creates the snapshot directory if needed.
func NewDir(path string, logger *zap.Logger) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, err
	}
	return &Dir{path: path, logger: logger}, nil
}

// Save writes v as JSON under name. The write goes to a temp file first
// so a crash mid-write can't corrupt the previous snapshot.
func (d *Dir) Save(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	target := d.file(name)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return err
	}

	d.logger.Debug("state: snapshot saved", zap.String("name", name))
	return nil
}

// Load reads the snapshot for name into out. Returns false when the
// snapshot is absent or unreadable; out is untouched in that case.
func (d *Dir) Load(name string, out any) bool {
	data, err := os.ReadFile(d.file(name))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			d.logger.Warn("state: snapshot unreadable, using defaults",
				zap.String("name", name),
				zap.Error(err),
			)
		}
		return false
	}

	if err := json.Unmarshal(data, out); err != nil {
		d.logger.Warn("state: snapshot corrupt, using defaults",
			zap.String("name", name),
			zap.Error(err),
		)
		return false
	}
	return true
}

// Clear removes the snapshot for name. Missing files are not an error.
func (d *Dir) Clear(name string) error {
	err := os.Remove(d.file(name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (d *Dir) file(name string) string {
	return filepath.Join(d.path, name+".json")
}
