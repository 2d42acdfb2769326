package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/AvaWorks/TaskAssist/internal/models"
)

// Outbox materializes one JSON file per executed action in a directory,
// alongside the all-actions log kept by the Store. Writes are serialized
// per output path so concurrent sessions cannot interleave within a file.
type Outbox struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewOutbox creates the outbox, ensuring the directory exists.
func NewOutbox(dir string) (*Outbox, error) {
	if dir == "" {
		return nil, fmt.Errorf("outbox directory not set")
	}
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create outbox directory: %w", err)
	}
	slog.Debug("NewOutbox: outbox directory ready", "dir", dir)
	return &Outbox{dir: dir, locks: make(map[string]*sync.Mutex)}, nil
}

// WriteAction writes the action record to its own file, named by type and
// timestamp like meeting_20250314_150000_<id>.json.
func (o *Outbox) WriteAction(rec models.ActionRecord) error {
	name := fmt.Sprintf("%s_%s_%s.json", rec.Type, rec.CreatedAt.Format("20060102_150405"), rec.ID)
	path := filepath.Join(o.dir, name)

	lock := o.pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	data, err := json.MarshalIndent(rec.Fields, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal action %s: %w", rec.ID, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		slog.Error("Outbox.WriteAction failed", "error", err, "path", path)
		return fmt.Errorf("failed to write action file: %w", err)
	}
	slog.Info("Outbox.WriteAction: action file written", "path", path, "type", rec.Type)
	return nil
}

func (o *Outbox) pathLock(path string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.locks[path]
	if !ok {
		lock = &sync.Mutex{}
		o.locks[path] = lock
	}
	return lock
}
