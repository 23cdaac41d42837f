package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileRepo stores every slot in a single JSON document so that a multi-slot
// save is one rename.
type FileRepo struct {
	path string

	mu    sync.Mutex
	slots map[Key]json.RawMessage
}

var _ Repository = (*FileRepo)(nil)

func NewFile(path string) (*FileRepo, error) {
	if path == "" {
		return nil, errors.New("state file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &FileRepo{path: path}, nil
}

func (r *FileRepo) Load(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.readLocked(); err != nil {
		return State{}, err
	}

	var st State
	for k, raw := range r.slots {
		if err := decodeSlot(&st, k, raw); err != nil {
			return State{}, err
		}
	}
	return st, nil
}

func (r *FileRepo) Save(ctx context.Context, st State, keys ...Key) error {
	if len(keys) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	encoded, err := encodeSlots(st, keys)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.slots == nil {
		if err := r.readLocked(); err != nil {
			return err
		}
	}

	next := make(map[Key]json.RawMessage, len(r.slots)+len(keys))
	for k, v := range r.slots {
		next[k] = v
	}
	for k, v := range encoded {
		next[k] = v
	}

	if err := r.writeLocked(next); err != nil {
		return err
	}
	r.slots = next
	return nil
}

func (r *FileRepo) Close() error {
	return nil
}

func (r *FileRepo) readLocked() error {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		r.slots = map[Key]json.RawMessage{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read state file: %w", err)
	}

	slots := map[Key]json.RawMessage{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &slots); err != nil {
			return fmt.Errorf("parse state file: %w", err)
		}
	}
	r.slots = slots
	return nil
}

func (r *FileRepo) writeLocked(slots map[Key]json.RawMessage) error {
	data, err := json.MarshalIndent(slots, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
