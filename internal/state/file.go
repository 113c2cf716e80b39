package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// FileStore keeps PriceState in a local JSON file. No locking: the design
// assumes exactly one process instance runs at a time.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the state file. A missing file is the empty state.
func (s *FileStore) Load(_ context.Context) (PriceState, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return PriceState{}, nil
	}
	if err != nil {
		return PriceState{}, fmt.Errorf("read state file: %w", err)
	}
	var st PriceState
	if err := json.Unmarshal(raw, &st); err != nil {
		return PriceState{}, fmt.Errorf("decode state file %s: %w", s.path, err)
	}
	return st, nil
}

// Save overwrites the whole state file.
func (s *FileStore) Save(_ context.Context, st PriceState) error {
	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// Reset removes the state file. Resetting a store that was never written is
// a no-op.
func (s *FileStore) Reset(_ context.Context) error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *FileStore) Close() {}
