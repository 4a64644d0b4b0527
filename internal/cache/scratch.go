package cache

import (
	"context"
	"slices"

	"StateCache/internal/model"
)

// ScratchStore is a last-write-wins key/blob store for arbitrary cache users.
// Puts are written to memory first, then forwarded to the backend; a backend
// failure does not roll back the memory write.
//
// Not thread-safe.
type ScratchStore struct {
	entries map[string][]byte
}

func NewScratchStore() *ScratchStore {
	return &ScratchStore{entries: make(map[string][]byte)}
}

func (s *ScratchStore) Put(ctx context.Context, db Database, key string, value []byte) error {
	if err := model.CheckValidString(key, "key"); err != nil {
		return err
	}
	if err := model.CheckNotEmptyBytes(value, "value"); err != nil {
		return err
	}

	s.entries[key] = slices.Clone(value)

	if db == nil {
		return nil
	}
	return persistErr(StepPut, db.Put(ctx, key, value))
}

// Get returns a copy of the stored value; a missing key is not an error.
func (s *ScratchStore) Get(key string) ([]byte, bool, error) {
	if err := model.CheckValidString(key, "key"); err != nil {
		return nil, false, err
	}
	v, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(v), true, nil
}

func (s *ScratchStore) Hydrate(ctx context.Context, db Database) (int, error) {
	if db == nil {
		s.entries = make(map[string][]byte)
		return 0, nil
	}
	loaded, err := db.LoadGeneral(ctx)
	if err != nil {
		return 0, persistErr(StepGeneral, err)
	}
	entries := make(map[string][]byte, len(loaded))
	for k, v := range loaded {
		entries[k] = slices.Clone(v)
	}
	s.entries = entries
	return len(entries), nil
}

func (s *ScratchStore) Keys() []string {
	return mapKeys(s.entries)
}

func (s *ScratchStore) Len() int { return len(s.entries) }

func (s *ScratchStore) Clear() {
	s.entries = make(map[string][]byte)
}
