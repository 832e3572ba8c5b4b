package settings

import (
	"encoding/json"
	"fmt"

	"go-livedeck/debug"
)

// DefaultKey is the slot key the record is stored under.
const DefaultKey = "strudelSettings"

// Store saves and loads the record under a single slot key.
type Store struct {
	slot Slot
	key  string
}

// NewStore returns a store writing to slot under key (DefaultKey when empty).
func NewStore(slot Slot, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{slot: slot, key: key}
}

// Save overwrites the slot with the JSON form of s.
func (st *Store) Save(s Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := st.slot.Set(st.key, string(data)); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	debug.Log("settings", "saved %s", data)
	return nil
}

// Load reads the slot. An empty slot or an empty blob yields ErrNotFound. The
// returned patch only carries the fields present in the stored blob.
func (st *Store) Load() (Patch, error) {
	blob, ok, err := st.slot.Get(st.key)
	if err != nil {
		return Patch{}, fmt.Errorf("load settings: %w", err)
	}
	if !ok || blob == "" {
		return Patch{}, ErrNotFound
	}
	p, err := ParsePatch([]byte(blob))
	if err != nil {
		return Patch{}, err
	}
	debug.Log("settings", "loaded %s", blob)
	return p, nil
}
