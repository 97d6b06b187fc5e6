// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/buck-labs/buck-v1-sub000/buck"
	"github.com/buck-labs/buck-v1-sub000/kv"
	"github.com/buck-labs/buck-v1-sub000/stackedmap"
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// storageKey locates a storage value of an address.
type storageKey struct {
	addr buck.Address
	key  buck.Bytes32
}

func (k storageKey) storeKey() []byte {
	b := make([]byte, 0, len(k.addr)+len(k.key))
	b = append(b, k.addr[:]...)
	return append(b, k.key[:]...)
}

// State manages the per-address storage namespace on top of a key-value
// store. All mutations are journaled and become persistent only when the
// stage produced by Stage is committed. Checkpoints allow partial rollback
// of uncommitted changes.
type State struct {
	store kv.GetPutter
	sm    *stackedmap.StackedMap
	cache map[storageKey]rlp.RawValue // read-through cache of backing values
}

// New creates state object over the given key-value store.
func New(store kv.GetPutter) *State {
	state := &State{
		store: store,
		cache: make(map[storageKey]rlp.RawValue),
	}
	state.sm = stackedmap.New(func(key interface{}) (interface{}, bool, error) {
		return state.cacheGetter(key.(storageKey))
	})
	return state
}

// cacheGetter loads a backing value, memoizing it for later reads.
func (s *State) cacheGetter(key storageKey) (interface{}, bool, error) {
	if v, ok := s.cache[key]; ok {
		return v, true, nil
	}
	data, err := s.store.Get(key.storeKey())
	if err != nil {
		if !s.store.IsNotFound(err) {
			return nil, false, err
		}
		data = nil
	}
	v := rlp.RawValue(data)
	s.cache[key] = v
	return v, true, nil
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr buck.Address, key buck.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data.(rlp.RawValue), nil
}

// SetRawStorage sets storage value in rlp raw.
// Empty raw value deletes the storage slot.
func (s *State) SetRawStorage(addr buck.Address, key buck.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// GetStorage returns storage value for the given address and key.
func (s *State) GetStorage(addr buck.Address, key buck.Bytes32) (buck.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return buck.Bytes32{}, err
	}
	if len(raw) == 0 {
		return buck.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return buck.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		return buck.Bytes32{}, &Error{fmt.Errorf("invalid storage value encoding for %v at %v", addr, key)}
	}
	return buck.BytesToBytes32(content), nil
}

// SetStorage sets storage value for the given address and key.
// Zero value deletes the storage slot.
func (s *State) SetStorage(addr buck.Address, key, value buck.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// EncodeStorage sets storage value encoded by given enc method.
// An empty encoded value deletes the storage slot.
func (s *State) EncodeStorage(addr buck.Address, key buck.Bytes32, enc func() ([]byte, error)) error {
	data, err := enc()
	if err != nil {
		return err
	}
	s.SetRawStorage(addr, key, data)
	return nil
}

// DecodeStorage decodes stored value via given dec method.
// The dec method is fed with nil if the slot is unset.
func (s *State) DecodeStorage(addr buck.Address, key buck.Bytes32, dec func([]byte) error) error {
	data, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	return dec(data)
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo reverts state to checkpoint with the given revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
}

// Stage makes a stage out of all journaled changes, which can be committed
// to the backing store atomically.
func (s *State) Stage() (*Stage, error) {
	batch := s.store.NewBatch()
	var jerr error
	s.sm.Journal(func(k, v interface{}) bool {
		key := k.(storageKey)
		raw := v.(rlp.RawValue)
		if len(raw) == 0 {
			jerr = batch.Delete(key.storeKey())
		} else {
			jerr = batch.Put(key.storeKey(), raw)
		}
		return jerr == nil
	})
	if jerr != nil {
		return nil, &Error{jerr}
	}
	return &Stage{batch}, nil
}
