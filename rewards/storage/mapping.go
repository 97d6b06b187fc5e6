// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/buck-labs/buck-v1-sub000/buck"
)

type Key interface {
	Bytes() []byte
}

// Mapping is a key/value storage abstraction, similar to the mapping in
// Solidity. Value positions are derived by hashing the key with the base
// position, values are RLP encoded.
type Mapping[K Key, V any] struct {
	context *Context
	basePos buck.Bytes32
}

func NewMapping[K Key, V any](context *Context, name string) *Mapping[K, V] {
	return &Mapping[K, V]{
		context: context,
		basePos: buck.BytesToBytes32([]byte(name)),
	}
}

// Get loads the value at key. A missing key yields the zero value; pointer
// kinds are allocated so the caller always receives a usable value.
func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	position := buck.Blake2b(key.Bytes(), m.basePos.Bytes())
	err = m.context.state.DecodeStorage(m.context.address, position, func(raw []byte) error {
		if reflect.ValueOf(value).Kind() == reflect.Ptr {
			value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
		}
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

func (m *Mapping[K, V]) Set(key K, value V) error {
	position := buck.Blake2b(key.Bytes(), m.basePos.Bytes())
	return m.context.state.EncodeStorage(m.context.address, position, func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}

// Has reports whether the key holds a stored value.
func (m *Mapping[K, V]) Has(key K) (bool, error) {
	position := buck.Blake2b(key.Bytes(), m.basePos.Bytes())
	raw, err := m.context.state.GetRawStorage(m.context.address, position)
	if err != nil {
		return false, err
	}
	return len(raw) > 0, nil
}
