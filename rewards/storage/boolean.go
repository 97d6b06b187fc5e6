// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"github.com/buck-labs/buck-v1-sub000/buck"
)

// Bool is a wrapper for storage and retrieval of a flag slot.
// A false value clears the slot.
type Bool struct {
	context *Context
	pos     buck.Bytes32
}

func NewBool(context *Context, name string) *Bool {
	return &Bool{
		context: context,
		pos:     buck.BytesToBytes32([]byte(name)),
	}
}

func (b *Bool) Get() (bool, error) {
	storage, err := b.context.state.GetStorage(b.context.address, b.pos)
	if err != nil {
		return false, err
	}
	return !storage.IsZero(), nil
}

func (b *Bool) Set(value bool) {
	var storage buck.Bytes32
	if value {
		storage[31] = 1
	}
	b.context.state.SetStorage(b.context.address, b.pos, storage)
}
