// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/buck-labs/buck-v1-sub000/buck"
)

// Uint64 is a wrapper for storage and retrieval of an uint64 value, used for
// counters, identifiers and unix timestamps.
type Uint64 struct {
	context *Context
	name    string
	pos     buck.Bytes32
}

func NewUint64(context *Context, name string) *Uint64 {
	return &Uint64{
		context: context,
		name:    name,
		pos:     buck.BytesToBytes32([]byte(name)),
	}
}

func (u *Uint64) Get() (uint64, error) {
	storage, err := u.context.state.GetStorage(u.context.address, u.pos)
	if err != nil {
		return 0, err
	}
	value := new(big.Int).SetBytes(storage.Bytes())
	if !value.IsUint64() {
		return 0, errors.Errorf("%s uint64 out of range", u.name)
	}
	return value.Uint64(), nil
}

func (u *Uint64) Set(value uint64) {
	storage := buck.BytesToBytes32(new(big.Int).SetUint64(value).Bytes())
	u.context.state.SetStorage(u.context.address, u.pos, storage)
}
