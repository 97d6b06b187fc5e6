// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/buck-labs/buck-v1-sub000/buck"
)

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Uint256 is a wrapper for storage and retrieval of an unsigned 256-bit value,
// similar to storing an uint256 in a smart contract. The slot position is
// derived from the name, which also tags guard errors.
type Uint256 struct {
	context *Context
	name    string
	pos     buck.Bytes32
}

func NewUint256(context *Context, name string) *Uint256 {
	return &Uint256{
		context: context,
		name:    name,
		pos:     buck.BytesToBytes32([]byte(name)),
	}
}

func (u *Uint256) Get() (*big.Int, error) {
	storage, err := u.context.state.GetStorage(u.context.address, u.pos)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(storage.Bytes()), nil
}

// Set stores the value. Values over 256 bits are truncated to fit buck.Bytes32.
func (u *Uint256) Set(value *big.Int) {
	storage := buck.BytesToBytes32(value.Bytes())
	u.context.state.SetStorage(u.context.address, u.pos, storage)
}

func (u *Uint256) Add(value *big.Int) error {
	current, err := u.Get()
	if err != nil {
		return err
	}
	current.Add(current, value)
	if current.Cmp(maxUint256) > 0 {
		return errors.Errorf("%s uint256 overflow", u.name)
	}
	u.Set(current)
	return nil
}

func (u *Uint256) Sub(value *big.Int) error {
	current, err := u.Get()
	if err != nil {
		return err
	}
	current.Sub(current, value)
	if current.Sign() < 0 {
		return errors.Errorf("%s uint256 cannot be negative", u.name)
	}
	u.Set(current)
	return nil
}
