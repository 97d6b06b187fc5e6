// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"github.com/buck-labs/buck-v1-sub000/buck"
)

// Address is a wrapper for storage and retrieval of an address, similar to
// storing an address in a smart contract.
type Address struct {
	context *Context
	pos     buck.Bytes32
}

func NewAddress(context *Context, name string) *Address {
	return &Address{
		context: context,
		pos:     buck.BytesToBytes32([]byte(name)),
	}
}

func (a *Address) Get() (buck.Address, error) {
	storage, err := a.context.state.GetStorage(a.context.address, a.pos)
	if err != nil {
		return buck.Address{}, err
	}
	return buck.BytesToAddress(storage.Bytes()), nil
}

// Set stores the address. A nil address clears the slot.
func (a *Address) Set(addr *buck.Address) {
	var storage buck.Bytes32
	if addr != nil {
		storage = buck.BytesToBytes32(addr.Bytes())
	}
	a.context.state.SetStorage(a.context.address, a.pos, storage)
}
