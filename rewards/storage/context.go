// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"github.com/buck-labs/buck-v1-sub000/buck"
	"github.com/buck-labs/buck-v1-sub000/state"
)

// Context carries the storage namespace of an engine component: the address
// the slots live under and the state to read and write them through.
type Context struct {
	address buck.Address
	state   *state.State
}

func NewContext(address buck.Address, state *state.State) *Context {
	return &Context{
		address: address,
		state:   state,
	}
}

func (c *Context) State() *state.State {
	return c.state
}

func (c *Context) Address() buck.Address {
	return c.address
}
