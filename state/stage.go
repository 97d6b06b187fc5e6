// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/buck-labs/buck-v1-sub000/kv"
)

// Stage abstracts the changes journaled by a state, ready to be committed
// to the backing store in one batch.
type Stage struct {
	batch kv.Batch
}

// Len returns the count of pending writes.
func (s *Stage) Len() int {
	return s.batch.Len()
}

// Commit commits the batched changes into the backing store.
func (s *Stage) Commit() error {
	if err := s.batch.Write(); err != nil {
		return &Error{err}
	}
	return nil
}
