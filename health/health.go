// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"sync"

	"github.com/buck-labs/buck-v1-sub000/node"
)

// DefaultMaxLag is the number of ended but undistributed epochs the node
// tolerates before reporting unhealthy.
const DefaultMaxLag = uint64(1)

type Distribution struct {
	DistributedThrough uint64 `json:"distributedThrough"`
	EndedEpochs        uint64 `json:"endedEpochs"`
	Lag                uint64 `json:"lag"`
}

type Status struct {
	Healthy      bool          `json:"healthy"`
	Bootstrapped bool          `json:"bootstrapped"`
	Distribution *Distribution `json:"distribution"`
}

// Health tracks whether the node keeps up with the epoch schedule. An epoch
// that ended but was not distributed yet counts toward the lag.
type Health struct {
	lock         sync.RWMutex
	node         *node.Node
	bootstrapped bool
}

func New(node *node.Node) *Health {
	return &Health{node: node}
}

func (h *Health) BootstrapStatus(bootstrapped bool) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.bootstrapped = bootstrapped
}

func (h *Health) Status(maxLag uint64) (*Status, error) {
	h.lock.RLock()
	bootstrapped := h.bootstrapped
	h.lock.RUnlock()

	through, err := h.node.DistributedThrough()
	if err != nil {
		return nil, err
	}

	ref, err := h.node.ReferenceEpoch()
	if err != nil {
		return nil, err
	}

	// Epoch IDs are assigned in schedule order, so every epoch before the
	// reference one has ended. The reference epoch itself counts once the
	// clock passes its end.
	var ended uint64
	if ref != nil {
		ended = ref.ID
		if h.node.Now() < ref.EndTime {
			ended--
		}
	}

	var lag uint64
	if ended > through {
		lag = ended - through
	}

	return &Status{
		Healthy:      bootstrapped && lag <= maxLag,
		Bootstrapped: bootstrapped,
		Distribution: &Distribution{
			DistributedThrough: through,
			EndedEpochs:        ended,
			Lag:                lag,
		},
	}, nil
}
