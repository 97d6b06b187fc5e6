// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"math/big"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buck-labs/buck-v1-sub000/buck"
	"github.com/buck-labs/buck-v1-sub000/ledger"
	"github.com/buck-labs/buck-v1-sub000/lvldb"
	"github.com/buck-labs/buck-v1-sub000/node"
	"github.com/buck-labs/buck-v1-sub000/policy"
	"github.com/buck-labs/buck-v1-sub000/rewards"
	"github.com/buck-labs/buck-v1-sub000/rewards/epochs"
	"github.com/buck-labs/buck-v1-sub000/state"
)

const (
	day    = 86400
	launch = uint64(1700000000)
)

var admin = buck.BytesToAddress([]byte("admin"))

func newNode(t *testing.T) (*node.Node, *clockwork.FakeClock) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)

	st := state.New(db)
	pol := policy.New(buck.PolicyAddress, st)
	led := ledger.New(buck.LedgerAddress, st)
	eng, err := rewards.New(buck.RewardsAddress, st, led, led, pol)
	require.NoError(t, err)
	led.SetHooks(eng)

	require.NoError(t, pol.SetAdmin(admin, admin))
	require.NoError(t, pol.SetCAPPrice(admin, new(big.Int).Set(buck.ParPrice)))
	require.NoError(t, eng.SetAdmin(admin, admin))

	clock := clockwork.NewFakeClockAt(time.Unix(int64(launch), 0))
	return node.New(st, eng, led, pol, node.Options{Clock: clock}), clock
}

func configureEpoch(t *testing.T, n *node.Node, id uint64) {
	start := launch + (id-1)*30*day
	require.NoError(t, n.ConfigureEpoch(admin, &epochs.Epoch{
		ID:              id,
		StartTime:       start,
		EndTime:         start + 30*day,
		CheckpointStart: start + 20*day,
		CheckpointEnd:   start + 27*day,
	}))
}

func TestHealth_Bootstrap(t *testing.T) {
	n, _ := newNode(t)
	h := New(n)

	status, err := h.Status(DefaultMaxLag)
	require.NoError(t, err)
	assert.False(t, status.Healthy)
	assert.False(t, status.Bootstrapped)

	h.BootstrapStatus(true)

	status, err = h.Status(DefaultMaxLag)
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.True(t, status.Bootstrapped)
}

func TestHealth_Lag(t *testing.T) {
	n, clock := newNode(t)
	configureEpoch(t, n, 1)
	configureEpoch(t, n, 2)

	h := New(n)
	h.BootstrapStatus(true)

	// Epoch 1 is still running, nothing has ended.
	status, err := h.Status(DefaultMaxLag)
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Equal(t, uint64(0), status.Distribution.EndedEpochs)
	assert.Equal(t, uint64(0), status.Distribution.Lag)

	// Both epochs ended and neither was distributed.
	clock.Advance(61 * day * time.Second)
	status, err = h.Status(DefaultMaxLag)
	require.NoError(t, err)
	assert.False(t, status.Healthy)
	assert.Equal(t, uint64(2), status.Distribution.EndedEpochs)
	assert.Equal(t, uint64(2), status.Distribution.Lag)
	assert.Equal(t, uint64(0), status.Distribution.DistributedThrough)

	// A wider tolerance accepts the same lag.
	status, err = h.Status(2)
	require.NoError(t, err)
	assert.True(t, status.Healthy)
}

func TestHealth_LagClearsAfterDistribution(t *testing.T) {
	n, clock := newNode(t)
	configureEpoch(t, n, 1)

	h := New(n)
	h.BootstrapStatus(true)

	clock.Advance(31 * day * time.Second)
	status, err := h.Status(0)
	require.NoError(t, err)
	assert.False(t, status.Healthy)
	assert.Equal(t, uint64(1), status.Distribution.Lag)

	_, err = n.Distribute(admin, big.NewInt(1000))
	require.NoError(t, err)

	status, err = h.Status(0)
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Equal(t, uint64(1), status.Distribution.DistributedThrough)
	assert.Equal(t, uint64(0), status.Distribution.Lag)
}
