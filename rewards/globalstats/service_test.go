// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package globalstats

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buck-labs/buck-v1-sub000/buck"
	"github.com/buck-labs/buck-v1-sub000/lvldb"
	"github.com/buck-labs/buck-v1-sub000/rewards/storage"
	"github.com/buck-labs/buck-v1-sub000/state"
)

func newSvc() (*Service, *state.State, buck.Address) {
	db, _ := lvldb.NewMem()
	st := state.New(db)
	addr := buck.BytesToAddress([]byte("stats"))
	return New(storage.NewContext(addr, st)), st, addr
}

func TestUnitPools(t *testing.T) {
	svc, _, _ := newSvc()

	require.NoError(t, svc.AddEligibleUnits(big.NewInt(1000)))
	require.NoError(t, svc.ForfeitEligibleUnits(big.NewInt(300)))
	require.NoError(t, svc.RouteFutureBreakage(big.NewInt(50)))

	pools, err := svc.UnitPools()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(700), pools.Eligible)
	assert.Equal(t, big.NewInt(300), pools.TreasuryBreakage)
	assert.Equal(t, big.NewInt(50), pools.FutureBreakage)
	assert.Equal(t, big.NewInt(1050), pools.Denominator())
	assert.Equal(t, big.NewInt(350), pools.BreakageUnits())

	total, err := svc.TotalBreakageUnits()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(350), total)

	svc.ResetUnitPools()
	pools, err = svc.UnitPools()
	require.NoError(t, err)
	assert.Equal(t, 0, pools.Denominator().Sign())

	// cumulative breakage survives the reset
	total, err = svc.TotalBreakageUnits()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(350), total)
}

func TestUnitPoolGuards(t *testing.T) {
	svc, _, _ := newSvc()

	require.NoError(t, svc.AddEligibleUnits(big.NewInt(10)))
	err := svc.ForfeitEligibleUnits(big.NewInt(11))
	assert.ErrorContains(t, err, "eligible-units uint256 cannot be negative")
}

func TestRewardIndexAndDust(t *testing.T) {
	svc, _, _ := newSvc()

	require.NoError(t, svc.AddRewardIndex(big.NewInt(7)))
	require.NoError(t, svc.AddRewardIndex(big.NewInt(5)))
	index, err := svc.RewardIndex()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(12), index)

	svc.SetDustCarry(big.NewInt(99))
	dust, err := svc.DustCarry()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(99), dust)

	svc.SetDustCarry(new(big.Int))
	dust, err = svc.DustCarry()
	require.NoError(t, err)
	assert.Equal(t, 0, dust.Sign())
}

func TestSupplyCounters(t *testing.T) {
	svc, _, _ := newSvc()

	require.NoError(t, svc.AddExcludedSupply(big.NewInt(500)))
	require.NoError(t, svc.SubExcludedSupply(big.NewInt(200)))
	excluded, err := svc.TotalExcludedSupply()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(300), excluded)

	err = svc.SubExcludedSupply(big.NewInt(301))
	assert.ErrorContains(t, err, "total-excluded-supply uint256 cannot be negative")
}

func TestLateEntry(t *testing.T) {
	svc, _, _ := newSvc()

	supply, epoch, err := svc.LateEntry()
	require.NoError(t, err)
	assert.Equal(t, 0, supply.Sign())
	assert.Equal(t, uint64(0), epoch)

	require.NoError(t, svc.AddLateEntrySupply(big.NewInt(40), 3))
	require.NoError(t, svc.AddLateEntrySupply(big.NewInt(10), 3))
	require.NoError(t, svc.SubLateEntrySupply(big.NewInt(5)))

	supply, epoch, err = svc.LateEntry()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(45), supply)
	assert.Equal(t, uint64(3), epoch)

	svc.ResetLateEntry()
	supply, epoch, err = svc.LateEntry()
	require.NoError(t, err)
	assert.Equal(t, 0, supply.Sign())
	assert.Equal(t, uint64(0), epoch)
}

func TestRewardTotals(t *testing.T) {
	svc, _, _ := newSvc()

	require.NoError(t, svc.AddRewardsDeclared(big.NewInt(1000)))
	require.NoError(t, svc.AddRewardsClaimed(big.NewInt(400)))

	declared, err := svc.TotalRewardsDeclared()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), declared)

	claimed, err := svc.TotalRewardsClaimed()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(400), claimed)
}

func TestLastUpdateTime(t *testing.T) {
	svc, _, _ := newSvc()

	last, err := svc.LastUpdateTime()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), last)

	svc.SetLastUpdateTime(12345)
	last, err = svc.LastUpdateTime()
	require.NoError(t, err)
	assert.Equal(t, uint64(12345), last)
}

func TestPoisonedSlot(t *testing.T) {
	svc, st, addr := newSvc()

	st.SetRawStorage(addr, buck.BytesToBytes32([]byte(slotEligibleUnits)), rlp.RawValue{0xFF})

	_, err := svc.EligibleUnits()
	assert.Error(t, err)
	_, err = svc.UnitPools()
	assert.Error(t, err)
	err = svc.AddEligibleUnits(big.NewInt(1))
	assert.Error(t, err)
}
