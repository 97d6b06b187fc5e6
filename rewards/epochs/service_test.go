// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epochs

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buck-labs/buck-v1-sub000/buck"
	"github.com/buck-labs/buck-v1-sub000/lvldb"
	"github.com/buck-labs/buck-v1-sub000/rewards/reverts"
	"github.com/buck-labs/buck-v1-sub000/rewards/storage"
	"github.com/buck-labs/buck-v1-sub000/state"
)

func newSvc() (*Service, buck.Address, *state.State) {
	db, _ := lvldb.NewMem()
	st := state.New(db)
	addr := buck.BytesToAddress([]byte("epochs"))
	svc := New(storage.NewContext(addr, st))
	return svc, addr, st
}

func window(id, start, cs, ce, end uint64) *Epoch {
	return &Epoch{
		ID:              id,
		StartTime:       start,
		EndTime:         end,
		CheckpointStart: cs,
		CheckpointEnd:   ce,
	}
}

func TestService_Add(t *testing.T) {
	svc, _, _ := newSvc()

	count, err := svc.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)

	require.NoError(t, svc.Add(window(1, 1000, 1600, 1800, 2000), 500))

	count, err = svc.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	e, err := svc.Get(1)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, uint64(1000), e.StartTime)
	assert.Equal(t, uint64(1000), e.AccrualStart) // configured before start
	assert.False(t, e.Distributed)

	// configured mid-window: accrual starts at configuration time
	require.NoError(t, svc.Add(window(2, 2500, 3000, 3200, 4000), 2600))
	e, err = svc.Get(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2600), e.AccrualStart)

	missing, err := svc.Get(3)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestService_Add_Validation(t *testing.T) {
	svc, _, _ := newSvc()
	require.NoError(t, svc.Add(window(1, 1000, 1600, 1800, 2000), 0))

	tests := []struct {
		name  string
		epoch *Epoch
		now   uint64
	}{
		{"wrong id", window(3, 3000, 3600, 3800, 4000), 0},
		{"checkpoint before start", window(2, 3000, 3000, 3800, 4000), 0},
		{"checkpoint inverted", window(2, 3000, 3800, 3600, 4000), 0},
		{"checkpoint end at epoch end", window(2, 3000, 3600, 4000, 4000), 0},
		{"overlaps previous", window(2, 1900, 3600, 3800, 4000), 0},
		{"already over", window(2, 3000, 3600, 3800, 4000), 4000},
	}
	for _, tt := range tests {
		err := svc.Add(tt.epoch, tt.now)
		assert.True(t, reverts.Is(err, reverts.CodeInvalidConfig), tt.name)
	}

	count, err := svc.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestService_LookupsByTime(t *testing.T) {
	svc, _, _ := newSvc()
	require.NoError(t, svc.Add(window(1, 1000, 1600, 1800, 2000), 0))
	require.NoError(t, svc.Add(window(2, 2500, 3000, 3200, 4000), 0))

	// before the schedule
	ref, err := svc.ReferenceAt(500)
	require.NoError(t, err)
	assert.Nil(t, ref)

	at, err := svc.At(500)
	require.NoError(t, err)
	assert.Nil(t, at)

	// inside epoch 1
	ref, err = svc.ReferenceAt(1500)
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, uint64(1), ref.ID)

	at, err = svc.At(1500)
	require.NoError(t, err)
	require.NotNil(t, at)
	assert.Equal(t, uint64(1), at.ID)

	// in the gap between epochs
	ref, err = svc.ReferenceAt(2200)
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, uint64(1), ref.ID)

	at, err = svc.At(2200)
	require.NoError(t, err)
	assert.Nil(t, at)

	// after the whole schedule
	ref, err = svc.ReferenceAt(9000)
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, uint64(2), ref.ID)

	ended, err := svc.LastEndedAt(1999)
	require.NoError(t, err)
	assert.Nil(t, ended)

	ended, err = svc.LastEndedAt(2000)
	require.NoError(t, err)
	require.NotNil(t, ended)
	assert.Equal(t, uint64(1), ended.ID)

	ended, err = svc.LastEndedAt(9000)
	require.NoError(t, err)
	require.NotNil(t, ended)
	assert.Equal(t, uint64(2), ended.ID)
}

func TestService_EntryEpochAt(t *testing.T) {
	svc, _, _ := newSvc()
	require.NoError(t, svc.Add(window(1, 1000, 1600, 1800, 2000), 0))
	require.NoError(t, svc.Add(window(2, 2500, 3000, 3200, 4000), 0))

	tests := []struct {
		now   uint64
		epoch uint64
		late  bool
	}{
		{500, 1, false},     // before the schedule
		{1200, 1, false},    // open phase
		{1600, 2, true},     // checkpoint start
		{1700, 2, true},     // checkpoint window
		{1900, 2, true},     // post-checkpoint
		{2200, 2, false},    // gap: eligible once epoch 2 starts
		{3100, 3, true},     // checkpoint of epoch 2
		{9000, 3, false},    // after the schedule: next epoch to be configured
	}
	for _, tt := range tests {
		epoch, late, err := svc.EntryEpochAt(tt.now)
		require.NoError(t, err)
		assert.Equal(t, tt.epoch, epoch, "now=%d", tt.now)
		assert.Equal(t, tt.late, late, "now=%d", tt.now)
	}
}

func TestEpoch_PhaseAt(t *testing.T) {
	e := window(1, 1000, 1600, 1800, 2000)

	assert.Equal(t, PhasePending, e.PhaseAt(999))
	assert.Equal(t, PhaseOpen, e.PhaseAt(1000))
	assert.Equal(t, PhaseCheckpoint, e.PhaseAt(1600))
	assert.Equal(t, PhasePostCheckpoint, e.PhaseAt(1800))
	assert.Equal(t, PhaseClosed, e.PhaseAt(2000))

	e.Distributed = true
	assert.Equal(t, PhaseDistributed, e.PhaseAt(2000))
}

func TestEpoch_OverlapSeconds(t *testing.T) {
	e := window(1, 1000, 1600, 1800, 2000)
	e.AccrualStart = 1000

	assert.Equal(t, uint64(1000), e.OverlapSeconds(500, 2500))
	assert.Equal(t, uint64(500), e.OverlapSeconds(1200, 1700))
	assert.Equal(t, uint64(0), e.OverlapSeconds(2000, 2500))
	assert.Equal(t, uint64(0), e.OverlapSeconds(500, 1000))
	assert.Equal(t, uint64(300), e.RemainingSeconds(1700))

	// accrual clamped by configuration time
	e.AccrualStart = 1500
	assert.Equal(t, uint64(500), e.OverlapSeconds(500, 2500))
}

func TestService_MarkDistributedThrough(t *testing.T) {
	svc, _, _ := newSvc()
	require.NoError(t, svc.Add(window(1, 1000, 1600, 1800, 2000), 0))
	require.NoError(t, svc.Add(window(2, 2500, 3000, 3200, 4000), 0))
	require.NoError(t, svc.Add(window(3, 4000, 4600, 4800, 5000), 0))

	require.NoError(t, svc.MarkDistributedThrough(2))

	through, err := svc.DistributedThrough()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), through)

	for id, want := range map[uint64]bool{1: true, 2: true, 3: false} {
		e, err := svc.Get(id)
		require.NoError(t, err)
		assert.Equal(t, want, e.Distributed, "epoch %d", id)
	}

	// lower targets are no-ops
	require.NoError(t, svc.MarkDistributedThrough(1))
	through, err = svc.DistributedThrough()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), through)
}

func TestService_Reports(t *testing.T) {
	svc, _, _ := newSvc()

	count, err := svc.ReportCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)

	missing, err := svc.GetReport(1)
	require.NoError(t, err)
	assert.Nil(t, missing)

	r1 := &Report{
		Epoch:            1,
		DistributionTime: 2000,
		DeltaIndex:       big.NewInt(5000),
		DenominatorUnits: big.NewInt(1_000_000),
		TokensAllocated:  big.NewInt(5),
		DustCarried:      big.NewInt(3),
	}
	require.NoError(t, svc.AddReport(r1))
	require.NoError(t, svc.AddReport(&Report{
		Epoch:            2,
		DistributionTime: 4000,
		DeltaIndex:       big.NewInt(2500),
		DenominatorUnits: big.NewInt(2_000_000),
		TokensAllocated:  big.NewInt(5),
		DustCarried:      big.NewInt(0),
	}))

	count, err = svc.ReportCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	got, err := svc.GetReport(1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint64(1), got.Epoch)
	assert.Equal(t, big.NewInt(5000), got.DeltaIndex)
	assert.Equal(t, big.NewInt(3), got.DustCarried)

	byEpoch, err := svc.ReportByEpoch(2)
	require.NoError(t, err)
	require.NotNil(t, byEpoch)
	assert.Equal(t, uint64(4000), byEpoch.DistributionTime)

	none, err := svc.ReportByEpoch(3)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestService_PoisonedCountSlot(t *testing.T) {
	svc, addr, st := newSvc()
	st.SetRawStorage(addr, buck.BytesToBytes32([]byte(slotEpochCount)), rlp.RawValue{0xFF})

	_, err := svc.Count()
	assert.Error(t, err)
	_, err = svc.Get(1)
	assert.Error(t, err)
	_, err = svc.ReferenceAt(100)
	assert.Error(t, err)
	assert.Error(t, svc.Add(window(1, 1000, 1600, 1800, 2000), 0))
}
