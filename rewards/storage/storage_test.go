// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buck-labs/buck-v1-sub000/buck"
	"github.com/buck-labs/buck-v1-sub000/lvldb"
	"github.com/buck-labs/buck-v1-sub000/state"
)

func newContext() *Context {
	db, _ := lvldb.NewMem()
	st := state.New(db)
	return NewContext(buck.BytesToAddress([]byte("slots")), st)
}

func TestUint256(t *testing.T) {
	ctx := newContext()
	counter := NewUint256(ctx, "test-counter")

	value, err := counter.Get()
	assert.NoError(t, err)
	assert.Equal(t, 0, value.Sign())

	counter.Set(big.NewInt(1000))
	value, err = counter.Get()
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), value)

	assert.NoError(t, counter.Add(big.NewInt(500)))
	value, err = counter.Get()
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(1500), value)

	assert.NoError(t, counter.Sub(big.NewInt(200)))
	value, err = counter.Get()
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(1300), value)
}

func TestUint256Guards(t *testing.T) {
	ctx := newContext()
	counter := NewUint256(ctx, "test-counter")

	err := counter.Sub(big.NewInt(1))
	assert.ErrorContains(t, err, "test-counter uint256 cannot be negative")

	counter.Set(maxUint256)
	err = counter.Add(big.NewInt(1))
	assert.ErrorContains(t, err, "uint256 overflow")
}

func TestUint256PoisonedSlot(t *testing.T) {
	ctx := newContext()
	counter := NewUint256(ctx, "test-counter")

	ctx.State().SetRawStorage(ctx.Address(), buck.BytesToBytes32([]byte("test-counter")), rlp.RawValue{0xFF})
	_, err := counter.Get()
	assert.Error(t, err)
	assert.Error(t, counter.Add(big.NewInt(1)))
	assert.Error(t, counter.Sub(big.NewInt(1)))
}

func TestUint64(t *testing.T) {
	ctx := newContext()
	slot := NewUint64(ctx, "test-time")

	value, err := slot.Get()
	assert.NoError(t, err)
	assert.Equal(t, uint64(0), value)

	slot.Set(1771234567)
	value, err = slot.Get()
	assert.NoError(t, err)
	assert.Equal(t, uint64(1771234567), value)
}

func TestUint64OutOfRange(t *testing.T) {
	ctx := newContext()
	slot := NewUint64(ctx, "test-time")

	tooBig := new(big.Int).Lsh(big.NewInt(1), 64)
	ctx.State().SetStorage(ctx.Address(), buck.BytesToBytes32([]byte("test-time")), buck.BytesToBytes32(tooBig.Bytes()))

	_, err := slot.Get()
	assert.ErrorContains(t, err, "test-time uint64 out of range")
}

func TestAddress(t *testing.T) {
	ctx := newContext()
	slot := NewAddress(ctx, "test-addr")

	value, err := slot.Get()
	assert.NoError(t, err)
	assert.True(t, value.IsZero())

	addr := buck.BytesToAddress([]byte("holder"))
	slot.Set(&addr)
	value, err = slot.Get()
	assert.NoError(t, err)
	assert.Equal(t, addr, value)

	slot.Set(nil)
	value, err = slot.Get()
	assert.NoError(t, err)
	assert.True(t, value.IsZero())
}

func TestBool(t *testing.T) {
	ctx := newContext()
	slot := NewBool(ctx, "test-flag")

	value, err := slot.Get()
	assert.NoError(t, err)
	assert.False(t, value)

	slot.Set(true)
	value, err = slot.Get()
	assert.NoError(t, err)
	assert.True(t, value)

	slot.Set(false)
	value, err = slot.Get()
	assert.NoError(t, err)
	assert.False(t, value)
}

type testRecord struct {
	Balance *big.Int
	Since   uint64
	Frozen  bool
}

func TestMapping(t *testing.T) {
	ctx := newContext()
	records := NewMapping[buck.Address, *testRecord](ctx, "test-records")

	holder := buck.BytesToAddress([]byte("holder"))

	// missing key yields an allocated zero record
	rec, err := records.Get(holder)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Nil(t, rec.Balance)
	assert.Equal(t, uint64(0), rec.Since)

	has, err := records.Has(holder)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, records.Set(holder, &testRecord{
		Balance: big.NewInt(42),
		Since:   100,
		Frozen:  true,
	}))

	rec, err = records.Get(holder)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), rec.Balance)
	assert.Equal(t, uint64(100), rec.Since)
	assert.True(t, rec.Frozen)

	has, err = records.Has(holder)
	require.NoError(t, err)
	assert.True(t, has)

	// keys are isolated
	other, err := records.Get(buck.BytesToAddress([]byte("other")))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), other.Since)
}

func TestMappingBigIntValues(t *testing.T) {
	ctx := newContext()
	balances := NewMapping[buck.Address, *big.Int](ctx, "test-balances")

	holder := buck.BytesToAddress([]byte("holder"))

	value, err := balances.Get(holder)
	require.NoError(t, err)
	assert.Equal(t, 0, value.Sign())

	require.NoError(t, balances.Set(holder, big.NewInt(123456)))
	value, err = balances.Get(holder)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(123456), value)
}
