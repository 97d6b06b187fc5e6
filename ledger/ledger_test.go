// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buck-labs/buck-v1-sub000/buck"
	"github.com/buck-labs/buck-v1-sub000/lvldb"
	"github.com/buck-labs/buck-v1-sub000/state"
)

var (
	accA = buck.BytesToAddress([]byte("a1"))
	accB = buck.BytesToAddress([]byte("b1"))
)

func newLedger() *Ledger {
	db, _ := lvldb.NewMem()
	st := state.New(db)
	return New(buck.BytesToAddress([]byte("ledger")), st)
}

// recordingHooks captures the ledger view at hook time and can abort
// mutations on demand.
type recordingHooks struct {
	led *Ledger

	kinds       []string
	seenBalance *big.Int
	seenSupply  *big.Int
	fail        error
}

func (h *recordingHooks) observe(kind string, addr buck.Address) error {
	if h.fail != nil {
		return h.fail
	}
	h.kinds = append(h.kinds, kind)
	h.seenBalance, _ = h.led.BalanceOf(addr)
	h.seenSupply, _ = h.led.TotalSupply()
	return nil
}

func (h *recordingHooks) OnTransfer(from, to buck.Address, amount *big.Int, now uint64) error {
	return h.observe("transfer", from)
}

func (h *recordingHooks) OnMint(to buck.Address, amount *big.Int, now uint64) error {
	return h.observe("mint", to)
}

func (h *recordingHooks) OnBurn(from buck.Address, amount *big.Int, now uint64) error {
	return h.observe("burn", from)
}

func balanceOf(t *testing.T, led *Ledger, addr buck.Address) *big.Int {
	balance, err := led.BalanceOf(addr)
	require.NoError(t, err)
	return balance
}

func TestMintCreditsAndTracks(t *testing.T) {
	led := newLedger()

	require.NoError(t, led.Mint(accA, big.NewInt(100), 1000))
	assert.Equal(t, big.NewInt(100), balanceOf(t, led, accA))

	supply, err := led.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), supply)

	count, err := led.AccountCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	got, err := led.AccountAt(0)
	require.NoError(t, err)
	assert.Equal(t, accA, got)

	// a second credit must not register the account twice
	require.NoError(t, led.Mint(accA, big.NewInt(50), 1100))
	count, err = led.AccountCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestTransferMovesBalance(t *testing.T) {
	led := newLedger()
	require.NoError(t, led.Mint(accA, big.NewInt(100), 1000))

	require.NoError(t, led.Transfer(accA, accB, big.NewInt(40), 1100))
	assert.Equal(t, big.NewInt(60), balanceOf(t, led, accA))
	assert.Equal(t, big.NewInt(40), balanceOf(t, led, accB))

	supply, err := led.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), supply)

	count, err := led.AccountCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
	got, err := led.AccountAt(1)
	require.NoError(t, err)
	assert.Equal(t, accB, got)
}

func TestTransferInsufficientBalance(t *testing.T) {
	led := newLedger()
	require.NoError(t, led.Mint(accA, big.NewInt(100), 1000))

	err := led.Transfer(accA, accB, big.NewInt(200), 1100)
	assert.True(t, errors.Is(err, ErrInsufficientBalance))

	assert.Equal(t, big.NewInt(100), balanceOf(t, led, accA))
	assert.Equal(t, 0, balanceOf(t, led, accB).Sign())
}

func TestSelfTransfer(t *testing.T) {
	led := newLedger()
	require.NoError(t, led.Mint(accA, big.NewInt(100), 1000))

	require.NoError(t, led.Transfer(accA, accA, big.NewInt(30), 1100))
	assert.Equal(t, big.NewInt(100), balanceOf(t, led, accA))

	err := led.Transfer(accA, accA, big.NewInt(200), 1100)
	assert.True(t, errors.Is(err, ErrInsufficientBalance))
}

func TestBurnReducesSupply(t *testing.T) {
	led := newLedger()
	require.NoError(t, led.Mint(accA, big.NewInt(100), 1000))

	require.NoError(t, led.Burn(accA, big.NewInt(30), 1100))
	assert.Equal(t, big.NewInt(70), balanceOf(t, led, accA))

	supply, err := led.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(70), supply)

	err = led.Burn(accA, big.NewInt(100), 1200)
	assert.True(t, errors.Is(err, ErrInsufficientBalance))
}

func TestValidation(t *testing.T) {
	led := newLedger()
	require.NoError(t, led.Mint(accA, big.NewInt(100), 1000))

	assert.Equal(t, ErrNegativeAmount, led.Mint(accA, nil, 1100))
	assert.Equal(t, ErrNegativeAmount, led.Transfer(accA, accB, big.NewInt(-1), 1100))
	assert.Equal(t, ErrNegativeAmount, led.Burn(accA, big.NewInt(-1), 1100))

	assert.Equal(t, ErrZeroAddress, led.Mint(buck.Address{}, big.NewInt(1), 1100))
	assert.Equal(t, ErrZeroAddress, led.Transfer(accA, buck.Address{}, big.NewInt(1), 1100))
	assert.Equal(t, ErrZeroAddress, led.Burn(buck.Address{}, big.NewInt(1), 1100))
}

func TestHooksSeePreMutationState(t *testing.T) {
	led := newLedger()
	hooks := &recordingHooks{led: led}
	led.SetHooks(hooks)

	require.NoError(t, led.Mint(accA, big.NewInt(100), 1000))
	assert.Equal(t, 0, hooks.seenBalance.Sign())
	assert.Equal(t, 0, hooks.seenSupply.Sign())

	require.NoError(t, led.Transfer(accA, accB, big.NewInt(40), 1100))
	assert.Equal(t, big.NewInt(100), hooks.seenBalance)
	assert.Equal(t, big.NewInt(100), hooks.seenSupply)

	require.NoError(t, led.Burn(accA, big.NewInt(10), 1200))
	assert.Equal(t, big.NewInt(60), hooks.seenBalance)
	assert.Equal(t, []string{"mint", "transfer", "burn"}, hooks.kinds)
}

func TestHookErrorAbortsMutation(t *testing.T) {
	led := newLedger()
	hooks := &recordingHooks{led: led}
	led.SetHooks(hooks)
	require.NoError(t, led.Mint(accA, big.NewInt(100), 1000))

	hooks.fail = errors.New("bookkeeping rejected")
	err := led.Transfer(accA, accB, big.NewInt(40), 1100)
	assert.EqualError(t, err, "bookkeeping rejected")

	assert.Equal(t, big.NewInt(100), balanceOf(t, led, accA))
	assert.Equal(t, 0, balanceOf(t, led, accB).Sign())

	err = led.Mint(accB, big.NewInt(1), 1200)
	assert.EqualError(t, err, "bookkeeping rejected")
	supply, err2 := led.TotalSupply()
	require.NoError(t, err2)
	assert.Equal(t, big.NewInt(100), supply)
}

func TestAccountAtOutOfRange(t *testing.T) {
	led := newLedger()

	_, err := led.AccountAt(0)
	assert.Error(t, err)

	require.NoError(t, led.Mint(accA, big.NewInt(1), 1000))
	_, err = led.AccountAt(1)
	assert.Error(t, err)
}
