// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger implements the reference token ledger the rewards engine
// accounts over. Balances and total supply live in the same state the engine
// writes to, so a hook failure unwinds the balance mutation and the
// bookkeeping together.
package ledger

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"

	"github.com/buck-labs/buck-v1-sub000/buck"
	"github.com/buck-labs/buck-v1-sub000/log"
	"github.com/buck-labs/buck-v1-sub000/rewards/storage"
	"github.com/buck-labs/buck-v1-sub000/state"
)

var logger = log.WithContext("pkg", "ledger")

func SetLogger(l log.Logger) {
	logger = l
}

var (
	ErrNegativeAmount      = errors.New("amount cannot be negative")
	ErrZeroAddress         = errors.New("address cannot be the zero address")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

const (
	slotBalances     = "balances"
	slotTotalSupply  = "total-supply"
	slotAccountCount = "account-count"
	slotAccountIndex = "account-index"
	slotKnownAccount = "known-account"
)

// index adapts an account index to a mapping key.
type index uint64

func (i index) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(i))
	return b[:]
}

// Hooks observes balance mutations before they apply. The rewards engine
// implements these; reads it performs inside a hook see pre-mutation
// balances and supply. A hook error aborts the mutation.
type Hooks interface {
	OnTransfer(from, to buck.Address, amount *big.Int, now uint64) error
	OnMint(to buck.Address, amount *big.Int, now uint64) error
	OnBurn(from buck.Address, amount *big.Int, now uint64) error
}

// Ledger is the balance book. Every account ever credited is indexed so
// offline checks can walk the full holder set.
type Ledger struct {
	addr  buck.Address
	state *state.State
	hooks Hooks

	balances     *storage.Mapping[buck.Address, *big.Int]
	totalSupply  *storage.Uint256
	accountCount *storage.Uint64
	accountIndex *storage.Mapping[index, buck.Address]
	knownAccount *storage.Mapping[buck.Address, bool]
}

// New creates a ledger instance over the given state, keyed by addr.
func New(addr buck.Address, st *state.State) *Ledger {
	sctx := storage.NewContext(addr, st)
	return &Ledger{
		addr:  addr,
		state: st,

		balances:     storage.NewMapping[buck.Address, *big.Int](sctx, slotBalances),
		totalSupply:  storage.NewUint256(sctx, slotTotalSupply),
		accountCount: storage.NewUint64(sctx, slotAccountCount),
		accountIndex: storage.NewMapping[index, buck.Address](sctx, slotAccountIndex),
		knownAccount: storage.NewMapping[buck.Address, bool](sctx, slotKnownAccount),
	}
}

// SetHooks wires the mutation observer. The ledger and the engine reference
// each other, so the engine is constructed over the bare ledger first and the
// hooks attach here afterwards. Mutations before that bypass bookkeeping.
func (l *Ledger) SetHooks(h Hooks) {
	l.hooks = h
}

// Address returns the state address the ledger stores under.
func (l *Ledger) Address() buck.Address {
	return l.addr
}

//
// Getters - no state change
//

// BalanceOf returns the balance of an account, zero when never credited.
func (l *Ledger) BalanceOf(addr buck.Address) (*big.Int, error) {
	return l.balances.Get(addr)
}

// TotalSupply returns the circulating supply.
func (l *Ledger) TotalSupply() (*big.Int, error) {
	return l.totalSupply.Get()
}

// AccountCount returns the number of accounts ever credited.
func (l *Ledger) AccountCount() (uint64, error) {
	return l.accountCount.Get()
}

// AccountAt returns the credited account at the given 0-based index.
func (l *Ledger) AccountAt(i uint64) (buck.Address, error) {
	count, err := l.accountCount.Get()
	if err != nil {
		return buck.Address{}, err
	}
	if i >= count {
		return buck.Address{}, errors.Errorf("account index %d out of range [0, %d)", i, count)
	}
	return l.accountIndex.Get(index(i))
}

//
// Setters - state change
//

// Transfer moves amount between accounts at now.
func (l *Ledger) Transfer(from, to buck.Address, amount *big.Int, now uint64) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	if from.IsZero() || to.IsZero() {
		return ErrZeroAddress
	}
	err := l.runAtomic(func() error {
		if l.hooks != nil {
			if err := l.hooks.OnTransfer(from, to, amount, now); err != nil {
				return err
			}
		}
		if err := l.debit(from, amount); err != nil {
			return err
		}
		if err := l.credit(to, amount); err != nil {
			return err
		}
		return l.track(to)
	})
	if err != nil {
		logger.Info("transfer failed", "from", from, "to", to, "amount", amount, "error", err)
		return err
	}
	logger.Debug("transferred", "from", from, "to", to, "amount", amount, "now", now)
	return nil
}

// Mint credits newly issued tokens to an account at now.
func (l *Ledger) Mint(to buck.Address, amount *big.Int, now uint64) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	if to.IsZero() {
		return ErrZeroAddress
	}
	err := l.runAtomic(func() error {
		if l.hooks != nil {
			if err := l.hooks.OnMint(to, amount, now); err != nil {
				return err
			}
		}
		if err := l.credit(to, amount); err != nil {
			return err
		}
		if err := l.totalSupply.Add(amount); err != nil {
			return err
		}
		return l.track(to)
	})
	if err != nil {
		logger.Info("mint failed", "to", to, "amount", amount, "error", err)
		return err
	}
	logger.Debug("minted", "to", to, "amount", amount, "now", now)
	return nil
}

// Burn removes tokens from an account and from the supply at now.
func (l *Ledger) Burn(from buck.Address, amount *big.Int, now uint64) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	if from.IsZero() {
		return ErrZeroAddress
	}
	err := l.runAtomic(func() error {
		if l.hooks != nil {
			if err := l.hooks.OnBurn(from, amount, now); err != nil {
				return err
			}
		}
		if err := l.debit(from, amount); err != nil {
			return err
		}
		return l.totalSupply.Sub(amount)
	})
	if err != nil {
		logger.Info("burn failed", "from", from, "amount", amount, "error", err)
		return err
	}
	logger.Debug("burned", "from", from, "amount", amount, "now", now)
	return nil
}

// runAtomic runs a mutation against a state checkpoint and unwinds every
// write, the hooks' included, when it fails.
func (l *Ledger) runAtomic(fn func() error) error {
	checkpoint := l.state.NewCheckpoint()
	if err := fn(); err != nil {
		l.state.RevertTo(checkpoint)
		return err
	}
	return nil
}

func (l *Ledger) credit(addr buck.Address, amount *big.Int) error {
	balance, err := l.balances.Get(addr)
	if err != nil {
		return err
	}
	return l.balances.Set(addr, balance.Add(balance, amount))
}

func (l *Ledger) debit(addr buck.Address, amount *big.Int) error {
	balance, err := l.balances.Get(addr)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return errors.Wrapf(ErrInsufficientBalance, "balance %v, need %v", balance, amount)
	}
	return l.balances.Set(addr, balance.Sub(balance, amount))
}

// track registers an account in the enumeration index the first time it
// receives a credit.
func (l *Ledger) track(addr buck.Address) error {
	known, err := l.knownAccount.Get(addr)
	if err != nil {
		return err
	}
	if known {
		return nil
	}
	count, err := l.accountCount.Get()
	if err != nil {
		return err
	}
	if err := l.accountIndex.Set(index(count), addr); err != nil {
		return err
	}
	if err := l.knownAccount.Set(addr, true); err != nil {
		return err
	}
	l.accountCount.Set(count + 1)
	return nil
}

func validAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	return nil
}
