// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math/big"

	"github.com/buck-labs/buck-v1-sub000/buck"
)

// The ledger calls these hooks before applying each balance mutation, so the
// bookkeeping still sees pre-mutation balances and supply. Amounts are
// validated by the ledger; hooks run inside the ledger's atomic scope and an
// error here aborts the whole mutation.

// OnTransfer books a balance move from one account to another.
func (e *Engine) OnTransfer(from, to buck.Address, amount *big.Int, now uint64) error {
	if amount.Sign() == 0 || from == to {
		return nil
	}
	forfeited, err := e.accrual.ApplyDecrease(from, amount, now)
	if err != nil {
		return err
	}
	entry, late, err := e.accrual.ApplyIncrease(to, amount, now)
	if err != nil {
		return err
	}
	metricsHookCount().AddWithLabel(1, map[string]string{"kind": "transfer"})
	logger.Debug("transfer booked",
		"from", from, "to", to, "amount", amount,
		"forfeitedUnits", forfeited, "entryEpoch", entry, "late", late,
	)
	return nil
}

// OnMint books supply entering circulation.
func (e *Engine) OnMint(to buck.Address, amount *big.Int, now uint64) error {
	if amount.Sign() == 0 {
		return nil
	}
	entry, late, err := e.accrual.ApplyIncrease(to, amount, now)
	if err != nil {
		return err
	}
	metricsHookCount().AddWithLabel(1, map[string]string{"kind": "mint"})
	logger.Debug("mint booked", "to", to, "amount", amount, "entryEpoch", entry, "late", late)
	return nil
}

// OnBurn books supply leaving circulation.
func (e *Engine) OnBurn(from buck.Address, amount *big.Int, now uint64) error {
	if amount.Sign() == 0 {
		return nil
	}
	forfeited, err := e.accrual.ApplyDecrease(from, amount, now)
	if err != nil {
		return err
	}
	metricsHookCount().AddWithLabel(1, map[string]string{"kind": "burn"})
	logger.Debug("burn booked", "from", from, "amount", amount, "forfeitedUnits", forfeited)
	return nil
}
