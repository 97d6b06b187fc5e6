// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accrual

import "math/big"

// Account is the per-holder accrual record. Units accumulate lazily: the
// record is only brought up to date when the holder's balance changes, when
// it claims, or when a view asks for it.
type Account struct {
	// LastAccrualTime is the account's settlement frontier.
	LastAccrualTime uint64

	// Units accrued since the last distribution the account absorbed.
	Units *big.Int

	// Claimable tokens from absorbed distributions, not yet claimed.
	Claimable *big.Int

	// DebtIndex is the reward index value the account has absorbed up to.
	DebtIndex *big.Int

	// FoldedReports counts the distribution reports absorbed so far.
	FoldedReports uint64

	// EligibleFrom is the first epoch id the account accrues in.
	EligibleFrom uint64

	// Excluded accounts neither accrue nor claim.
	Excluded bool
}

// normalize allocates the big.Int fields of records loaded from an empty
// slot, so callers can mutate them in place.
func (a *Account) normalize() *Account {
	if a.Units == nil {
		a.Units = new(big.Int)
	}
	if a.Claimable == nil {
		a.Claimable = new(big.Int)
	}
	if a.DebtIndex == nil {
		a.DebtIndex = new(big.Int)
	}
	return a
}
