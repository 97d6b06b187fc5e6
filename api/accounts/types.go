// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/buck-labs/buck-v1-sub000/buck"
	"github.com/buck-labs/buck-v1-sub000/rewards"
)

// AccountState is the holder record settled to the time of the request.
type AccountState struct {
	Balance         *math.HexOrDecimal256 `json:"balance"`
	Units           *math.HexOrDecimal256 `json:"units"`
	Claimable       *math.HexOrDecimal256 `json:"claimable"`
	DebtIndex       *math.HexOrDecimal256 `json:"debtIndex"`
	FoldedReports   uint64                `json:"foldedReports"`
	EligibleFrom    uint64                `json:"eligibleFrom"`
	Excluded        bool                  `json:"excluded"`
	LastAccrualTime uint64                `json:"lastAccrualTime"`
}

func convertAccountState(state *rewards.AccountState) *AccountState {
	return &AccountState{
		Balance:         (*math.HexOrDecimal256)(state.Balance),
		Units:           (*math.HexOrDecimal256)(state.Units),
		Claimable:       (*math.HexOrDecimal256)(state.Claimable),
		DebtIndex:       (*math.HexOrDecimal256)(state.DebtIndex),
		FoldedReports:   state.FoldedReports,
		EligibleFrom:    state.EligibleFrom,
		Excluded:        state.Excluded,
		LastAccrualTime: state.LastAccrualTime,
	}
}

// PendingRewards previews what a claim would pay out right now.
type PendingRewards struct {
	Amount *math.HexOrDecimal256 `json:"amount"`
}

// Payout is the result of an executed claim.
type Payout struct {
	Amount *math.HexOrDecimal256 `json:"amount"`
}

// ExclusionRequest flips reward participation of the holder in the path.
type ExclusionRequest struct {
	Caller   buck.Address `json:"caller"`
	Excluded bool         `json:"excluded"`
}
