// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package buck

import "math/big"

// Constants of the rewards protocol.
const (
	// UnitRate units accrued per base token held per second.
	UnitRate uint64 = 1

	// BpsDenominator basis-point scale used by skim rates.
	BpsDenominator uint64 = 10_000

	// InitialMaxAttestationAge (unit: second) collateral attestations older than
	// this block claims when the CR guard is enforced.
	InitialMaxAttestationAge uint64 = 24 * 60 * 60

	// InitialSkimBps default distribution skim routed to the treasury.
	InitialSkimBps uint64 = 0
)

// Well-known addresses the engine components keep their storage under.
var (
	// RewardsAddress storage namespace of the rewards engine.
	RewardsAddress = BytesToAddress([]byte("buck-rewards"))

	// LedgerAddress storage namespace of the token ledger.
	LedgerAddress = BytesToAddress([]byte("buck-ledger"))

	// PolicyAddress storage namespace of the price and collateral policy.
	PolicyAddress = BytesToAddress([]byte("buck-policy"))

	// GenesisAddress storage namespace of the boot document marker.
	GenesisAddress = BytesToAddress([]byte("buck-genesis"))
)

// Fixed-point scales and initial values of tunable params.
var (
	// RewardIndexScale fixed-point scale of the global reward index.
	// deltaIndex = netAmount * RewardIndexScale / denominatorUnits, floor division.
	RewardIndexScale = big.NewInt(1e18)

	// PriceScale fixed-point scale of the CAP price and the collateral ratio.
	PriceScale = big.NewInt(1e18)

	// ParPrice CAP price at exact peg. Distribution is blocked below par when the
	// depeg guard is on.
	ParPrice = big.NewInt(1e18)
)
