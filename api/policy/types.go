// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package policy

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/buck-labs/buck-v1-sub000/buck"
	"github.com/buck-labs/buck-v1-sub000/policy"
)

// Snapshot is every policy slot read at once.
type Snapshot struct {
	Admin           buck.Address          `json:"admin"`
	PostedPrice     *math.HexOrDecimal256 `json:"postedPrice"`
	EffectivePrice  *math.HexOrDecimal256 `json:"effectivePrice"`
	BandAnchorPrice *math.HexOrDecimal256 `json:"bandAnchorPrice"`
	BandRefreshTime uint64                `json:"bandRefreshTime"`
	BandWidthBps    uint64                `json:"bandWidthBps"`
	SkimBps         uint64                `json:"skimBps"`
	CollateralRatio *math.HexOrDecimal256 `json:"collateralRatio"`
	AttestationTime uint64                `json:"attestationTime"`
}

func convertSnapshot(snapshot *policy.Snapshot) *Snapshot {
	return &Snapshot{
		Admin:           snapshot.Admin,
		PostedPrice:     (*math.HexOrDecimal256)(snapshot.PostedPrice),
		EffectivePrice:  (*math.HexOrDecimal256)(snapshot.EffectivePrice),
		BandAnchorPrice: (*math.HexOrDecimal256)(snapshot.BandAnchorPrice),
		BandRefreshTime: snapshot.BandRefreshTime,
		BandWidthBps:    snapshot.BandWidthBps,
		SkimBps:         snapshot.SkimBps,
		CollateralRatio: (*math.HexOrDecimal256)(snapshot.CollateralRatio),
		AttestationTime: snapshot.AttestationTime,
	}
}

// PriceRequest posts a new oracle price.
type PriceRequest struct {
	Caller buck.Address          `json:"caller"`
	Price  *math.HexOrDecimal256 `json:"price"`
}

// AttestationRequest records a fresh collateral ratio attestation.
type AttestationRequest struct {
	Caller buck.Address          `json:"caller"`
	Ratio  *math.HexOrDecimal256 `json:"ratio"`
}
