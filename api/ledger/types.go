// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/buck-labs/buck-v1-sub000/buck"
)

// TransferRequest moves tokens between holders.
type TransferRequest struct {
	From   buck.Address          `json:"from"`
	To     buck.Address          `json:"to"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

// MintRequest credits freshly issued tokens to a holder.
type MintRequest struct {
	To     buck.Address          `json:"to"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

// BurnRequest destroys tokens held by a holder.
type BurnRequest struct {
	From   buck.Address          `json:"from"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

// Supply is the outstanding token supply.
type Supply struct {
	TotalSupply *math.HexOrDecimal256 `json:"totalSupply"`
}
