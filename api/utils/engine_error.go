// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"errors"

	"github.com/buck-labs/buck-v1-sub000/ledger"
	"github.com/buck-labs/buck-v1-sub000/rewards/reverts"
)

// ConvertEngineError maps engine and ledger failures to http errors.
// Reverts caused by the request carry a 4xx status; anything else passes
// through and is responded as an internal error.
func ConvertEngineError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ledger.ErrNegativeAmount), errors.Is(err, ledger.ErrZeroAddress):
		return BadRequest(err)
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return Conflict(err)
	}
	switch reverts.CodeOf(err) {
	case "":
		return err
	case reverts.CodeUnauthorized, reverts.CodeAccountExcluded:
		return Forbidden(err)
	case reverts.CodeInvalidConfig:
		return BadRequest(err)
	default:
		// guard rejections and state conflicts: the request was well formed
		// but the engine refused it at this moment
		return Conflict(err)
	}
}
