// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math/big"

	"github.com/buck-labs/buck-v1-sub000/buck"
	"github.com/buck-labs/buck-v1-sub000/rewards/reverts"
)

// Claim pays out every reward the holder has absorbed from past
// distributions. The payout mints new tokens, so when the collateral-ratio
// guard is on, it only passes with a fresh attestation and enough CR
// headroom above par to cover it. A claim with nothing pending returns zero
// and mints nothing.
func (e *Engine) Claim(addr buck.Address, now uint64) (*big.Int, error) {
	logger.Debug("claiming", "addr", addr, "now", now)

	var payout *big.Int
	err := e.runAtomic(func() error {
		var err error
		payout, err = e.claim(addr, now)
		return err
	})
	if err != nil {
		countRevert(err)
		logger.Info("claim failed", "addr", addr, "error", err)
		return nil, err
	}

	if payout.Sign() > 0 {
		metricsClaimCount().Add(1)
		logger.Info("claimed", "addr", addr, "amount", payout)
	} else {
		logger.Debug("nothing to claim", "addr", addr)
	}
	return payout, nil
}

func (e *Engine) claim(addr buck.Address, now uint64) (*big.Int, error) {
	reportCount, err := e.epochs.ReportCount()
	if err != nil {
		return nil, err
	}
	if reportCount == 0 {
		return nil, reverts.NoRewardsDeclared()
	}

	acc, err := e.accrual.SettleAccount(addr, now)
	if err != nil {
		return nil, err
	}
	if acc.Excluded {
		return nil, reverts.AccountExcluded(addr)
	}
	pending := new(big.Int).Set(acc.Claimable)
	if pending.Sign() == 0 {
		return pending, nil
	}

	enforceCR, err := e.enforceCROnClaim.Get()
	if err != nil {
		return nil, err
	}
	if enforceCR {
		attested, err := e.policy.AttestationTime()
		if err != nil {
			return nil, err
		}
		maxAge, err := e.attestationAge()
		if err != nil {
			return nil, err
		}
		var age uint64
		if now > attested {
			age = now - attested
		}
		if attested == 0 || age > maxAge {
			return nil, reverts.StaleAttestationForClaim(age, maxAge)
		}

		headroom, err := e.crHeadroom()
		if err != nil {
			return nil, err
		}
		if pending.Cmp(headroom) > 0 {
			return nil, reverts.ClaimExceedsHeadroom(pending, headroom)
		}
	}

	maxClaim, err := e.maxClaimPerTx.Get()
	if err != nil {
		return nil, err
	}
	if maxClaim.Sign() > 0 && pending.Cmp(maxClaim) > 0 {
		return nil, reverts.MaxClaimPerTxExceeded(pending, maxClaim)
	}

	// zero the entitlement before the mint re-enters the hooks
	acc.Claimable = new(big.Int)
	if err := e.accrual.SaveAccount(addr, acc); err != nil {
		return nil, err
	}
	if err := e.stats.AddRewardsClaimed(pending); err != nil {
		return nil, err
	}
	if err := e.minter.Mint(addr, pending, now); err != nil {
		return nil, err
	}
	return pending, nil
}

// crHeadroom returns the tokens mintable before the collateral ratio falls
// to par: totalSupply scaled by the CR's excess over one.
func (e *Engine) crHeadroom() (*big.Int, error) {
	cr, err := e.policy.CollateralRatio()
	if err != nil {
		return nil, err
	}
	if cr.Cmp(buck.PriceScale) <= 0 {
		return new(big.Int), nil
	}
	totalSupply, err := e.ledger.TotalSupply()
	if err != nil {
		return nil, err
	}
	headroom := new(big.Int).Sub(cr, buck.PriceScale)
	headroom.Mul(headroom, totalSupply)
	return headroom.Div(headroom, buck.PriceScale), nil
}
