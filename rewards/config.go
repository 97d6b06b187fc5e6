// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math/big"

	"github.com/buck-labs/buck-v1-sub000/buck"
	"github.com/buck-labs/buck-v1-sub000/rewards/epochs"
	"github.com/buck-labs/buck-v1-sub000/rewards/reverts"
)

func (e *Engine) requireAdmin(caller buck.Address) error {
	admin, err := e.admin.Get()
	if err != nil {
		return err
	}
	if admin.IsZero() || admin != caller {
		return reverts.Unauthorized(caller, "admin")
	}
	return nil
}

// requireDistributor passes for the distributor role and for the admin.
func (e *Engine) requireDistributor(caller buck.Address) error {
	admin, err := e.admin.Get()
	if err != nil {
		return err
	}
	if !admin.IsZero() && admin == caller {
		return nil
	}
	distributor, err := e.distributor.Get()
	if err != nil {
		return err
	}
	if !distributor.IsZero() && distributor == caller {
		return nil
	}
	return reverts.Unauthorized(caller, "distributor")
}

//
// Setters - state change
//

// SetAdmin transfers the admin role. The first assignment is open so genesis
// can seed the role; afterwards only the current admin may hand it over.
func (e *Engine) SetAdmin(caller, admin buck.Address) error {
	current, err := e.admin.Get()
	if err != nil {
		return err
	}
	if !current.IsZero() {
		if err := e.requireAdmin(caller); err != nil {
			return err
		}
	}
	if admin.IsZero() {
		return reverts.InvalidConfig("admin cannot be the zero address")
	}
	e.admin.Set(&admin)
	logger.Info("admin set", "admin", admin)
	return nil
}

// SetDistributor grants the distribution role. The zero address revokes it.
func (e *Engine) SetDistributor(caller, distributor buck.Address) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if distributor.IsZero() {
		e.distributor.Set(nil)
	} else {
		e.distributor.Set(&distributor)
	}
	logger.Info("distributor set", "distributor", distributor)
	return nil
}

// SetTreasury sets the account the distribution skim mints to.
func (e *Engine) SetTreasury(caller, treasury buck.Address) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if treasury.IsZero() {
		e.treasury.Set(nil)
	} else {
		e.treasury.Set(&treasury)
	}
	logger.Info("treasury set", "treasury", treasury)
	return nil
}

// SetBreakageSink sets the account breakage payouts mint to and excludes it
// from accrual. The previous sink, if any, stays excluded until the admin
// re-includes it explicitly.
func (e *Engine) SetBreakageSink(caller, sink buck.Address, now uint64) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if sink.IsZero() {
		return reverts.InvalidConfig("breakage sink cannot be the zero address")
	}
	return e.runAtomic(func() error {
		e.breakageSink.Set(&sink)
		changed, _, err := e.accrual.SetExcluded(sink, true, now)
		if err != nil {
			return err
		}
		logger.Info("breakage sink set", "sink", sink, "newlyExcluded", changed)
		return nil
	})
}

// SetAccountExcluded flips accrual exclusion of an account. Excluding
// forfeits the account's outstanding units to the treasury breakage pool;
// re-including puts its balance through the entry gate. Claimable rewards
// survive either way. An unchanged flag is a silent no-op.
func (e *Engine) SetAccountExcluded(caller, addr buck.Address, excluded bool, now uint64) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	return e.runAtomic(func() error {
		changed, forfeited, err := e.accrual.SetExcluded(addr, excluded, now)
		if err != nil {
			logger.Info("set account excluded failed", "addr", addr, "error", err)
			return err
		}
		if !changed {
			return nil
		}
		metricsExclusionCount().Add(1)
		logger.Info("account exclusion changed", "addr", addr, "excluded", excluded, "forfeitedUnits", forfeited)
		return nil
	})
}

// ConfigureEpoch appends an epoch to the schedule. Epochs are append-only:
// the id must continue the sequence and the window must sit entirely after
// the previous epoch and end in the future.
func (e *Engine) ConfigureEpoch(caller buck.Address, epoch *epochs.Epoch, now uint64) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	return e.runAtomic(func() error {
		if err := e.accrual.SettleGlobal(now); err != nil {
			return err
		}
		if err := e.epochs.Add(epoch, now); err != nil {
			logger.Info("configure epoch failed", "id", epoch.ID, "error", err)
			return err
		}
		logger.Info("epoch configured",
			"id", epoch.ID,
			"start", epoch.StartTime,
			"checkpointStart", epoch.CheckpointStart,
			"checkpointEnd", epoch.CheckpointEnd,
			"end", epoch.EndTime,
		)
		return nil
	})
}

// SetEnforceCROnClaim toggles the collateral-ratio headroom guard on claims.
func (e *Engine) SetEnforceCROnClaim(caller buck.Address, enforce bool) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	e.enforceCROnClaim.Set(enforce)
	logger.Info("enforce CR on claim set", "enforce", enforce)
	return nil
}

// SetBlockDistributeOnDepeg toggles the depeg guard on distributions.
func (e *Engine) SetBlockDistributeOnDepeg(caller buck.Address, block bool) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	e.blockDistributeOnDepeg.Set(block)
	logger.Info("block distribute on depeg set", "block", block)
	return nil
}

// SetMaxClaimTokensPerTx caps single claim payouts. Zero removes the cap.
func (e *Engine) SetMaxClaimTokensPerTx(caller buck.Address, limit *big.Int) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if limit == nil || limit.Sign() < 0 {
		return reverts.InvalidConfig("max claim tokens per tx cannot be negative")
	}
	e.maxClaimPerTx.Set(limit)
	logger.Info("max claim tokens per tx set", "limit", limit)
	return nil
}

// SetMaxTokensToMintPerEpoch caps the tokens a distribution may mint,
// allocation and skim combined. Zero removes the cap.
func (e *Engine) SetMaxTokensToMintPerEpoch(caller buck.Address, limit *big.Int) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if limit == nil || limit.Sign() < 0 {
		return reverts.InvalidConfig("max tokens to mint per epoch cannot be negative")
	}
	e.maxMintPerEpoch.Set(limit)
	logger.Info("max tokens to mint per epoch set", "limit", limit)
	return nil
}

// SetMaxAttestationAge sets the staleness limit of CR attestations. Zero
// restores the protocol default.
func (e *Engine) SetMaxAttestationAge(caller buck.Address, age uint64) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	e.maxAttestationAge.Set(age)
	logger.Info("max attestation age set", "age", age)
	return nil
}
