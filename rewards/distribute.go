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

// Distribute settles the most recently ended epoch: the coupon converts to
// gross tokens at the CAP price, the skim goes to the treasury, and the net
// amount plus carried dust spreads over the outstanding unit pools as a
// reward index delta. The breakage share of the pools mints to the sink
// right away; holder shares stay claimable. Epochs skipped in between are
// swept into the same settlement.
//
// With an empty denominator the net amount carries forward as dust and the
// report records a zero allocation.
func (e *Engine) Distribute(caller buck.Address, coupon *big.Int, now uint64) (*epochs.Report, error) {
	if err := e.requireDistributor(caller); err != nil {
		countRevert(err)
		return nil, err
	}
	if coupon == nil || coupon.Sign() < 0 {
		return nil, reverts.InvalidConfig("coupon amount cannot be negative")
	}
	logger.Debug("distributing", "caller", caller, "coupon", coupon, "now", now)

	var report *epochs.Report
	err := e.runAtomic(func() error {
		var err error
		report, err = e.distribute(coupon, now)
		return err
	})
	if err != nil {
		countRevert(err)
		logger.Info("distribute failed", "caller", caller, "error", err)
		return nil, err
	}

	metricsDistributionCount().Add(1)
	logger.Info("distributed epoch",
		"epoch", report.Epoch,
		"deltaIndex", report.DeltaIndex,
		"denominatorUnits", report.DenominatorUnits,
		"tokensAllocated", report.TokensAllocated,
		"dustCarried", report.DustCarried,
	)
	return report, nil
}

func (e *Engine) distribute(coupon *big.Int, now uint64) (*epochs.Report, error) {
	if err := e.accrual.SettleGlobal(now); err != nil {
		return nil, err
	}
	// the accrual frontier never moves backwards, so a stale timestamp
	// settles at the frontier instead of re-opening accrued time
	frontier, err := e.stats.LastUpdateTime()
	if err != nil {
		return nil, err
	}
	if now < frontier {
		now = frontier
	}

	target, err := e.epochs.LastEndedAt(now)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, reverts.EpochNotEnded("no epoch has ended by %d", now)
	}
	through, err := e.epochs.DistributedThrough()
	if err != nil {
		return nil, err
	}
	if through >= target.ID {
		return nil, reverts.AlreadyDistributed(target.ID)
	}

	if err := e.policy.RefreshBand(now); err != nil {
		return nil, err
	}
	price, err := e.policy.CAPPrice()
	if err != nil {
		return nil, err
	}
	if price.Sign() <= 0 {
		return nil, reverts.InvalidConfig("cap price not available")
	}
	blockOnDepeg, err := e.blockDistributeOnDepeg.Get()
	if err != nil {
		return nil, err
	}
	if blockOnDepeg && price.Cmp(buck.ParPrice) < 0 {
		return nil, reverts.DistributionBlockedDuringDepeg(price, buck.ParPrice)
	}

	// coupon -> tokens at the CAP price, then the treasury skim
	gross := new(big.Int).Mul(coupon, buck.PriceScale)
	gross.Div(gross, price)

	skimBps, err := e.policy.DistributionSkimBps()
	if err != nil {
		return nil, err
	}
	if skimBps > buck.BpsDenominator {
		return nil, reverts.InvalidConfig("skim bps %d out of range [0, %d]", skimBps, buck.BpsDenominator)
	}
	skim := new(big.Int).SetUint64(skimBps)
	skim.Mul(skim, gross)
	skim.Div(skim, new(big.Int).SetUint64(buck.BpsDenominator))

	dustIn, err := e.stats.DustCarry()
	if err != nil {
		return nil, err
	}
	net := new(big.Int).Sub(gross, skim)
	net.Add(net, dustIn)

	pools, err := e.stats.UnitPools()
	if err != nil {
		return nil, err
	}
	denominator := pools.Denominator()

	deltaIndex := new(big.Int)
	tokensAllocated := new(big.Int)
	sinkPayout := new(big.Int)
	dustOut := new(big.Int).Set(net)
	if denominator.Sign() > 0 {
		deltaIndex.Mul(net, buck.RewardIndexScale)
		deltaIndex.Div(deltaIndex, denominator)
		tokensAllocated.Mul(denominator, deltaIndex)
		tokensAllocated.Div(tokensAllocated, buck.RewardIndexScale)
		dustOut.Sub(net, tokensAllocated)
		sinkPayout.Mul(pools.BreakageUnits(), deltaIndex)
		sinkPayout.Div(sinkPayout, buck.RewardIndexScale)
	}

	maxMint, err := e.maxMintPerEpoch.Get()
	if err != nil {
		return nil, err
	}
	if maxMint.Sign() > 0 {
		total := new(big.Int).Add(tokensAllocated, skim)
		if total.Cmp(maxMint) > 0 {
			return nil, reverts.MaxTokensPerEpochExceeded(total, maxMint)
		}
	}

	treasury, err := e.treasury.Get()
	if err != nil {
		return nil, err
	}
	if skim.Sign() > 0 && treasury.IsZero() {
		return nil, reverts.InvalidConfig("treasury not set")
	}
	sink, err := e.breakageSink.Get()
	if err != nil {
		return nil, err
	}
	if sinkPayout.Sign() > 0 && sink.IsZero() {
		return nil, reverts.InvalidConfig("breakage sink not set")
	}

	// engine state settles before any mint can re-enter the hooks
	if deltaIndex.Sign() > 0 {
		if err := e.stats.AddRewardIndex(deltaIndex); err != nil {
			return nil, err
		}
	}
	e.stats.ResetUnitPools()
	e.stats.SetDustCarry(dustOut)
	if tokensAllocated.Sign() > 0 {
		if err := e.stats.AddRewardsDeclared(tokensAllocated); err != nil {
			return nil, err
		}
	}
	if sinkPayout.Sign() > 0 {
		if err := e.stats.AddRewardsClaimed(sinkPayout); err != nil {
			return nil, err
		}
	}
	if err := e.epochs.MarkDistributedThrough(target.ID); err != nil {
		return nil, err
	}
	report := &epochs.Report{
		Epoch:            target.ID,
		DistributionTime: now,
		DeltaIndex:       deltaIndex,
		DenominatorUnits: denominator,
		TokensAllocated:  tokensAllocated,
		DustCarried:      dustOut,
	}
	if err := e.epochs.AddReport(report); err != nil {
		return nil, err
	}

	if skim.Sign() > 0 {
		if err := e.minter.Mint(treasury, skim, now); err != nil {
			return nil, err
		}
	}
	if sinkPayout.Sign() > 0 {
		if err := e.minter.Mint(sink, sinkPayout, now); err != nil {
			return nil, err
		}
	}
	return report, nil
}

func countRevert(err error) {
	if code := reverts.CodeOf(err); code != "" {
		metricsRevertCount().AddWithLabel(1, map[string]string{"code": string(code)})
	}
}
