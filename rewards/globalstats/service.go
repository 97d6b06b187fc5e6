// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package globalstats

import (
	"math/big"

	"github.com/buck-labs/buck-v1-sub000/rewards/storage"
)

const (
	slotEligibleUnits        = "eligible-units"
	slotTreasuryBreakage     = "treasury-breakage-units"
	slotFutureBreakage       = "future-breakage-units"
	slotTotalBreakage        = "total-breakage-units"
	slotRewardIndex          = "reward-index"
	slotDustCarry            = "dust-carry"
	slotTotalExcludedSupply  = "total-excluded-supply"
	slotLateEntrySupply      = "late-entry-supply"
	slotLateEntryEpoch       = "late-entry-epoch"
	slotTotalRewardsDeclared = "total-rewards-declared"
	slotTotalRewardsClaimed  = "total-rewards-claimed"
	slotLastUpdateTime       = "last-update-time"
)

// UnitPools are the unit balances a distribution settles against. The
// denominator of the reward index delta is their sum.
type UnitPools struct {
	Eligible         *big.Int
	TreasuryBreakage *big.Int
	FutureBreakage   *big.Int
}

// Denominator returns the sum of all pools.
func (p *UnitPools) Denominator() *big.Int {
	d := new(big.Int).Add(p.Eligible, p.TreasuryBreakage)
	return d.Add(d, p.FutureBreakage)
}

// BreakageUnits returns the routed portion of the pools, paid to the sink.
func (p *UnitPools) BreakageUnits() *big.Int {
	return new(big.Int).Add(p.TreasuryBreakage, p.FutureBreakage)
}

// Service manages the engine-wide accounting totals.
// Unit pools track outstanding accrual since the last distribution, supply
// counters track the slices of total supply excluded from or waiting for
// eligibility, and the reward counters track declared versus paid rewards.
type Service struct {
	eligibleUnits    *storage.Uint256
	treasuryBreakage *storage.Uint256
	futureBreakage   *storage.Uint256
	totalBreakage    *storage.Uint256

	rewardIndex *storage.Uint256
	dustCarry   *storage.Uint256

	totalExcludedSupply *storage.Uint256
	lateEntrySupply     *storage.Uint256
	lateEntryEpoch      *storage.Uint64

	totalRewardsDeclared *storage.Uint256
	totalRewardsClaimed  *storage.Uint256

	lastUpdateTime *storage.Uint64
}

func New(sctx *storage.Context) *Service {
	return &Service{
		eligibleUnits:        storage.NewUint256(sctx, slotEligibleUnits),
		treasuryBreakage:     storage.NewUint256(sctx, slotTreasuryBreakage),
		futureBreakage:       storage.NewUint256(sctx, slotFutureBreakage),
		totalBreakage:        storage.NewUint256(sctx, slotTotalBreakage),
		rewardIndex:          storage.NewUint256(sctx, slotRewardIndex),
		dustCarry:            storage.NewUint256(sctx, slotDustCarry),
		totalExcludedSupply:  storage.NewUint256(sctx, slotTotalExcludedSupply),
		lateEntrySupply:      storage.NewUint256(sctx, slotLateEntrySupply),
		lateEntryEpoch:       storage.NewUint64(sctx, slotLateEntryEpoch),
		totalRewardsDeclared: storage.NewUint256(sctx, slotTotalRewardsDeclared),
		totalRewardsClaimed:  storage.NewUint256(sctx, slotTotalRewardsClaimed),
		lastUpdateTime:       storage.NewUint64(sctx, slotLastUpdateTime),
	}
}

// EligibleUnits returns the outstanding eligible units since the last
// distribution.
func (s *Service) EligibleUnits() (*big.Int, error) {
	return s.eligibleUnits.Get()
}

// AddEligibleUnits credits units accrued by eligible holders.
func (s *Service) AddEligibleUnits(units *big.Int) error {
	return s.eligibleUnits.Add(units)
}

// ForfeitEligibleUnits moves units out of the eligible pool into the
// treasury breakage pool, used when an account gets excluded mid-epoch.
func (s *Service) ForfeitEligibleUnits(units *big.Int) error {
	if err := s.eligibleUnits.Sub(units); err != nil {
		return err
	}
	if err := s.treasuryBreakage.Add(units); err != nil {
		return err
	}
	return s.totalBreakage.Add(units)
}

// RouteFutureBreakage books units a seller walked away from after the
// checkpoint, to be paid to the sink at distribution.
func (s *Service) RouteFutureBreakage(units *big.Int) error {
	if err := s.futureBreakage.Add(units); err != nil {
		return err
	}
	return s.totalBreakage.Add(units)
}

// UnitPools returns all unit pools at once.
func (s *Service) UnitPools() (*UnitPools, error) {
	eligible, err := s.eligibleUnits.Get()
	if err != nil {
		return nil, err
	}
	treasury, err := s.treasuryBreakage.Get()
	if err != nil {
		return nil, err
	}
	future, err := s.futureBreakage.Get()
	if err != nil {
		return nil, err
	}
	return &UnitPools{
		Eligible:         eligible,
		TreasuryBreakage: treasury,
		FutureBreakage:   future,
	}, nil
}

// ResetUnitPools zeroes all unit pools after a distribution consumed them.
func (s *Service) ResetUnitPools() {
	zero := new(big.Int)
	s.eligibleUnits.Set(zero)
	s.treasuryBreakage.Set(zero)
	s.futureBreakage.Set(zero)
}

// TotalBreakageUnits returns the cumulative units ever routed to breakage.
func (s *Service) TotalBreakageUnits() (*big.Int, error) {
	return s.totalBreakage.Get()
}

// RewardIndex returns the cumulative reward index, scaled by
// buck.RewardIndexScale.
func (s *Service) RewardIndex() (*big.Int, error) {
	return s.rewardIndex.Get()
}

// AddRewardIndex advances the reward index by a distribution's delta.
func (s *Service) AddRewardIndex(delta *big.Int) error {
	return s.rewardIndex.Add(delta)
}

// DustCarry returns the remainder tokens carried into the next distribution.
func (s *Service) DustCarry() (*big.Int, error) {
	return s.dustCarry.Get()
}

// SetDustCarry replaces the carried remainder.
func (s *Service) SetDustCarry(dust *big.Int) {
	s.dustCarry.Set(dust)
}

// TotalExcludedSupply returns the balance sum of excluded accounts.
func (s *Service) TotalExcludedSupply() (*big.Int, error) {
	return s.totalExcludedSupply.Get()
}

func (s *Service) AddExcludedSupply(amount *big.Int) error {
	return s.totalExcludedSupply.Add(amount)
}

func (s *Service) SubExcludedSupply(amount *big.Int) error {
	return s.totalExcludedSupply.Sub(amount)
}

// LateEntry returns the balance sum waiting for its entry epoch to start,
// and the epoch id it activates at.
func (s *Service) LateEntry() (*big.Int, uint64, error) {
	supply, err := s.lateEntrySupply.Get()
	if err != nil {
		return nil, 0, err
	}
	epoch, err := s.lateEntryEpoch.Get()
	if err != nil {
		return nil, 0, err
	}
	return supply, epoch, nil
}

// AddLateEntrySupply parks balance until the given epoch starts. All parked
// balance shares one activation epoch: pending balance is activated by the
// settlement walk before any park targeting a later epoch can happen.
func (s *Service) AddLateEntrySupply(amount *big.Int, epoch uint64) error {
	if err := s.lateEntrySupply.Add(amount); err != nil {
		return err
	}
	s.lateEntryEpoch.Set(epoch)
	return nil
}

// SubLateEntrySupply removes balance that left a parked account.
func (s *Service) SubLateEntrySupply(amount *big.Int) error {
	return s.lateEntrySupply.Sub(amount)
}

// ResetLateEntry activates all parked balance.
func (s *Service) ResetLateEntry() {
	s.lateEntrySupply.Set(new(big.Int))
	s.lateEntryEpoch.Set(0)
}

// TotalRewardsDeclared returns the cumulative tokens allocated by
// distributions.
func (s *Service) TotalRewardsDeclared() (*big.Int, error) {
	return s.totalRewardsDeclared.Get()
}

func (s *Service) AddRewardsDeclared(amount *big.Int) error {
	return s.totalRewardsDeclared.Add(amount)
}

// TotalRewardsClaimed returns the cumulative tokens paid out of declared
// rewards, sink payouts included.
func (s *Service) TotalRewardsClaimed() (*big.Int, error) {
	return s.totalRewardsClaimed.Get()
}

func (s *Service) AddRewardsClaimed(amount *big.Int) error {
	return s.totalRewardsClaimed.Add(amount)
}

// LastUpdateTime returns the global settlement frontier.
func (s *Service) LastUpdateTime() (uint64, error) {
	return s.lastUpdateTime.Get()
}

func (s *Service) SetLastUpdateTime(now uint64) {
	s.lastUpdateTime.Set(now)
}
