// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package accrual implements time-weighted unit accounting over the epoch
// schedule. It keeps two views consistent: the global counters in
// globalstats, settled eagerly on every mutation, and the per-account
// records, settled lazily when a holder is touched.
package accrual

import (
	"math/big"

	"github.com/buck-labs/buck-v1-sub000/buck"
	"github.com/buck-labs/buck-v1-sub000/rewards/epochs"
	"github.com/buck-labs/buck-v1-sub000/rewards/globalstats"
	"github.com/buck-labs/buck-v1-sub000/rewards/storage"
)

const slotAccounts = "accounts"

// Ledger supplies the balances the accrual math weights. Balance mutations
// must call into this package before they land, so both BalanceOf and
// TotalSupply still report pre-mutation values during bookkeeping.
type Ledger interface {
	BalanceOf(addr buck.Address) (*big.Int, error)
	TotalSupply() (*big.Int, error)
}

type Service struct {
	epochs   *epochs.Service
	stats    *globalstats.Service
	accounts *storage.Mapping[buck.Address, *Account]
	ledger   Ledger
}

func New(sctx *storage.Context, epochs *epochs.Service, stats *globalstats.Service, ledger Ledger) *Service {
	return &Service{
		epochs:   epochs,
		stats:    stats,
		accounts: storage.NewMapping[buck.Address, *Account](sctx, slotAccounts),
		ledger:   ledger,
	}
}

// GetAccount loads the stored record without settling it. A missing account
// yields a fresh zero record.
func (s *Service) GetAccount(addr buck.Address) (*Account, error) {
	acc, err := s.accounts.Get(addr)
	if err != nil {
		return nil, err
	}
	return acc.normalize(), nil
}

// SaveAccount persists a record mutated by the caller.
func (s *Service) SaveAccount(addr buck.Address, acc *Account) error {
	return s.accounts.Set(addr, acc)
}

// SettleGlobal advances the global accounting frontier to now, accruing
// eligible units over every epoch span the frontier crosses. Parked
// late-entry balance is activated once the frontier reaches its entry epoch.
// A now at or behind the frontier is a no-op.
func (s *Service) SettleGlobal(now uint64) error {
	last, err := s.stats.LastUpdateTime()
	if err != nil {
		return err
	}
	if now <= last {
		return nil
	}

	totalSupply, err := s.ledger.TotalSupply()
	if err != nil {
		return err
	}
	excluded, err := s.stats.TotalExcludedSupply()
	if err != nil {
		return err
	}
	lateSupply, lateEpoch, err := s.stats.LateEntry()
	if err != nil {
		return err
	}
	activeBase := new(big.Int).Sub(totalSupply, excluded)

	accrued := new(big.Int)
	startID, err := s.referenceID(last)
	if err != nil {
		return err
	}
	if startID == 0 {
		startID = 1
	}
	for id := startID; ; id++ {
		e, err := s.epochs.Get(id)
		if err != nil {
			return err
		}
		if e == nil || e.StartTime >= now {
			break
		}
		seconds := e.OverlapSeconds(last, now)
		if seconds == 0 {
			continue
		}
		base := activeBase
		if lateSupply.Sign() > 0 && lateEpoch > e.ID {
			base = new(big.Int).Sub(base, lateSupply)
		}
		if base.Sign() <= 0 {
			continue
		}
		accrued.Add(accrued, unitsOver(base, seconds))
	}
	if accrued.Sign() > 0 {
		if err := s.stats.AddEligibleUnits(accrued); err != nil {
			return err
		}
	}

	if lateEpoch != 0 {
		refID, err := s.referenceID(now)
		if err != nil {
			return err
		}
		if refID >= lateEpoch {
			s.stats.ResetLateEntry()
		}
	}
	s.stats.SetLastUpdateTime(now)
	return nil
}

// SettleAccount folds every distribution the account has not absorbed yet,
// accrues units up to now and persists the record. The ledger balance must
// still be the one held since the account's previous settlement.
func (s *Service) SettleAccount(addr buck.Address, now uint64) (*Account, error) {
	acc, err := s.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	balance, err := s.ledger.BalanceOf(addr)
	if err != nil {
		return nil, err
	}
	if err := s.settle(acc, balance, now); err != nil {
		return nil, err
	}
	if err := s.accounts.Set(addr, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// ApplyIncrease books a balance increase of amount for addr at now, called
// before the ledger credits it. Returns the entry epoch assigned to the
// account and whether the checkpoint gate deferred it to the next one.
func (s *Service) ApplyIncrease(addr buck.Address, amount *big.Int, now uint64) (entry uint64, late bool, err error) {
	now, err = s.settleFrontier(now)
	if err != nil {
		return 0, false, err
	}
	acc, err := s.GetAccount(addr)
	if err != nil {
		return 0, false, err
	}
	balance, err := s.ledger.BalanceOf(addr)
	if err != nil {
		return 0, false, err
	}
	if err := s.settle(acc, balance, now); err != nil {
		return 0, false, err
	}

	if acc.Excluded {
		if err := s.stats.AddExcludedSupply(amount); err != nil {
			return 0, false, err
		}
		return 0, false, s.accounts.Set(addr, acc)
	}

	entry, late, err = s.epochs.EntryEpochAt(now)
	if err != nil {
		return 0, false, err
	}
	refID, err := s.referenceID(now)
	if err != nil {
		return 0, false, err
	}
	wasParked := acc.EligibleFrom > refID
	acc.EligibleFrom = entry
	if entry > refID {
		// The post-increase balance waits for the entry epoch to start.
		// Park whatever is not parked yet; a previously active balance
		// goes back behind the gate whole.
		parked := new(big.Int).Set(amount)
		if !wasParked {
			parked.Add(parked, balance)
		}
		if parked.Sign() > 0 {
			if err := s.stats.AddLateEntrySupply(parked, entry); err != nil {
				return 0, false, err
			}
		}
	}
	return entry, late, s.accounts.Set(addr, acc)
}

// ApplyDecrease books a balance decrease of amount for addr at now, called
// before the ledger debits it. Balance that leaves after the checkpoint
// forfeits the rest of the epoch: the projected units route to the sink at
// distribution. Returns the routed units, zero when no forfeit applies.
func (s *Service) ApplyDecrease(addr buck.Address, amount *big.Int, now uint64) (*big.Int, error) {
	now, err := s.settleFrontier(now)
	if err != nil {
		return nil, err
	}
	acc, err := s.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	balance, err := s.ledger.BalanceOf(addr)
	if err != nil {
		return nil, err
	}
	if err := s.settle(acc, balance, now); err != nil {
		return nil, err
	}

	forfeited := new(big.Int)
	if acc.Excluded {
		if err := s.stats.SubExcludedSupply(amount); err != nil {
			return nil, err
		}
		return forfeited, s.accounts.Set(addr, acc)
	}

	refID, err := s.referenceID(now)
	if err != nil {
		return nil, err
	}
	if acc.EligibleFrom > refID {
		// parked balance leaves before its entry epoch started
		if err := s.stats.SubLateEntrySupply(amount); err != nil {
			return nil, err
		}
		return forfeited, s.accounts.Set(addr, acc)
	}

	e, err := s.epochs.At(now)
	if err != nil {
		return nil, err
	}
	if e != nil && e.InLateWindow(now) {
		forfeited = unitsOver(amount, e.RemainingSeconds(now))
		if forfeited.Sign() > 0 {
			if err := s.stats.RouteFutureBreakage(forfeited); err != nil {
				return nil, err
			}
		}
	}
	return forfeited, s.accounts.Set(addr, acc)
}

// SetExcluded flips the exclusion flag of addr at now. Excluding forfeits
// the account's outstanding units to the treasury pool and removes its
// balance from the active base; re-including puts the balance through the
// entry gate as if newly received. Claimable tokens are kept either way.
// An unchanged flag reports changed=false and mutates nothing but the
// account's settlement frontier.
func (s *Service) SetExcluded(addr buck.Address, excluded bool, now uint64) (changed bool, forfeited *big.Int, err error) {
	now, err = s.settleFrontier(now)
	if err != nil {
		return false, nil, err
	}
	acc, err := s.GetAccount(addr)
	if err != nil {
		return false, nil, err
	}
	balance, err := s.ledger.BalanceOf(addr)
	if err != nil {
		return false, nil, err
	}
	if err := s.settle(acc, balance, now); err != nil {
		return false, nil, err
	}
	if acc.Excluded == excluded {
		return false, nil, s.accounts.Set(addr, acc)
	}

	forfeited = new(big.Int)
	if excluded {
		if acc.Units.Sign() > 0 {
			forfeited.Set(acc.Units)
			if err := s.stats.ForfeitEligibleUnits(acc.Units); err != nil {
				return false, nil, err
			}
			acc.Units = new(big.Int)
		}
		refID, err := s.referenceID(now)
		if err != nil {
			return false, nil, err
		}
		if acc.EligibleFrom > refID && balance.Sign() > 0 {
			if err := s.stats.SubLateEntrySupply(balance); err != nil {
				return false, nil, err
			}
		}
		if err := s.stats.AddExcludedSupply(balance); err != nil {
			return false, nil, err
		}
		acc.Excluded = true
	} else {
		if err := s.stats.SubExcludedSupply(balance); err != nil {
			return false, nil, err
		}
		acc.Excluded = false
		entry, _, err := s.epochs.EntryEpochAt(now)
		if err != nil {
			return false, nil, err
		}
		refID, err := s.referenceID(now)
		if err != nil {
			return false, nil, err
		}
		acc.EligibleFrom = entry
		if entry > refID && balance.Sign() > 0 {
			if err := s.stats.AddLateEntrySupply(balance, entry); err != nil {
				return false, nil, err
			}
		}
	}
	return true, forfeited, s.accounts.Set(addr, acc)
}

// settle brings a record up to now, interleaving distribution folds with
// accrual spans. Every unfolded report sits at or past the record's frontier:
// records fold exhaustively on each settlement, so a report written later
// carries a later timestamp than any frontier that absorbed it.
func (s *Service) settle(acc *Account, balance *big.Int, now uint64) error {
	if now < acc.LastAccrualTime {
		now = acc.LastAccrualTime
	}
	reportCount, err := s.epochs.ReportCount()
	if err != nil {
		return err
	}
	for acc.FoldedReports < reportCount {
		report, err := s.epochs.GetReport(acc.FoldedReports + 1)
		if err != nil {
			return err
		}
		if report.DistributionTime > now {
			break
		}
		if err := s.accrue(acc, balance, report.DistributionTime); err != nil {
			return err
		}
		fold(acc, report)
	}
	return s.accrue(acc, balance, now)
}

// fold absorbs one distribution: units accrued before it convert to
// claimable tokens at the report's index delta, and the unit count restarts.
func fold(acc *Account, report *epochs.Report) {
	if acc.Units.Sign() > 0 {
		gain := new(big.Int).Mul(acc.Units, report.DeltaIndex)
		gain.Div(gain, buck.RewardIndexScale)
		acc.Claimable.Add(acc.Claimable, gain)
		acc.Units = new(big.Int)
	}
	acc.DebtIndex.Add(acc.DebtIndex, report.DeltaIndex)
	acc.FoldedReports++
}

// accrue advances the record's frontier to `to`, adding balance-weighted
// units over the epoch spans the account is eligible for.
func (s *Service) accrue(acc *Account, balance *big.Int, to uint64) error {
	from := acc.LastAccrualTime
	if to <= from {
		return nil
	}
	acc.LastAccrualTime = to
	if acc.Excluded || balance.Sign() == 0 {
		return nil
	}

	startID, err := s.referenceID(from)
	if err != nil {
		return err
	}
	if startID == 0 {
		startID = 1
	}
	for id := startID; ; id++ {
		e, err := s.epochs.Get(id)
		if err != nil {
			return err
		}
		if e == nil || e.StartTime >= to {
			break
		}
		if e.ID < acc.EligibleFrom {
			continue
		}
		seconds := e.OverlapSeconds(from, to)
		if seconds == 0 {
			continue
		}
		acc.Units.Add(acc.Units, unitsOver(balance, seconds))
	}
	return nil
}

// settleFrontier settles the global state and returns now clamped to the
// frontier, so entry and forfeit decisions never run on regressed time.
func (s *Service) settleFrontier(now uint64) (uint64, error) {
	if err := s.SettleGlobal(now); err != nil {
		return 0, err
	}
	frontier, err := s.stats.LastUpdateTime()
	if err != nil {
		return 0, err
	}
	if now < frontier {
		now = frontier
	}
	return now, nil
}

func (s *Service) referenceID(now uint64) (uint64, error) {
	ref, err := s.epochs.ReferenceAt(now)
	if err != nil || ref == nil {
		return 0, err
	}
	return ref.ID, nil
}

func unitsOver(base *big.Int, seconds uint64) *big.Int {
	units := new(big.Int).Mul(base, new(big.Int).SetUint64(seconds))
	return units.Mul(units, new(big.Int).SetUint64(buck.UnitRate))
}
