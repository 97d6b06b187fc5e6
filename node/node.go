// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package node glues the engine components into one serialized service.
// Every mutation takes the node lock, runs against the shared state, commits
// the journal to the backing store and appends audit events. The API and the
// daemon scheduler both go through here; nothing else touches the state.
package node

import (
	"math/big"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"github.com/buck-labs/buck-v1-sub000/buck"
	"github.com/buck-labs/buck-v1-sub000/cache"
	"github.com/buck-labs/buck-v1-sub000/co"
	"github.com/buck-labs/buck-v1-sub000/eventdb"
	"github.com/buck-labs/buck-v1-sub000/ledger"
	"github.com/buck-labs/buck-v1-sub000/log"
	"github.com/buck-labs/buck-v1-sub000/policy"
	"github.com/buck-labs/buck-v1-sub000/rewards"
	"github.com/buck-labs/buck-v1-sub000/rewards/epochs"
	"github.com/buck-labs/buck-v1-sub000/state"
)

var logger = log.WithContext("pkg", "node")

// reportCacheLimit bounds the settled report cache. A report is written once
// at distribution and never mutated afterwards, so entries never go stale.
const reportCacheLimit = 512

// SetLogger swaps the package logger, for tests.
func SetLogger(l log.Logger) {
	logger = l
}

// Options configure optional node facilities.
type Options struct {
	// Events enables the audit log and the event feed when set.
	Events *eventdb.EventDB

	// Clock stamps every operation; defaults to the wall clock.
	Clock clockwork.Clock
}

// Node is the single writer over the engine state.
type Node struct {
	lock    sync.Mutex
	state   *state.State
	eng     *rewards.Engine
	led     *ledger.Ledger
	pol     *policy.Policy
	events  *eventdb.EventDB
	clock   clockwork.Clock
	tick    co.Signal
	reports *cache.LRU
}

// New wires a node over an already constructed component stack.
func New(st *state.State, eng *rewards.Engine, led *ledger.Ledger, pol *policy.Policy, opts Options) *Node {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	reports, _ := cache.NewLRU(reportCacheLimit)
	return &Node{
		state:   st,
		eng:     eng,
		led:     led,
		pol:     pol,
		events:  opts.Events,
		clock:   clock,
		reports: reports,
	}
}

// Now is the timestamp the next operation will carry.
func (n *Node) Now() uint64 {
	return uint64(n.clock.Now().Unix())
}

// AuditEnabled reports whether the audit log and the event feed are on.
func (n *Node) AuditEnabled() bool {
	return n.events != nil
}

// Ticker returns a waiter signaled whenever new audit events land.
func (n *Node) Ticker() co.Waiter {
	return n.tick.NewWaiter()
}

// commit flushes the journaled writes to the backing store.
func (n *Node) commit() error {
	stage, err := n.state.Stage()
	if err != nil {
		return err
	}
	return stage.Commit()
}

// audit appends events to the audit log. Auditing is best effort: a failed
// append is logged, never unwound, since the state commit already happened.
func (n *Node) audit(events ...*eventdb.Event) {
	if n.events == nil || len(events) == 0 {
		return
	}
	if err := n.events.Insert(events...); err != nil {
		logger.Warn("failed to append audit events", "err", err)
		return
	}
	n.tick.Broadcast()
}

//
// Ledger operations
//

// Transfer moves tokens between holders.
func (n *Node) Transfer(from, to buck.Address, amount *big.Int) error {
	n.lock.Lock()
	defer n.lock.Unlock()

	if err := n.led.Transfer(from, to, amount, n.Now()); err != nil {
		return err
	}
	return n.commit()
}

// Mint credits freshly issued tokens to a holder.
func (n *Node) Mint(to buck.Address, amount *big.Int) error {
	n.lock.Lock()
	defer n.lock.Unlock()

	if err := n.led.Mint(to, amount, n.Now()); err != nil {
		return err
	}
	return n.commit()
}

// Burn destroys tokens held by a holder.
func (n *Node) Burn(from buck.Address, amount *big.Int) error {
	n.lock.Lock()
	defer n.lock.Unlock()

	if err := n.led.Burn(from, amount, n.Now()); err != nil {
		return err
	}
	return n.commit()
}

//
// Engine operations
//

// Distribute settles the ended epoch and spreads the coupon over holders.
func (n *Node) Distribute(caller buck.Address, coupon *big.Int) (*epochs.Report, error) {
	n.lock.Lock()
	defer n.lock.Unlock()

	now := n.Now()
	before, err := n.eng.GlobalState()
	if err != nil {
		return nil, err
	}
	report, err := n.eng.Distribute(caller, coupon, now)
	if err != nil {
		return nil, err
	}
	after, err := n.eng.GlobalState()
	if err != nil {
		return nil, err
	}
	if err := n.commit(); err != nil {
		return nil, err
	}
	n.reports.Add(report.Epoch, report)

	events := []*eventdb.Event{{
		Kind:       eventdb.KindDistribution,
		Epoch:      report.Epoch,
		Amount:     report.TokensAllocated,
		Units:      report.DenominatorUnits,
		OccurredAt: now,
	}}
	// the claimed counter moves only by the sink payout during a distribution
	sinkPayout := new(big.Int).Sub(after.TotalRewardsClaimed, before.TotalRewardsClaimed)
	if sinkPayout.Sign() > 0 {
		breakage := &eventdb.Event{
			Kind:       eventdb.KindBreakage,
			Epoch:      report.Epoch,
			Amount:     sinkPayout,
			OccurredAt: now,
		}
		if cfg, err := n.eng.Config(); err == nil {
			sink := cfg.BreakageSink
			breakage.Account = &sink
		}
		events = append(events, breakage)
	}
	n.audit(events...)
	return report, nil
}

// Claim pays out the caller's folded rewards.
func (n *Node) Claim(addr buck.Address) (*big.Int, error) {
	n.lock.Lock()
	defer n.lock.Unlock()

	now := n.Now()
	payout, err := n.eng.Claim(addr, now)
	if err != nil {
		return nil, err
	}
	if err := n.commit(); err != nil {
		return nil, err
	}
	if payout.Sign() > 0 {
		through, err := n.eng.DistributedThrough()
		if err != nil {
			through = 0
		}
		n.audit(&eventdb.Event{
			Kind:       eventdb.KindClaim,
			Epoch:      through,
			Account:    &addr,
			Amount:     payout,
			OccurredAt: now,
		})
	}
	return payout, nil
}

// SetAccountExcluded flips reward participation of a holder.
func (n *Node) SetAccountExcluded(caller, addr buck.Address, excluded bool) error {
	n.lock.Lock()
	defer n.lock.Unlock()

	now := n.Now()
	if err := n.eng.SetAccountExcluded(caller, addr, excluded, now); err != nil {
		return err
	}
	if err := n.commit(); err != nil {
		return err
	}
	var epoch uint64
	if ref, err := n.eng.ReferenceEpoch(now); err == nil && ref != nil {
		epoch = ref.ID
	}
	n.audit(&eventdb.Event{
		Kind:       eventdb.KindExclusion,
		Epoch:      epoch,
		Account:    &addr,
		OccurredAt: now,
	})
	return nil
}

// ConfigureEpoch appends an epoch to the schedule.
func (n *Node) ConfigureEpoch(caller buck.Address, epoch *epochs.Epoch) error {
	n.lock.Lock()
	defer n.lock.Unlock()

	now := n.Now()
	if err := n.eng.ConfigureEpoch(caller, epoch, now); err != nil {
		return err
	}
	if err := n.commit(); err != nil {
		return err
	}
	n.audit(&eventdb.Event{
		Kind:       eventdb.KindEpoch,
		Epoch:      epoch.ID,
		OccurredAt: now,
	})
	return nil
}

//
// Policy operations
//

// SetCAPPrice posts a new oracle price.
func (n *Node) SetCAPPrice(caller buck.Address, price *big.Int) error {
	n.lock.Lock()
	defer n.lock.Unlock()

	if err := n.pol.SetCAPPrice(caller, price); err != nil {
		return err
	}
	return n.commit()
}

// AttestCollateralRatio records a fresh collateral attestation.
func (n *Node) AttestCollateralRatio(caller buck.Address, ratio *big.Int) error {
	n.lock.Lock()
	defer n.lock.Unlock()

	if err := n.pol.AttestCollateralRatio(caller, ratio, n.Now()); err != nil {
		return err
	}
	return n.commit()
}

//
// Views
//

// AccountState settles a copy of the holder's record to now.
func (n *Node) AccountState(addr buck.Address) (*rewards.AccountState, error) {
	n.lock.Lock()
	defer n.lock.Unlock()
	return n.eng.AccountState(addr, n.Now())
}

// PendingRewards previews the holder's claimable amount at now.
func (n *Node) PendingRewards(addr buck.Address) (*big.Int, error) {
	n.lock.Lock()
	defer n.lock.Unlock()
	return n.eng.PendingRewards(addr, n.Now())
}

// GlobalState reads the stored engine counters.
func (n *Node) GlobalState() (*rewards.GlobalState, error) {
	n.lock.Lock()
	defer n.lock.Unlock()
	return n.eng.GlobalState()
}

// Config reads the engine roles and guard settings.
func (n *Node) Config() (*rewards.Config, error) {
	n.lock.Lock()
	defer n.lock.Unlock()
	return n.eng.Config()
}

// PolicySnapshot reads every policy slot at once.
func (n *Node) PolicySnapshot() (*policy.Snapshot, error) {
	n.lock.Lock()
	defer n.lock.Unlock()
	return n.pol.Snapshot()
}

// TotalSupply reads the ledger supply.
func (n *Node) TotalSupply() (*big.Int, error) {
	n.lock.Lock()
	defer n.lock.Unlock()
	return n.led.TotalSupply()
}

// Epoch reads one configured epoch, nil when out of range.
func (n *Node) Epoch(id uint64) (*epochs.Epoch, error) {
	n.lock.Lock()
	defer n.lock.Unlock()
	return n.eng.Epoch(id)
}

// EpochCount counts the configured epochs.
func (n *Node) EpochCount() (uint64, error) {
	n.lock.Lock()
	defer n.lock.Unlock()
	return n.eng.EpochCount()
}

// LatestEpoch reads the last configured epoch, nil when none.
func (n *Node) LatestEpoch() (*epochs.Epoch, error) {
	n.lock.Lock()
	defer n.lock.Unlock()
	return n.eng.LatestEpoch()
}

// ReferenceEpoch resolves the epoch now falls into, nil when none started.
func (n *Node) ReferenceEpoch() (*epochs.Epoch, error) {
	n.lock.Lock()
	defer n.lock.Unlock()
	return n.eng.ReferenceEpoch(n.Now())
}

// EpochReport reads the distribution report of an epoch, nil when the epoch
// never settled one. Nil results are not cached since the epoch may settle later.
func (n *Node) EpochReport(epochID uint64) (*epochs.Report, error) {
	if v, ok := n.reports.Get(epochID); ok {
		return v.(*epochs.Report), nil
	}
	n.lock.Lock()
	defer n.lock.Unlock()
	report, err := n.eng.EpochReport(epochID)
	if err != nil || report == nil {
		return report, err
	}
	n.reports.Add(epochID, report)
	return report, nil
}

// ReportCount counts the settled distribution reports.
func (n *Node) ReportCount() (uint64, error) {
	n.lock.Lock()
	defer n.lock.Unlock()
	return n.eng.ReportCount()
}

// ReportAt reads the i-th report, 1-based.
func (n *Node) ReportAt(index uint64) (*epochs.Report, error) {
	n.lock.Lock()
	defer n.lock.Unlock()
	report, err := n.eng.ReportAt(index)
	if err != nil || report == nil {
		return report, err
	}
	n.reports.Add(report.Epoch, report)
	return report, nil
}

// DistributedThrough is the highest settled epoch id.
func (n *Node) DistributedThrough() (uint64, error) {
	n.lock.Lock()
	defer n.lock.Unlock()
	return n.eng.DistributedThrough()
}

// Events queries the audit log.
func (n *Node) Events(filter *eventdb.Filter) ([]*eventdb.Event, error) {
	if n.events == nil {
		return nil, errors.New("audit log not enabled")
	}
	return n.events.Filter(filter)
}
