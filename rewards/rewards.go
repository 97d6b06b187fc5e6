// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package rewards implements the epoch rewards distribution engine. Holders
// of the token ledger accrue balance-weighted units over scheduled epochs,
// distributions convert a coupon into a reward index delta over the accrued
// units, and holders claim their share lazily. Entry is gated per epoch by a
// checkpoint; balance that walks away or gets excluded routes its units to a
// breakage sink.
package rewards

import (
	"math/big"

	"github.com/buck-labs/buck-v1-sub000/buck"
	"github.com/buck-labs/buck-v1-sub000/log"
	"github.com/buck-labs/buck-v1-sub000/rewards/accrual"
	"github.com/buck-labs/buck-v1-sub000/rewards/epochs"
	"github.com/buck-labs/buck-v1-sub000/rewards/globalstats"
	"github.com/buck-labs/buck-v1-sub000/rewards/reverts"
	"github.com/buck-labs/buck-v1-sub000/rewards/storage"
	"github.com/buck-labs/buck-v1-sub000/state"
)

var logger = log.WithContext("pkg", "rewards")

func SetLogger(l log.Logger) {
	logger = l
}

const (
	slotAdmin        = "admin"
	slotDistributor  = "distributor"
	slotTreasury     = "treasury"
	slotBreakageSink = "breakage-sink"

	slotEnforceCROnClaim       = "enforce-cr-on-claim"
	slotBlockDistributeOnDepeg = "block-distribute-on-depeg"
	slotMaxClaimPerTx          = "max-claim-tokens-per-tx"
	slotMaxMintPerEpoch        = "max-tokens-to-mint-per-epoch"
	slotMaxAttestationAge      = "max-attestation-age"
)

// Ledger is the token ledger the engine accounts over. Hooks fire before the
// ledger applies the triggering mutation, so reads through this interface
// during bookkeeping return pre-mutation values.
type Ledger interface {
	BalanceOf(addr buck.Address) (*big.Int, error)
	TotalSupply() (*big.Int, error)
}

// Minter pays rewards out by minting ledger tokens. A mint re-enters the
// engine through OnMint; the engine finishes writing its own state before
// calling out.
type Minter interface {
	Mint(to buck.Address, amount *big.Int, now uint64) error
}

// Policy supplies the oracle-driven inputs of the distribution and claim
// guards.
type Policy interface {
	// RefreshBand rolls the CAP price band forward to now.
	RefreshBand(now uint64) error
	// CAPPrice returns the current CAP price, scaled by buck.PriceScale.
	CAPPrice() (*big.Int, error)
	// DistributionSkimBps returns the treasury skim in basis points.
	DistributionSkimBps() (uint64, error)
	// CollateralRatio returns the attested collateral ratio, scaled by
	// buck.PriceScale.
	CollateralRatio() (*big.Int, error)
	// AttestationTime returns the unix time of the latest CR attestation,
	// zero when none was ever recorded.
	AttestationTime() (uint64, error)
}

// Engine wires the epoch schedule, the global counters and the per-account
// accrual records into the reward operations.
type Engine struct {
	addr  buck.Address
	state *state.State

	ledger Ledger
	minter Minter
	policy Policy

	epochs  *epochs.Service
	stats   *globalstats.Service
	accrual *accrual.Service

	admin        *storage.Address
	distributor  *storage.Address
	treasury     *storage.Address
	breakageSink *storage.Address

	enforceCROnClaim       *storage.Bool
	blockDistributeOnDepeg *storage.Bool
	maxClaimPerTx          *storage.Uint256
	maxMintPerEpoch        *storage.Uint256
	maxAttestationAge      *storage.Uint64
}

// New creates an engine instance over the given state, keyed by addr.
func New(addr buck.Address, st *state.State, ledger Ledger, minter Minter, policy Policy) (*Engine, error) {
	if ledger == nil {
		return nil, reverts.InvalidConfig("ledger is required")
	}
	if minter == nil {
		return nil, reverts.InvalidConfig("minter is required")
	}
	if policy == nil {
		return nil, reverts.InvalidConfig("policy is required")
	}

	sctx := storage.NewContext(addr, st)
	eps := epochs.New(sctx)
	stats := globalstats.New(sctx)

	return &Engine{
		addr:   addr,
		state:  st,
		ledger: ledger,
		minter: minter,
		policy: policy,

		epochs:  eps,
		stats:   stats,
		accrual: accrual.New(sctx, eps, stats, ledger),

		admin:        storage.NewAddress(sctx, slotAdmin),
		distributor:  storage.NewAddress(sctx, slotDistributor),
		treasury:     storage.NewAddress(sctx, slotTreasury),
		breakageSink: storage.NewAddress(sctx, slotBreakageSink),

		enforceCROnClaim:       storage.NewBool(sctx, slotEnforceCROnClaim),
		blockDistributeOnDepeg: storage.NewBool(sctx, slotBlockDistributeOnDepeg),
		maxClaimPerTx:          storage.NewUint256(sctx, slotMaxClaimPerTx),
		maxMintPerEpoch:        storage.NewUint256(sctx, slotMaxMintPerEpoch),
		maxAttestationAge:      storage.NewUint64(sctx, slotMaxAttestationAge),
	}, nil
}

// Address returns the state address the engine stores under.
func (e *Engine) Address() buck.Address {
	return e.addr
}

// runAtomic runs a mutating operation against a state checkpoint and unwinds
// every write when it fails.
func (e *Engine) runAtomic(fn func() error) error {
	checkpoint := e.state.NewCheckpoint()
	if err := fn(); err != nil {
		e.state.RevertTo(checkpoint)
		return err
	}
	return nil
}

//
// Getters - no state change
//

// GlobalState is a snapshot of the engine-wide accounting counters.
type GlobalState struct {
	EligibleUnits         *big.Int
	TreasuryBreakageUnits *big.Int
	FutureBreakageUnits   *big.Int
	TotalBreakageUnits    *big.Int
	RewardIndex           *big.Int
	DustCarry             *big.Int
	TotalExcludedSupply   *big.Int
	LateEntrySupply       *big.Int
	LateEntryEpoch        uint64
	TotalRewardsDeclared  *big.Int
	TotalRewardsClaimed   *big.Int
	LastUpdateTime        uint64
}

// GlobalState reads the stored counters without settling them.
func (e *Engine) GlobalState() (*GlobalState, error) {
	pools, err := e.stats.UnitPools()
	if err != nil {
		return nil, err
	}
	totalBreakage, err := e.stats.TotalBreakageUnits()
	if err != nil {
		return nil, err
	}
	index, err := e.stats.RewardIndex()
	if err != nil {
		return nil, err
	}
	dust, err := e.stats.DustCarry()
	if err != nil {
		return nil, err
	}
	excluded, err := e.stats.TotalExcludedSupply()
	if err != nil {
		return nil, err
	}
	lateSupply, lateEpoch, err := e.stats.LateEntry()
	if err != nil {
		return nil, err
	}
	declared, err := e.stats.TotalRewardsDeclared()
	if err != nil {
		return nil, err
	}
	claimed, err := e.stats.TotalRewardsClaimed()
	if err != nil {
		return nil, err
	}
	last, err := e.stats.LastUpdateTime()
	if err != nil {
		return nil, err
	}
	return &GlobalState{
		EligibleUnits:         pools.Eligible,
		TreasuryBreakageUnits: pools.TreasuryBreakage,
		FutureBreakageUnits:   pools.FutureBreakage,
		TotalBreakageUnits:    totalBreakage,
		RewardIndex:           index,
		DustCarry:             dust,
		TotalExcludedSupply:   excluded,
		LateEntrySupply:       lateSupply,
		LateEntryEpoch:        lateEpoch,
		TotalRewardsDeclared:  declared,
		TotalRewardsClaimed:   claimed,
		LastUpdateTime:        last,
	}, nil
}

// AccountState is the settled view of one holder at a point in time.
type AccountState struct {
	Balance         *big.Int
	Units           *big.Int
	Claimable       *big.Int
	DebtIndex       *big.Int
	FoldedReports   uint64
	EligibleFrom    uint64
	Excluded        bool
	LastAccrualTime uint64
}

// AccountState settles a copy of the holder's record to now and returns it.
// The stored record is untouched.
func (e *Engine) AccountState(addr buck.Address, now uint64) (*AccountState, error) {
	balance, err := e.ledger.BalanceOf(addr)
	if err != nil {
		return nil, err
	}

	checkpoint := e.state.NewCheckpoint()
	defer e.state.RevertTo(checkpoint)

	acc, err := e.accrual.SettleAccount(addr, now)
	if err != nil {
		return nil, err
	}
	return &AccountState{
		Balance:         balance,
		Units:           acc.Units,
		Claimable:       acc.Claimable,
		DebtIndex:       acc.DebtIndex,
		FoldedReports:   acc.FoldedReports,
		EligibleFrom:    acc.EligibleFrom,
		Excluded:        acc.Excluded,
		LastAccrualTime: acc.LastAccrualTime,
	}, nil
}

// PendingRewards returns the tokens a claim at now would pay out.
func (e *Engine) PendingRewards(addr buck.Address, now uint64) (*big.Int, error) {
	checkpoint := e.state.NewCheckpoint()
	defer e.state.RevertTo(checkpoint)

	acc, err := e.accrual.SettleAccount(addr, now)
	if err != nil {
		return nil, err
	}
	if acc.Excluded {
		return new(big.Int), nil
	}
	return acc.Claimable, nil
}

// Epoch returns the epoch by id, nil when it does not exist.
func (e *Engine) Epoch(id uint64) (*epochs.Epoch, error) {
	return e.epochs.Get(id)
}

// EpochCount returns the number of configured epochs.
func (e *Engine) EpochCount() (uint64, error) {
	return e.epochs.Count()
}

// LatestEpoch returns the last configured epoch, nil when none exists.
func (e *Engine) LatestEpoch() (*epochs.Epoch, error) {
	return e.epochs.Latest()
}

// ReferenceEpoch returns the latest epoch that started at or before now.
func (e *Engine) ReferenceEpoch(now uint64) (*epochs.Epoch, error) {
	return e.epochs.ReferenceAt(now)
}

// EpochReport returns the distribution report of an epoch, nil when the
// epoch was not distributed or was swept without allocation.
func (e *Engine) EpochReport(epochID uint64) (*epochs.Report, error) {
	return e.epochs.ReportByEpoch(epochID)
}

// ReportCount returns the number of distribution reports.
func (e *Engine) ReportCount() (uint64, error) {
	return e.epochs.ReportCount()
}

// ReportAt returns the distribution report by 1-based index, nil when out of
// range.
func (e *Engine) ReportAt(index uint64) (*epochs.Report, error) {
	return e.epochs.GetReport(index)
}

// DistributedThrough returns the highest epoch id settled by a distribution.
func (e *Engine) DistributedThrough() (uint64, error) {
	return e.epochs.DistributedThrough()
}

// Config is a snapshot of the engine roles and guard settings.
type Config struct {
	Admin        buck.Address
	Distributor  buck.Address
	Treasury     buck.Address
	BreakageSink buck.Address

	EnforceCROnClaim       bool
	BlockDistributeOnDepeg bool
	MaxClaimTokensPerTx    *big.Int
	MaxTokensPerEpoch      *big.Int
	MaxAttestationAge      uint64
}

// Config reads the engine roles and guard settings.
func (e *Engine) Config() (*Config, error) {
	admin, err := e.admin.Get()
	if err != nil {
		return nil, err
	}
	distributor, err := e.distributor.Get()
	if err != nil {
		return nil, err
	}
	treasury, err := e.treasury.Get()
	if err != nil {
		return nil, err
	}
	sink, err := e.breakageSink.Get()
	if err != nil {
		return nil, err
	}
	enforceCR, err := e.enforceCROnClaim.Get()
	if err != nil {
		return nil, err
	}
	blockDepeg, err := e.blockDistributeOnDepeg.Get()
	if err != nil {
		return nil, err
	}
	maxClaim, err := e.maxClaimPerTx.Get()
	if err != nil {
		return nil, err
	}
	maxMint, err := e.maxMintPerEpoch.Get()
	if err != nil {
		return nil, err
	}
	maxAge, err := e.attestationAge()
	if err != nil {
		return nil, err
	}
	return &Config{
		Admin:                  admin,
		Distributor:            distributor,
		Treasury:               treasury,
		BreakageSink:           sink,
		EnforceCROnClaim:       enforceCR,
		BlockDistributeOnDepeg: blockDepeg,
		MaxClaimTokensPerTx:    maxClaim,
		MaxTokensPerEpoch:      maxMint,
		MaxAttestationAge:      maxAge,
	}, nil
}

// attestationAge returns the configured attestation age limit, falling back
// to the protocol default when unset.
func (e *Engine) attestationAge() (uint64, error) {
	age, err := e.maxAttestationAge.Get()
	if err != nil {
		return 0, err
	}
	if age == 0 {
		return buck.InitialMaxAttestationAge, nil
	}
	return age, nil
}
