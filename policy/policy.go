// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package policy holds the oracle-driven inputs of the rewards engine: the
// CAP price behind a movement band, the treasury skim, and the collateral
// ratio attestation. The band rate-limits the effective price: per refresh
// it moves at most band-width basis points from the last anchor, so a wild
// posted price takes effect over successive refreshes in steps.
package policy

import (
	"math/big"

	"github.com/buck-labs/buck-v1-sub000/buck"
	"github.com/buck-labs/buck-v1-sub000/log"
	"github.com/buck-labs/buck-v1-sub000/rewards/reverts"
	"github.com/buck-labs/buck-v1-sub000/rewards/storage"
	"github.com/buck-labs/buck-v1-sub000/state"
)

var logger = log.WithContext("pkg", "policy")

func SetLogger(l log.Logger) {
	logger = l
}

const (
	slotAdmin           = "admin"
	slotPostedPrice     = "posted-price"
	slotBandAnchorPrice = "band-anchor-price"
	slotBandRefreshTime = "band-refresh-time"
	slotBandWidthBps    = "band-width-bps"
	slotSkimBps         = "skim-bps"
	slotCollateralRatio = "collateral-ratio"
	slotAttestationTime = "attestation-time"
)

// Policy is the storage-backed policy manager.
type Policy struct {
	addr  buck.Address
	state *state.State

	admin           *storage.Address
	postedPrice     *storage.Uint256
	bandAnchorPrice *storage.Uint256
	bandRefreshTime *storage.Uint64
	bandWidthBps    *storage.Uint64
	skimBps         *storage.Uint64
	collateralRatio *storage.Uint256
	attestationTime *storage.Uint64
}

// New creates a policy instance over the given state, keyed by addr.
func New(addr buck.Address, st *state.State) *Policy {
	sctx := storage.NewContext(addr, st)
	return &Policy{
		addr:  addr,
		state: st,

		admin:           storage.NewAddress(sctx, slotAdmin),
		postedPrice:     storage.NewUint256(sctx, slotPostedPrice),
		bandAnchorPrice: storage.NewUint256(sctx, slotBandAnchorPrice),
		bandRefreshTime: storage.NewUint64(sctx, slotBandRefreshTime),
		bandWidthBps:    storage.NewUint64(sctx, slotBandWidthBps),
		skimBps:         storage.NewUint64(sctx, slotSkimBps),
		collateralRatio: storage.NewUint256(sctx, slotCollateralRatio),
		attestationTime: storage.NewUint64(sctx, slotAttestationTime),
	}
}

// Address returns the state address the policy stores under.
func (p *Policy) Address() buck.Address {
	return p.addr
}

func (p *Policy) requireAdmin(caller buck.Address) error {
	admin, err := p.admin.Get()
	if err != nil {
		return err
	}
	if admin.IsZero() || admin != caller {
		return reverts.Unauthorized(caller, "policy admin")
	}
	return nil
}

//
// Getters - no state change
//

// CAPPrice returns the effective CAP price: the posted price clamped into
// the band around the last refresh anchor. With the band disabled or never
// refreshed, the posted price passes through unchanged.
func (p *Policy) CAPPrice() (*big.Int, error) {
	posted, err := p.postedPrice.Get()
	if err != nil {
		return nil, err
	}
	width, err := p.bandWidthBps.Get()
	if err != nil {
		return nil, err
	}
	anchor, err := p.bandAnchorPrice.Get()
	if err != nil {
		return nil, err
	}
	if width == 0 || anchor.Sign() == 0 {
		return posted, nil
	}

	delta := new(big.Int).SetUint64(width)
	delta.Mul(delta, anchor)
	delta.Div(delta, new(big.Int).SetUint64(buck.BpsDenominator))

	if hi := new(big.Int).Add(anchor, delta); posted.Cmp(hi) > 0 {
		return hi, nil
	}
	if lo := new(big.Int).Sub(anchor, delta); posted.Cmp(lo) < 0 {
		return lo, nil
	}
	return posted, nil
}

// DistributionSkimBps returns the treasury skim in basis points.
func (p *Policy) DistributionSkimBps() (uint64, error) {
	return p.skimBps.Get()
}

// CollateralRatio returns the attested collateral ratio, scaled by
// buck.PriceScale.
func (p *Policy) CollateralRatio() (*big.Int, error) {
	return p.collateralRatio.Get()
}

// AttestationTime returns the unix time of the latest collateral ratio
// attestation, zero when none was ever recorded.
func (p *Policy) AttestationTime() (uint64, error) {
	return p.attestationTime.Get()
}

// Snapshot is a full view of the policy slots.
type Snapshot struct {
	Admin           buck.Address
	PostedPrice     *big.Int
	EffectivePrice  *big.Int
	BandAnchorPrice *big.Int
	BandRefreshTime uint64
	BandWidthBps    uint64
	SkimBps         uint64
	CollateralRatio *big.Int
	AttestationTime uint64
}

// Snapshot reads every policy slot at once.
func (p *Policy) Snapshot() (*Snapshot, error) {
	admin, err := p.admin.Get()
	if err != nil {
		return nil, err
	}
	posted, err := p.postedPrice.Get()
	if err != nil {
		return nil, err
	}
	effective, err := p.CAPPrice()
	if err != nil {
		return nil, err
	}
	anchor, err := p.bandAnchorPrice.Get()
	if err != nil {
		return nil, err
	}
	refreshed, err := p.bandRefreshTime.Get()
	if err != nil {
		return nil, err
	}
	width, err := p.bandWidthBps.Get()
	if err != nil {
		return nil, err
	}
	skim, err := p.skimBps.Get()
	if err != nil {
		return nil, err
	}
	ratio, err := p.collateralRatio.Get()
	if err != nil {
		return nil, err
	}
	attested, err := p.attestationTime.Get()
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Admin:           admin,
		PostedPrice:     posted,
		EffectivePrice:  effective,
		BandAnchorPrice: anchor,
		BandRefreshTime: refreshed,
		BandWidthBps:    width,
		SkimBps:         skim,
		CollateralRatio: ratio,
		AttestationTime: attested,
	}, nil
}

//
// Setters - state change
//

// SetAdmin transfers the policy admin role. The first assignment is open so
// genesis can seed the role; afterwards only the current admin may hand it
// over.
func (p *Policy) SetAdmin(caller, admin buck.Address) error {
	current, err := p.admin.Get()
	if err != nil {
		return err
	}
	if !current.IsZero() {
		if err := p.requireAdmin(caller); err != nil {
			return err
		}
	}
	if admin.IsZero() {
		return reverts.InvalidConfig("policy admin cannot be the zero address")
	}
	p.admin.Set(&admin)
	logger.Info("policy admin set", "admin", admin)
	return nil
}

// SetCAPPrice posts a new CAP price, scaled by buck.PriceScale. The band, if
// enabled, limits how fast the posted price becomes effective.
func (p *Policy) SetCAPPrice(caller buck.Address, price *big.Int) error {
	if err := p.requireAdmin(caller); err != nil {
		return err
	}
	if price == nil || price.Sign() <= 0 {
		return reverts.InvalidConfig("cap price must be positive")
	}
	p.postedPrice.Set(price)
	logger.Info("cap price posted", "price", price)
	return nil
}

// SetBandWidthBps sets the per-refresh price movement limit in basis points.
// Zero disables the band.
func (p *Policy) SetBandWidthBps(caller buck.Address, bps uint64) error {
	if err := p.requireAdmin(caller); err != nil {
		return err
	}
	if bps > buck.BpsDenominator {
		return reverts.InvalidConfig("band width bps out of range [0, %d]", buck.BpsDenominator)
	}
	p.bandWidthBps.Set(bps)
	logger.Info("band width set", "bps", bps)
	return nil
}

// SetSkimBps sets the treasury skim in basis points.
func (p *Policy) SetSkimBps(caller buck.Address, bps uint64) error {
	if err := p.requireAdmin(caller); err != nil {
		return err
	}
	if bps > buck.BpsDenominator {
		return reverts.InvalidConfig("skim bps out of range [0, %d]", buck.BpsDenominator)
	}
	p.skimBps.Set(bps)
	logger.Info("skim bps set", "bps", bps)
	return nil
}

// AttestCollateralRatio records a collateral ratio attestation, scaled by
// buck.PriceScale, stamped at now.
func (p *Policy) AttestCollateralRatio(caller buck.Address, ratio *big.Int, now uint64) error {
	if err := p.requireAdmin(caller); err != nil {
		return err
	}
	if ratio == nil || ratio.Sign() < 0 {
		return reverts.InvalidConfig("collateral ratio cannot be negative")
	}
	p.collateralRatio.Set(ratio)
	p.attestationTime.Set(now)
	logger.Info("collateral ratio attested", "ratio", ratio, "now", now)
	return nil
}

// RefreshBand re-anchors the band at the current effective price and stamps
// the refresh time. The engine refreshes once per distribution, so a posted
// price drifts toward effect one band step per settled epoch.
func (p *Policy) RefreshBand(now uint64) error {
	effective, err := p.CAPPrice()
	if err != nil {
		return err
	}
	if effective.Sign() > 0 {
		p.bandAnchorPrice.Set(effective)
	}
	p.bandRefreshTime.Set(now)
	logger.Debug("band refreshed", "anchor", effective, "now", now)
	return nil
}
