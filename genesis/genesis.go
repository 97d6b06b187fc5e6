// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis boots a fresh state from a YAML document: roles, policy
// seeds, guard settings, the epoch schedule and initial balances. A marker
// slot makes the application one-shot, and the document hash is pinned so a
// state cannot be reopened with a different document.
package genesis

import (
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/buck-labs/buck-v1-sub000/buck"
	"github.com/buck-labs/buck-v1-sub000/ledger"
	"github.com/buck-labs/buck-v1-sub000/policy"
	"github.com/buck-labs/buck-v1-sub000/rewards"
	"github.com/buck-labs/buck-v1-sub000/rewards/epochs"
	"github.com/buck-labs/buck-v1-sub000/rewards/storage"
	"github.com/buck-labs/buck-v1-sub000/state"
)

// Document is the user customized boot configuration.
type Document struct {
	Name         string      `yaml:"name"`
	LaunchTime   uint64      `yaml:"launchTime"`
	Admin        Address     `yaml:"admin"`
	Distributor  Address     `yaml:"distributor"`
	Treasury     Address     `yaml:"treasury"`
	BreakageSink Address     `yaml:"breakageSink"`
	Policy       PolicySeed  `yaml:"policy"`
	Guards       Guards      `yaml:"guards"`
	Epochs       []EpochSeed `yaml:"epochs"`
	Accounts     []Account   `yaml:"accounts"`
}

// PolicySeed is the initial oracle configuration.
type PolicySeed struct {
	CAPPrice        *Quantity `yaml:"capPrice"`
	BandWidthBps    uint64    `yaml:"bandWidthBps"`
	SkimBps         uint64    `yaml:"skimBps"`
	CollateralRatio *Quantity `yaml:"collateralRatio"`
}

// Guards are the distribution and claim guard settings.
type Guards struct {
	EnforceCROnClaim        bool      `yaml:"enforceCROnClaim"`
	BlockDistributeOnDepeg  bool      `yaml:"blockDistributeOnDepeg"`
	MaxClaimTokensPerTx     *Quantity `yaml:"maxClaimTokensPerTx"`
	MaxTokensToMintPerEpoch *Quantity `yaml:"maxTokensToMintPerEpoch"`
	MaxAttestationAge       uint64    `yaml:"maxAttestationAge"`
}

// EpochSeed is one epoch of the initial schedule. IDs are assigned in
// document order starting at 1.
type EpochSeed struct {
	StartTime       uint64 `yaml:"startTime"`
	CheckpointStart uint64 `yaml:"checkpointStart"`
	CheckpointEnd   uint64 `yaml:"checkpointEnd"`
	EndTime         uint64 `yaml:"endTime"`
}

// Account is an account to fund at launch.
type Account struct {
	Address Address   `yaml:"address"`
	Balance *Quantity `yaml:"balance"`
}

// Address wraps buck.Address with YAML marshaling.
type Address buck.Address

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (a *Address) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	addr, err := buck.ParseAddress(s)
	if err != nil {
		return errors.WithMessagef(err, "invalid address %q", s)
	}
	*a = Address(*addr)
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface.
func (a Address) MarshalYAML() (interface{}, error) {
	return buck.Address(a).String(), nil
}

// Quantity marshals big.Int as decimal or 0x-prefixed hex.
type Quantity big.Int

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (q *Quantity) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	x, ok := math.ParseBig256(s)
	if !ok {
		return errors.Errorf("invalid hex or decimal integer %q", s)
	}
	*q = Quantity(*x)
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface.
func (q *Quantity) MarshalYAML() (interface{}, error) {
	return (*big.Int)(q).String(), nil
}

// Int returns the wrapped integer, nil when the quantity is unset.
func (q *Quantity) Int() *big.Int {
	if q == nil {
		return nil
	}
	return (*big.Int)(q)
}

// Load reads and validates a document from a YAML file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithMessage(err, "read genesis")
	}
	doc := new(Document)
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, errors.WithMessage(err, "parse genesis")
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Validate checks the document before it touches state. Epoch window
// ordering is left to the engine, which rejects malformed schedules.
func (doc *Document) Validate() error {
	if buck.Address(doc.Admin).IsZero() {
		return errors.New("admin must be set")
	}
	if doc.Policy.CAPPrice.Int() == nil || doc.Policy.CAPPrice.Int().Sign() < 1 {
		return errors.New("policy.capPrice must be a positive integer")
	}
	if doc.Policy.BandWidthBps > buck.BpsDenominator {
		return errors.Errorf("policy.bandWidthBps must not exceed %d", buck.BpsDenominator)
	}
	if doc.Policy.SkimBps > buck.BpsDenominator {
		return errors.Errorf("policy.skimBps must not exceed %d", buck.BpsDenominator)
	}
	if doc.Policy.SkimBps > 0 && buck.Address(doc.Treasury).IsZero() {
		return errors.New("treasury must be set when policy.skimBps is non-zero")
	}
	for _, a := range doc.Accounts {
		if a.Balance.Int() == nil {
			return errors.Errorf("%s: balance must be set", buck.Address(a.Address))
		}
		if a.Balance.Int().Sign() < 1 {
			return errors.Errorf("%s: balance must be a non-zero integer", buck.Address(a.Address))
		}
	}
	return nil
}

// ID is the hash of the document, pinned into state on first apply.
func (doc *Document) ID() buck.Bytes32 {
	data, err := yaml.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return buck.Blake2b(data)
}

// Apply seeds the components from the document. It returns false without
// touching state when the marker shows the same document was already
// applied, and errors when the state was initialized from a different one.
func (doc *Document) Apply(st *state.State, eng *rewards.Engine, led *ledger.Ledger, pol *policy.Policy) (bool, error) {
	ctx := storage.NewContext(buck.GenesisAddress, st)
	applied := storage.NewBool(ctx, "applied")
	idSlot := buck.BytesToBytes32([]byte("genesis-id"))

	done, err := applied.Get()
	if err != nil {
		return false, err
	}
	id := doc.ID()
	if done {
		stored, err := st.GetStorage(buck.GenesisAddress, idSlot)
		if err != nil {
			return false, err
		}
		if stored != id {
			return false, errors.Errorf("state initialized from a different genesis document: have %v, want %v", stored, id)
		}
		return false, nil
	}

	checkpoint := st.NewCheckpoint()
	if err := doc.seed(st, eng, led, pol); err != nil {
		st.RevertTo(checkpoint)
		return false, err
	}
	applied.Set(true)
	st.SetStorage(buck.GenesisAddress, idSlot, id)
	return true, nil
}

func (doc *Document) seed(st *state.State, eng *rewards.Engine, led *ledger.Ledger, pol *policy.Policy) error {
	admin := buck.Address(doc.Admin)
	now := doc.LaunchTime

	if err := pol.SetAdmin(admin, admin); err != nil {
		return err
	}
	if err := pol.SetCAPPrice(admin, doc.Policy.CAPPrice.Int()); err != nil {
		return err
	}
	if doc.Policy.BandWidthBps > 0 {
		if err := pol.SetBandWidthBps(admin, doc.Policy.BandWidthBps); err != nil {
			return err
		}
	}
	if doc.Policy.SkimBps > 0 {
		if err := pol.SetSkimBps(admin, doc.Policy.SkimBps); err != nil {
			return err
		}
	}
	if cr := doc.Policy.CollateralRatio.Int(); cr != nil {
		if err := pol.AttestCollateralRatio(admin, cr, now); err != nil {
			return err
		}
	}

	if err := eng.SetAdmin(admin, admin); err != nil {
		return err
	}
	if distributor := buck.Address(doc.Distributor); !distributor.IsZero() {
		if err := eng.SetDistributor(admin, distributor); err != nil {
			return err
		}
	}
	if treasury := buck.Address(doc.Treasury); !treasury.IsZero() {
		if err := eng.SetTreasury(admin, treasury); err != nil {
			return err
		}
	}
	if sink := buck.Address(doc.BreakageSink); !sink.IsZero() {
		if err := eng.SetBreakageSink(admin, sink, now); err != nil {
			return err
		}
	}

	if err := eng.SetEnforceCROnClaim(admin, doc.Guards.EnforceCROnClaim); err != nil {
		return err
	}
	if err := eng.SetBlockDistributeOnDepeg(admin, doc.Guards.BlockDistributeOnDepeg); err != nil {
		return err
	}
	if limit := doc.Guards.MaxClaimTokensPerTx.Int(); limit != nil {
		if err := eng.SetMaxClaimTokensPerTx(admin, limit); err != nil {
			return err
		}
	}
	if limit := doc.Guards.MaxTokensToMintPerEpoch.Int(); limit != nil {
		if err := eng.SetMaxTokensToMintPerEpoch(admin, limit); err != nil {
			return err
		}
	}
	if doc.Guards.MaxAttestationAge > 0 {
		if err := eng.SetMaxAttestationAge(admin, doc.Guards.MaxAttestationAge); err != nil {
			return err
		}
	}

	for i, seed := range doc.Epochs {
		epoch := &epochs.Epoch{
			ID:              uint64(i) + 1,
			StartTime:       seed.StartTime,
			EndTime:         seed.EndTime,
			CheckpointStart: seed.CheckpointStart,
			CheckpointEnd:   seed.CheckpointEnd,
		}
		if err := eng.ConfigureEpoch(admin, epoch, now); err != nil {
			return err
		}
	}

	for _, a := range doc.Accounts {
		if err := led.Mint(buck.Address(a.Address), a.Balance.Int(), now); err != nil {
			return err
		}
	}
	return nil
}
