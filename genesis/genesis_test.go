// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis_test

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/buck-labs/buck-v1-sub000/buck"
	"github.com/buck-labs/buck-v1-sub000/genesis"
	"github.com/buck-labs/buck-v1-sub000/ledger"
	"github.com/buck-labs/buck-v1-sub000/lvldb"
	"github.com/buck-labs/buck-v1-sub000/policy"
	"github.com/buck-labs/buck-v1-sub000/rewards"
	"github.com/buck-labs/buck-v1-sub000/state"
)

type stack struct {
	st  *state.State
	eng *rewards.Engine
	led *ledger.Ledger
	pol *policy.Policy
}

func newStack(t *testing.T) *stack {
	db, err := lvldb.NewMem()
	if err != nil {
		t.Fatal(err)
	}
	st := state.New(db)
	pol := policy.New(buck.PolicyAddress, st)
	led := ledger.New(buck.LedgerAddress, st)
	eng, err := rewards.New(buck.RewardsAddress, st, led, led, pol)
	if err != nil {
		t.Fatal(err)
	}
	led.SetHooks(eng)
	return &stack{st, eng, led, pol}
}

func TestDevnetApply(t *testing.T) {
	s := newStack(t)
	doc := genesis.NewDevnet()

	applied, err := doc.Apply(s.st, s.eng, s.led, s.pol)
	assert.Nil(t, err)
	assert.True(t, applied)

	accs := genesis.DevAccounts()
	want, _ := new(big.Int).SetString("1000000000000000000000000", 10)
	balance, err := s.led.BalanceOf(accs[0])
	assert.Nil(t, err)
	assert.Equal(t, want, balance)

	supply, err := s.led.TotalSupply()
	assert.Nil(t, err)
	assert.Equal(t, new(big.Int).Mul(want, big.NewInt(10)), supply)

	count, err := s.eng.EpochCount()
	assert.Nil(t, err)
	assert.Equal(t, uint64(12), count)

	cfg, err := s.eng.Config()
	assert.Nil(t, err)
	assert.Equal(t, accs[0], cfg.Admin)
	assert.Equal(t, accs[0], cfg.Distributor)
	assert.Equal(t, accs[0], cfg.Treasury)
	assert.False(t, cfg.BreakageSink.IsZero())

	snap, err := s.pol.Snapshot()
	assert.Nil(t, err)
	assert.Equal(t, accs[0], snap.Admin)
	assert.Equal(t, buck.ParPrice, snap.EffectivePrice)
	assert.Equal(t, uint64(500), snap.BandWidthBps)
	assert.Equal(t, doc.LaunchTime, snap.AttestationTime)
}

func TestApplyIsOneShot(t *testing.T) {
	s := newStack(t)
	doc := genesis.NewDevnet()

	applied, err := doc.Apply(s.st, s.eng, s.led, s.pol)
	assert.Nil(t, err)
	assert.True(t, applied)

	applied, err = doc.Apply(s.st, s.eng, s.led, s.pol)
	assert.Nil(t, err)
	assert.False(t, applied)

	supply, err := s.led.TotalSupply()
	assert.Nil(t, err)
	want, _ := new(big.Int).SetString("10000000000000000000000000", 10)
	assert.Equal(t, want, supply)
}

func TestApplyRejectsDifferentDocument(t *testing.T) {
	s := newStack(t)
	doc := genesis.NewDevnet()

	_, err := doc.Apply(s.st, s.eng, s.led, s.pol)
	assert.Nil(t, err)

	other := genesis.NewDevnet()
	other.LaunchTime++
	_, err = other.Apply(s.st, s.eng, s.led, s.pol)
	assert.Contains(t, err.Error(), "different genesis document")
}

func TestApplyRevertsOnFailure(t *testing.T) {
	s := newStack(t)
	doc := genesis.NewDevnet()
	// end time before start time fails the schedule validation mid-apply
	doc.Epochs[5].EndTime = doc.Epochs[5].StartTime

	applied, err := doc.Apply(s.st, s.eng, s.led, s.pol)
	assert.NotNil(t, err)
	assert.False(t, applied)

	supply, err := s.led.TotalSupply()
	assert.Nil(t, err)
	assert.Equal(t, 0, supply.Sign())

	cfg, err := s.eng.Config()
	assert.Nil(t, err)
	assert.True(t, cfg.Admin.IsZero())

	// fixed document applies cleanly
	applied, err = genesis.NewDevnet().Apply(s.st, s.eng, s.led, s.pol)
	assert.Nil(t, err)
	assert.True(t, applied)
}

func TestLoadDocument(t *testing.T) {
	accs := genesis.DevAccounts()
	content := fmt.Sprintf(`
name: staging
launchTime: 1767225600
admin: %s
treasury: %s
breakageSink: %s
policy:
  capPrice: "0xde0b6b3a7640000"
  bandWidthBps: 250
  skimBps: 100
guards:
  enforceCROnClaim: true
  maxClaimTokensPerTx: "5000000000000000000000"
epochs:
  - startTime: 1767225600
    checkpointStart: 1769212800
    checkpointEnd: 1769731200
    endTime: 1769817600
accounts:
  - address: %s
    balance: 1000000
`, accs[0], accs[1], accs[2], accs[3])

	path := filepath.Join(t.TempDir(), "genesis.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	doc, err := genesis.Load(path)
	assert.Nil(t, err)
	assert.Equal(t, "staging", doc.Name)
	assert.Equal(t, accs[0], buck.Address(doc.Admin))
	assert.Equal(t, accs[1], buck.Address(doc.Treasury))
	assert.Equal(t, big.NewInt(1000000000000000000), doc.Policy.CAPPrice.Int())
	assert.Equal(t, uint64(250), doc.Policy.BandWidthBps)
	assert.True(t, doc.Guards.EnforceCROnClaim)
	want, _ := new(big.Int).SetString("5000000000000000000000", 10)
	assert.Equal(t, want, doc.Guards.MaxClaimTokensPerTx.Int())
	assert.Equal(t, 1, len(doc.Epochs))
	assert.Equal(t, big.NewInt(1000000), doc.Accounts[0].Balance.Int())
}

func TestLoadRejectsBadDocument(t *testing.T) {
	dir := t.TempDir()

	cases := []struct {
		name    string
		content string
		errLike string
	}{
		{
			"missing admin",
			"launchTime: 1\npolicy:\n  capPrice: 100\n",
			"admin must be set",
		},
		{
			"zero cap price",
			fmt.Sprintf("admin: %s\npolicy:\n  capPrice: 0\n", genesis.DevAccounts()[0]),
			"capPrice must be a positive integer",
		},
		{
			"malformed address",
			"admin: not-an-address\npolicy:\n  capPrice: 100\n",
			"invalid address",
		},
		{
			"skim without treasury",
			fmt.Sprintf("admin: %s\npolicy:\n  capPrice: 100\n  skimBps: 50\n", genesis.DevAccounts()[0]),
			"treasury must be set",
		},
	}
	for _, tc := range cases {
		path := filepath.Join(dir, tc.name+".yaml")
		if err := os.WriteFile(path, []byte(tc.content), 0600); err != nil {
			t.Fatal(err)
		}
		_, err := genesis.Load(path)
		if assert.NotNil(t, err, tc.name) {
			assert.Contains(t, err.Error(), tc.errLike, tc.name)
		}
	}
}
