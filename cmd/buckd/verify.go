// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"math/big"

	"github.com/pkg/errors"
	"gopkg.in/cheggaaa/pb.v1"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/buck-labs/buck-v1-sub000/buck"
	"github.com/buck-labs/buck-v1-sub000/ledger"
	"github.com/buck-labs/buck-v1-sub000/policy"
	"github.com/buck-labs/buck-v1-sub000/rewards"
	"github.com/buck-labs/buck-v1-sub000/state"
)

// verifyAction rebuilds the account-side sums and checks them against the
// global counters. Everything runs on a read-only view: account records are
// settled on journaled copies that are reverted, never committed.
func verifyAction(ctx *cli.Context) error {
	initLogger(ctx)
	gene := selectGenesis(ctx)
	instanceDir := makeInstanceDir(ctx, gene)

	mainDB := openMainDB(instanceDir)
	defer mainDB.Close()

	st := state.New(mainDB)
	pol := policy.New(buck.PolicyAddress, st)
	led := ledger.New(buck.LedgerAddress, st)
	eng, err := rewards.New(buck.RewardsAddress, st, led, led, pol)
	if err != nil {
		return errors.Wrap(err, "initialize rewards engine")
	}

	return verifyState(eng, led)
}

func verifyState(eng *rewards.Engine, led *ledger.Ledger) error {
	global, err := eng.GlobalState()
	if err != nil {
		return err
	}
	frontier := global.LastUpdateTime

	var refID uint64
	if ref, err := eng.ReferenceEpoch(frontier); err != nil {
		return err
	} else if ref != nil {
		refID = ref.ID
	}

	count, err := led.AccountCount()
	if err != nil {
		return err
	}

	fmt.Printf(">> Verifying state invariants over %d account(s) at frontier %d <<\n", count, frontier)
	bar := pb.New64(int64(count)).
		Set64(0).
		SetMaxWidth(90).
		Start()
	defer func() { bar.NotPrint = true }()

	sumBalances := new(big.Int)
	sumExcluded := new(big.Int)
	sumUnits := new(big.Int)
	sumParked := new(big.Int)
	sumClaimable := new(big.Int)

	for i := uint64(0); i < count; i++ {
		addr, err := led.AccountAt(i)
		if err != nil {
			return err
		}
		acc, err := eng.AccountState(addr, frontier)
		if err != nil {
			return errors.Wrapf(err, "settle account %v", addr)
		}
		sumBalances.Add(sumBalances, acc.Balance)
		sumUnits.Add(sumUnits, acc.Units)
		sumClaimable.Add(sumClaimable, acc.Claimable)
		if acc.Excluded {
			sumExcluded.Add(sumExcluded, acc.Balance)
		} else if acc.EligibleFrom > refID {
			sumParked.Add(sumParked, acc.Balance)
		}
		bar.Add64(1)
	}
	bar.Finish()

	declaredByReports := new(big.Int)
	reportCount, err := eng.ReportCount()
	if err != nil {
		return err
	}
	for i := uint64(1); i <= reportCount; i++ {
		report, err := eng.ReportAt(i)
		if err != nil {
			return err
		}
		declaredByReports.Add(declaredByReports, report.TokensAllocated)
	}

	totalSupply, err := led.TotalSupply()
	if err != nil {
		return err
	}

	var failed int
	checkEqual := func(name string, have, want *big.Int) {
		if have.Cmp(want) == 0 {
			fmt.Printf("  ok    %v\n", name)
			return
		}
		failed++
		fmt.Printf("  FAIL  %v: have %v, want %v\n", name, have, want)
	}
	checkWithin := func(name string, have, limit *big.Int) {
		if have.Cmp(limit) <= 0 {
			fmt.Printf("  ok    %v\n", name)
			return
		}
		failed++
		fmt.Printf("  FAIL  %v: %v exceeds %v\n", name, have, limit)
	}

	checkEqual("total supply equals account balances", totalSupply, sumBalances)
	checkEqual("excluded supply equals excluded balances", global.TotalExcludedSupply, sumExcluded)
	checkEqual("eligible units equal account units", global.EligibleUnits, sumUnits)
	checkEqual("late entry supply equals parked balances", global.LateEntrySupply, sumParked)
	checkEqual("declared rewards equal report allocations", global.TotalRewardsDeclared, declaredByReports)
	checkWithin("claimed rewards within declared", global.TotalRewardsClaimed, global.TotalRewardsDeclared)
	outstanding := new(big.Int).Sub(global.TotalRewardsDeclared, global.TotalRewardsClaimed)
	checkWithin("claimable within outstanding declared", sumClaimable, outstanding)

	if failed > 0 {
		return errors.Errorf("%d invariant(s) violated", failed)
	}
	fmt.Println(">> State verified <<")
	return nil
}
