// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/buck-labs/buck-v1-sub000/buck"
	"github.com/buck-labs/buck-v1-sub000/rewards"
	"github.com/buck-labs/buck-v1-sub000/rewards/epochs"
)

// GlobalState is the stored engine counters plus the distribution cursor.
type GlobalState struct {
	EligibleUnits         *math.HexOrDecimal256 `json:"eligibleUnits"`
	TreasuryBreakageUnits *math.HexOrDecimal256 `json:"treasuryBreakageUnits"`
	FutureBreakageUnits   *math.HexOrDecimal256 `json:"futureBreakageUnits"`
	TotalBreakageUnits    *math.HexOrDecimal256 `json:"totalBreakageUnits"`
	RewardIndex           *math.HexOrDecimal256 `json:"rewardIndex"`
	DustCarry             *math.HexOrDecimal256 `json:"dustCarry"`
	TotalExcludedSupply   *math.HexOrDecimal256 `json:"totalExcludedSupply"`
	LateEntrySupply       *math.HexOrDecimal256 `json:"lateEntrySupply"`
	LateEntryEpoch        uint64                `json:"lateEntryEpoch"`
	TotalRewardsDeclared  *math.HexOrDecimal256 `json:"totalRewardsDeclared"`
	TotalRewardsClaimed   *math.HexOrDecimal256 `json:"totalRewardsClaimed"`
	LastUpdateTime        uint64                `json:"lastUpdateTime"`
	DistributedThrough    uint64                `json:"distributedThrough"`
}

func convertGlobalState(state *rewards.GlobalState, through uint64) *GlobalState {
	return &GlobalState{
		EligibleUnits:         (*math.HexOrDecimal256)(state.EligibleUnits),
		TreasuryBreakageUnits: (*math.HexOrDecimal256)(state.TreasuryBreakageUnits),
		FutureBreakageUnits:   (*math.HexOrDecimal256)(state.FutureBreakageUnits),
		TotalBreakageUnits:    (*math.HexOrDecimal256)(state.TotalBreakageUnits),
		RewardIndex:           (*math.HexOrDecimal256)(state.RewardIndex),
		DustCarry:             (*math.HexOrDecimal256)(state.DustCarry),
		TotalExcludedSupply:   (*math.HexOrDecimal256)(state.TotalExcludedSupply),
		LateEntrySupply:       (*math.HexOrDecimal256)(state.LateEntrySupply),
		LateEntryEpoch:        state.LateEntryEpoch,
		TotalRewardsDeclared:  (*math.HexOrDecimal256)(state.TotalRewardsDeclared),
		TotalRewardsClaimed:   (*math.HexOrDecimal256)(state.TotalRewardsClaimed),
		LastUpdateTime:        state.LastUpdateTime,
		DistributedThrough:    through,
	}
}

// Config is the engine roles and guard settings.
type Config struct {
	Admin                  buck.Address          `json:"admin"`
	Distributor            buck.Address          `json:"distributor"`
	Treasury               buck.Address          `json:"treasury"`
	BreakageSink           buck.Address          `json:"breakageSink"`
	EnforceCROnClaim       bool                  `json:"enforceCROnClaim"`
	BlockDistributeOnDepeg bool                  `json:"blockDistributeOnDepeg"`
	MaxClaimTokensPerTx    *math.HexOrDecimal256 `json:"maxClaimTokensPerTx"`
	MaxTokensPerEpoch      *math.HexOrDecimal256 `json:"maxTokensPerEpoch"`
	MaxAttestationAge      uint64                `json:"maxAttestationAge"`
}

func convertConfig(config *rewards.Config) *Config {
	return &Config{
		Admin:                  config.Admin,
		Distributor:            config.Distributor,
		Treasury:               config.Treasury,
		BreakageSink:           config.BreakageSink,
		EnforceCROnClaim:       config.EnforceCROnClaim,
		BlockDistributeOnDepeg: config.BlockDistributeOnDepeg,
		MaxClaimTokensPerTx:    (*math.HexOrDecimal256)(config.MaxClaimTokensPerTx),
		MaxTokensPerEpoch:      (*math.HexOrDecimal256)(config.MaxTokensPerEpoch),
		MaxAttestationAge:      config.MaxAttestationAge,
	}
}

// DistributionRequest settles the next ended epoch with the given coupon.
type DistributionRequest struct {
	Caller buck.Address          `json:"caller"`
	Coupon *math.HexOrDecimal256 `json:"coupon"`
}

// Report is the immutable record written by one distribution.
type Report struct {
	Epoch            uint64                `json:"epoch"`
	DistributionTime uint64                `json:"distributionTime"`
	DeltaIndex       *math.HexOrDecimal256 `json:"deltaIndex"`
	DenominatorUnits *math.HexOrDecimal256 `json:"denominatorUnits"`
	TokensAllocated  *math.HexOrDecimal256 `json:"tokensAllocated"`
	DustCarried      *math.HexOrDecimal256 `json:"dustCarried"`
}

func convertReport(report *epochs.Report) *Report {
	return &Report{
		Epoch:            report.Epoch,
		DistributionTime: report.DistributionTime,
		DeltaIndex:       (*math.HexOrDecimal256)(report.DeltaIndex),
		DenominatorUnits: (*math.HexOrDecimal256)(report.DenominatorUnits),
		TokensAllocated:  (*math.HexOrDecimal256)(report.TokensAllocated),
		DustCarried:      (*math.HexOrDecimal256)(report.DustCarried),
	}
}
