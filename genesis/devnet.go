// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/buck-labs/buck-v1-sub000/buck"
)

var devAccounts atomic.Value

// DevAccounts returns pre-alloced accounts for solo mode. The first one is
// the admin, distributor and treasury.
func DevAccounts() []buck.Address {
	if accs := devAccounts.Load(); accs != nil {
		return accs.([]buck.Address)
	}

	var accs []buck.Address
	for i := 0; i < 10; i++ {
		hash := buck.Blake2b([]byte(fmt.Sprintf("buck-dev-account-%d", i)))
		accs = append(accs, buck.BytesToAddress(hash.Bytes()))
	}
	devAccounts.Store(accs)
	return accs
}

// NewDevnet creates the boot document for solo mode: one year of back-to-back
// 30 day epochs with a 7 day checkpoint window, par price, no skim, guards
// off and every dev account funded.
func NewDevnet() *Document {
	launchTime := uint64(1767225600) // 'Thu Jan 01 2026 00:00:00 GMT+0000'

	const (
		day      = uint64(24 * 60 * 60)
		duration = 30 * day
	)

	accs := DevAccounts()
	admin := accs[0]

	doc := &Document{
		Name:         "devnet",
		LaunchTime:   launchTime,
		Admin:        Address(admin),
		Distributor:  Address(admin),
		Treasury:     Address(admin),
		BreakageSink: Address(buck.BytesToAddress([]byte("buck-dev-sink"))),
		Policy: PolicySeed{
			CAPPrice:        (*Quantity)(new(big.Int).Set(buck.ParPrice)),
			BandWidthBps:    500,
			SkimBps:         buck.InitialSkimBps,
			CollateralRatio: (*Quantity)(new(big.Int).Set(buck.ParPrice)),
		},
		Guards: Guards{
			EnforceCROnClaim:       false,
			BlockDistributeOnDepeg: false,
			MaxAttestationAge:      buck.InitialMaxAttestationAge,
		},
	}

	for i := uint64(0); i < 12; i++ {
		start := launchTime + i*duration
		doc.Epochs = append(doc.Epochs, EpochSeed{
			StartTime:       start,
			CheckpointStart: start + 23*day,
			CheckpointEnd:   start + 29*day,
			EndTime:         start + duration,
		})
	}

	balance, _ := new(big.Int).SetString("1000000000000000000000000", 10)
	for _, acc := range accs {
		doc.Accounts = append(doc.Accounts, Account{
			Address: Address(acc),
			Balance: (*Quantity)(new(big.Int).Set(balance)),
		})
	}
	return doc
}
