// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts_test

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buck-labs/buck-v1-sub000/api/accounts"
	"github.com/buck-labs/buck-v1-sub000/buck"
	"github.com/buck-labs/buck-v1-sub000/ledger"
	"github.com/buck-labs/buck-v1-sub000/lvldb"
	"github.com/buck-labs/buck-v1-sub000/node"
	"github.com/buck-labs/buck-v1-sub000/policy"
	"github.com/buck-labs/buck-v1-sub000/rewards"
	"github.com/buck-labs/buck-v1-sub000/rewards/epochs"
	"github.com/buck-labs/buck-v1-sub000/state"
)

const (
	day    = 86400
	launch = uint64(1700000000)
)

var (
	admin = buck.BytesToAddress([]byte("admin"))
	sink  = buck.BytesToAddress([]byte("sink"))
	alice = buck.BytesToAddress([]byte("alice"))
)

type testServer struct {
	*httptest.Server
	clock *clockwork.FakeClock
	node  *node.Node
}

func newServer(t *testing.T) *testServer {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db)
	pol := policy.New(buck.PolicyAddress, st)
	led := ledger.New(buck.LedgerAddress, st)
	eng, err := rewards.New(buck.RewardsAddress, st, led, led, pol)
	require.NoError(t, err)
	led.SetHooks(eng)

	require.NoError(t, pol.SetAdmin(admin, admin))
	require.NoError(t, pol.SetCAPPrice(admin, new(big.Int).Set(buck.ParPrice)))
	require.NoError(t, eng.SetAdmin(admin, admin))
	require.NoError(t, eng.SetBreakageSink(admin, sink, launch))

	clock := clockwork.NewFakeClockAt(time.Unix(int64(launch), 0))
	n := node.New(st, eng, led, pol, node.Options{Clock: clock})

	require.NoError(t, n.ConfigureEpoch(admin, &epochs.Epoch{
		ID:              1,
		StartTime:       launch,
		EndTime:         launch + 30*day,
		CheckpointStart: launch + 20*day,
		CheckpointEnd:   launch + 27*day,
	}))

	router := mux.NewRouter()
	accounts.New(n).Mount(router, "/accounts")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return &testServer{ts, clock, n}
}

func httpGetCode(t *testing.T, url string) ([]byte, int) {
	res, err := http.Get(url)
	require.NoError(t, err)
	body, err := io.ReadAll(res.Body)
	res.Body.Close()
	require.NoError(t, err)
	return body, res.StatusCode
}

func httpPostCode(t *testing.T, url string, data []byte) ([]byte, int) {
	res, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	body, err := io.ReadAll(res.Body)
	res.Body.Close()
	require.NoError(t, err)
	return body, res.StatusCode
}

func TestGetAccount(t *testing.T) {
	ts := newServer(t)
	require.NoError(t, ts.node.Mint(alice, big.NewInt(100_000)))

	body, code := httpGetCode(t, ts.URL+"/accounts/"+alice.String())
	require.Equal(t, http.StatusOK, code)

	var state accounts.AccountState
	require.NoError(t, json.Unmarshal(body, &state))
	assert.Equal(t, big.NewInt(100_000), (*big.Int)(state.Balance))
	assert.Equal(t, uint64(1), state.EligibleFrom)
	assert.False(t, state.Excluded)

	_, code = httpGetCode(t, ts.URL+"/accounts/not-an-address")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestClaimFlow(t *testing.T) {
	ts := newServer(t)
	require.NoError(t, ts.node.Mint(alice, big.NewInt(100_000)))
	ts.clock.Advance(30 * day * time.Second)

	_, err := ts.node.Distribute(admin, big.NewInt(1000))
	require.NoError(t, err)

	body, code := httpGetCode(t, ts.URL+"/accounts/"+alice.String()+"/pending")
	require.Equal(t, http.StatusOK, code)
	var pending accounts.PendingRewards
	require.NoError(t, json.Unmarshal(body, &pending))
	assert.Equal(t, big.NewInt(999), (*big.Int)(pending.Amount))

	body, code = httpPostCode(t, ts.URL+"/accounts/"+alice.String()+"/claims", nil)
	require.Equal(t, http.StatusOK, code)
	var payout accounts.Payout
	require.NoError(t, json.Unmarshal(body, &payout))
	assert.Equal(t, big.NewInt(999), (*big.Int)(payout.Amount))

	// a second claim pays nothing
	body, code = httpPostCode(t, ts.URL+"/accounts/"+alice.String()+"/claims", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &payout))
	assert.Equal(t, 0, (*big.Int)(payout.Amount).Sign())

	body, code = httpGetCode(t, ts.URL+"/accounts/"+alice.String())
	require.Equal(t, http.StatusOK, code)
	var state accounts.AccountState
	require.NoError(t, json.Unmarshal(body, &state))
	assert.Equal(t, big.NewInt(100_999), (*big.Int)(state.Balance))
}

func TestSetExclusion(t *testing.T) {
	ts := newServer(t)
	require.NoError(t, ts.node.Mint(alice, big.NewInt(100_000)))

	req, err := json.Marshal(&accounts.ExclusionRequest{Caller: admin, Excluded: true})
	require.NoError(t, err)
	body, code := httpPostCode(t, ts.URL+"/accounts/"+alice.String()+"/exclusion", req)
	require.Equal(t, http.StatusOK, code)

	var state accounts.AccountState
	require.NoError(t, json.Unmarshal(body, &state))
	assert.True(t, state.Excluded)

	// only the admin may flip exclusion
	req, err = json.Marshal(&accounts.ExclusionRequest{Caller: alice, Excluded: false})
	require.NoError(t, err)
	_, code = httpPostCode(t, ts.URL+"/accounts/"+alice.String()+"/exclusion", req)
	assert.Equal(t, http.StatusForbidden, code)

	// excluded accounts cannot claim
	_, code = httpPostCode(t, ts.URL+"/accounts/"+alice.String()+"/claims", nil)
	assert.Equal(t, http.StatusForbidden, code)
}
