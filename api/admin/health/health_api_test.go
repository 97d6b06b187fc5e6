// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
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

	"github.com/buck-labs/buck-v1-sub000/buck"
	"github.com/buck-labs/buck-v1-sub000/health"
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

var admin = buck.BytesToAddress([]byte("admin"))

func initAPIServer(t *testing.T) (*httptest.Server, *health.Health, *clockwork.FakeClock) {
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

	clock := clockwork.NewFakeClockAt(time.Unix(int64(launch), 0))
	buckNode := node.New(st, eng, led, pol, node.Options{Clock: clock})

	require.NoError(t, buckNode.ConfigureEpoch(admin, &epochs.Epoch{
		ID:              1,
		StartTime:       launch,
		EndTime:         launch + 30*day,
		CheckpointStart: launch + 20*day,
		CheckpointEnd:   launch + 27*day,
	}))

	healthStatus := health.New(buckNode)
	router := mux.NewRouter()
	NewAPI(healthStatus).Mount(router, "/health")

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts, healthStatus, clock
}

func httpGet(t *testing.T, url string) ([]byte, int) {
	res, err := http.Get(url) //#nosec G107
	require.NoError(t, err)
	defer res.Body.Close()

	r, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return r, res.StatusCode
}

func TestHealthEndpoint(t *testing.T) {
	ts, healthStatus, clock := initAPIServer(t)

	var status health.Status
	respBody, statusCode := httpGet(t, ts.URL+"/health")
	require.NoError(t, json.Unmarshal(respBody, &status))
	assert.Equal(t, http.StatusServiceUnavailable, statusCode)
	assert.False(t, status.Healthy)
	assert.False(t, status.Bootstrapped)

	healthStatus.BootstrapStatus(true)

	respBody, statusCode = httpGet(t, ts.URL+"/health")
	require.NoError(t, json.Unmarshal(respBody, &status))
	assert.Equal(t, http.StatusOK, statusCode)
	assert.True(t, status.Healthy)
	assert.Equal(t, uint64(0), status.Distribution.Lag)

	// One ended epoch is tolerated by default but not with maxLag=0.
	clock.Advance(31 * day * time.Second)

	respBody, statusCode = httpGet(t, ts.URL+"/health")
	require.NoError(t, json.Unmarshal(respBody, &status))
	assert.Equal(t, http.StatusOK, statusCode)
	assert.Equal(t, uint64(1), status.Distribution.Lag)

	respBody, statusCode = httpGet(t, ts.URL+"/health?maxLag=0")
	require.NoError(t, json.Unmarshal(respBody, &status))
	assert.Equal(t, http.StatusServiceUnavailable, statusCode)
	assert.False(t, status.Healthy)
}
