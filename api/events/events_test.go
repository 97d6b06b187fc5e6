// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events_test

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

	eventsapi "github.com/buck-labs/buck-v1-sub000/api/events"
	"github.com/buck-labs/buck-v1-sub000/buck"
	"github.com/buck-labs/buck-v1-sub000/eventdb"
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
	bob   = buck.BytesToAddress([]byte("bob"))
)

// newServer seeds four audit events: an epoch configuration, a distribution,
// a claim and an exclusion. The server limit is 3 to exercise pagination.
func newServer(t *testing.T) *httptest.Server {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db)
	pol := policy.New(buck.PolicyAddress, st)
	led := ledger.New(buck.LedgerAddress, st)
	eng, err := rewards.New(buck.RewardsAddress, st, led, led, pol)
	require.NoError(t, err)
	led.SetHooks(eng)

	events, err := eventdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(events.Close)

	require.NoError(t, pol.SetAdmin(admin, admin))
	require.NoError(t, pol.SetCAPPrice(admin, new(big.Int).Set(buck.ParPrice)))
	require.NoError(t, eng.SetAdmin(admin, admin))
	require.NoError(t, eng.SetBreakageSink(admin, sink, launch))

	clock := clockwork.NewFakeClockAt(time.Unix(int64(launch), 0))
	n := node.New(st, eng, led, pol, node.Options{Events: events, Clock: clock})

	require.NoError(t, n.ConfigureEpoch(admin, &epochs.Epoch{
		ID:              1,
		StartTime:       launch,
		EndTime:         launch + 30*day,
		CheckpointStart: launch + 20*day,
		CheckpointEnd:   launch + 27*day,
	}))
	require.NoError(t, n.Mint(alice, big.NewInt(100_000)))
	require.NoError(t, n.Mint(bob, big.NewInt(100_000)))
	clock.Advance(30 * day * time.Second)
	_, err = n.Distribute(admin, big.NewInt(1000))
	require.NoError(t, err)
	_, err = n.Claim(alice)
	require.NoError(t, err)
	require.NoError(t, n.SetAccountExcluded(admin, bob, true))

	router := mux.NewRouter()
	eventsapi.New(n, 3).Mount(router, "/events")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
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

func decodeEvents(t *testing.T, body []byte) []*eventdb.Event {
	var events []*eventdb.Event
	require.NoError(t, json.Unmarshal(body, &events))
	return events
}

func TestGetEvents(t *testing.T) {
	ts := newServer(t)

	// four events exceed the server limit of three
	_, code := httpGetCode(t, ts.URL+"/events")
	assert.Equal(t, http.StatusForbidden, code)

	body, code := httpGetCode(t, ts.URL+"/events?limit=2")
	require.Equal(t, http.StatusOK, code)
	events := decodeEvents(t, body)
	require.Len(t, events, 2)
	assert.Equal(t, eventdb.KindEpoch, events[0].Kind)
	assert.Equal(t, eventdb.KindDistribution, events[1].Kind)

	body, code = httpGetCode(t, ts.URL+"/events?limit=2&offset=2")
	require.Equal(t, http.StatusOK, code)
	events = decodeEvents(t, body)
	require.Len(t, events, 2)
	assert.Equal(t, eventdb.KindClaim, events[0].Kind)
	assert.Equal(t, eventdb.KindExclusion, events[1].Kind)

	// alice holds half the eligible units, so her claim is half the 999
	// allocated tokens rounded down
	body, code = httpGetCode(t, ts.URL+"/events?kind=claim")
	require.Equal(t, http.StatusOK, code)
	events = decodeEvents(t, body)
	require.Len(t, events, 1)
	assert.Equal(t, big.NewInt(499), events[0].Amount)
	assert.Equal(t, alice, *events[0].Account)

	body, code = httpGetCode(t, ts.URL+"/events?account="+alice.String())
	require.Equal(t, http.StatusOK, code)
	require.Len(t, decodeEvents(t, body), 1)

	// only the epoch configuration happened at launch
	body, code = httpGetCode(t, ts.URL+"/events?unit=time&from="+
		big.NewInt(int64(launch)).String()+"&to="+big.NewInt(int64(launch)).String())
	require.Equal(t, http.StatusOK, code)
	events = decodeEvents(t, body)
	require.Len(t, events, 1)
	assert.Equal(t, eventdb.KindEpoch, events[0].Kind)

	_, code = httpGetCode(t, ts.URL+"/events?kind=bogus")
	assert.Equal(t, http.StatusBadRequest, code)

	_, code = httpGetCode(t, ts.URL+"/events?account=junk")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestPostEventsFilter(t *testing.T) {
	ts := newServer(t)

	body, code := httpPostCode(t, ts.URL+"/events",
		[]byte(`{"order":"DESC","options":{"limit":2}}`))
	require.Equal(t, http.StatusOK, code)
	events := decodeEvents(t, body)
	require.Len(t, events, 2)
	assert.Equal(t, eventdb.KindExclusion, events[0].Kind)
	assert.Equal(t, eventdb.KindClaim, events[1].Kind)

	body, code = httpPostCode(t, ts.URL+"/events",
		[]byte(`{"kind":"distribution","options":{"limit":3}}`))
	require.Equal(t, http.StatusOK, code)
	events = decodeEvents(t, body)
	require.Len(t, events, 1)
	assert.Equal(t, uint64(1), events[0].Epoch)

	_, code = httpPostCode(t, ts.URL+"/events",
		[]byte(`{"options":{"limit":100}}`))
	assert.Equal(t, http.StatusForbidden, code)

	_, code = httpPostCode(t, ts.URL+"/events", []byte(`{"order":"sideways"}`))
	assert.Equal(t, http.StatusBadRequest, code)

	_, code = httpPostCode(t, ts.URL+"/events", []byte(`{"bogus":1}`))
	assert.Equal(t, http.StatusBadRequest, code)
}
