// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package feed_test

import (
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buck-labs/buck-v1-sub000/api/feed"
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
	alice = buck.BytesToAddress([]byte("alice"))
)

type testServer struct {
	*httptest.Server
	node *node.Node
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

	events, err := eventdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(events.Close)

	require.NoError(t, pol.SetAdmin(admin, admin))
	require.NoError(t, pol.SetCAPPrice(admin, new(big.Int).Set(buck.ParPrice)))
	require.NoError(t, eng.SetAdmin(admin, admin))

	clock := clockwork.NewFakeClockAt(time.Unix(int64(launch), 0))
	n := node.New(st, eng, led, pol, node.Options{Events: events, Clock: clock})

	// seed one audit event before anyone subscribes
	require.NoError(t, n.ConfigureEpoch(admin, &epochs.Epoch{
		ID:              1,
		StartTime:       launch,
		EndTime:         launch + 30*day,
		CheckpointStart: launch + 20*day,
		CheckpointEnd:   launch + 27*day,
	}))

	router := mux.NewRouter()
	f := feed.New(n, []string{"*"})
	f.Mount(router, "/feed")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	t.Cleanup(f.Close)
	return &testServer{ts, n}
}

func wsURL(ts *testServer, query string) string {
	return strings.Replace(ts.URL, "http", "ws", 1) + "/feed" + query
}

func readEvent(t *testing.T, conn *websocket.Conn) *eventdb.Event {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var event eventdb.Event
	require.NoError(t, conn.ReadJSON(&event))
	return &event
}

func TestSubscribeFromStart(t *testing.T) {
	ts := newServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "?pos=0"), nil)
	require.NoError(t, err)
	defer conn.Close()

	event := readEvent(t, conn)
	assert.Equal(t, uint64(1), event.Seq)
	assert.Equal(t, eventdb.KindEpoch, event.Kind)

	// a live event lands on the open subscription
	require.NoError(t, ts.node.SetAccountExcluded(admin, alice, true))
	event = readEvent(t, conn)
	assert.Equal(t, uint64(2), event.Seq)
	assert.Equal(t, eventdb.KindExclusion, event.Kind)
	require.NotNil(t, event.Account)
	assert.Equal(t, alice, *event.Account)
}

func TestSubscribeTail(t *testing.T) {
	ts := newServer(t)

	// without pos the subscription starts after the seeded event
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, ""), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, ts.node.SetAccountExcluded(admin, alice, true))
	event := readEvent(t, conn)
	assert.Equal(t, uint64(2), event.Seq)
}

func TestSubscribeBadPosition(t *testing.T) {
	ts := newServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, "?pos=99"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(wsURL(ts, "?pos=junk"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
