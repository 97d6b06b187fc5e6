// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api exposes the node over REST: holder state and claims, the
// epoch schedule, distributions, the policy oracle and the audit event log,
// plus a websocket feed of live events.
package api

import (
	"net/http"
	"net/http/pprof"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/buck-labs/buck-v1-sub000/api/accounts"
	"github.com/buck-labs/buck-v1-sub000/api/epochs"
	"github.com/buck-labs/buck-v1-sub000/api/events"
	"github.com/buck-labs/buck-v1-sub000/api/feed"
	ledgerapi "github.com/buck-labs/buck-v1-sub000/api/ledger"
	"github.com/buck-labs/buck-v1-sub000/api/middleware"
	policyapi "github.com/buck-labs/buck-v1-sub000/api/policy"
	rewardsapi "github.com/buck-labs/buck-v1-sub000/api/rewards"
	"github.com/buck-labs/buck-v1-sub000/log"
	"github.com/buck-labs/buck-v1-sub000/node"
)

var logger = log.WithContext("pkg", "api")

// slowRequestThreshold flags requests worth logging even when the request
// logger is toggled off.
const slowRequestThreshold = time.Second

type Options struct {
	AllowedOrigins string
	PprofOn        bool
	SkipEvents     bool
	EnableMetrics  bool
	EventsLimit    uint64

	// EnableDevLedger mounts the mutating ledger endpoints. They drive the
	// reference ledger only and have no place on a production node.
	EnableDevLedger bool

	// APILogs toggles request logging at runtime, shared with the admin
	// server. Nil disables the request logger entirely.
	APILogs *atomic.Bool
}

// New assembles the REST router over a node. The returned closer interrupts
// the websocket feed subscriptions, which hold hijacked connections the
// server cannot shut down by itself.
func New(nd *node.Node, opts Options) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	accounts.New(nd).Mount(router, "/accounts")
	rewardsapi.New(nd).Mount(router, "/rewards")
	epochs.New(nd).Mount(router, "/epochs")
	policyapi.New(nd).Mount(router, "/policy")
	if opts.EnableDevLedger {
		ledgerapi.New(nd).Mount(router, "/ledger")
	}

	closer := func() {}
	if !opts.SkipEvents && nd.AuditEnabled() {
		events.New(nd, opts.EventsLimit).Mount(router, "/events")
		fd := feed.New(nd, origins)
		fd.Mount(router, "/feed")
		closer = fd.Close // feed handles hijacked conns, which need to be closed
	}

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	if opts.APILogs != nil {
		handler = middleware.RequestLoggerMiddleware(logger, opts.APILogs, slowRequestThreshold)(handler)
	}

	return handler.ServeHTTP, closer
}
