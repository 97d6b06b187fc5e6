// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package admin assembles the operator endpoints: runtime log level,
// request-log toggling and the distribution health probe. The handler is
// served on its own listener, never on the public API address.
package admin

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/buck-labs/buck-v1-sub000/api/admin/apilogs"
	healthapi "github.com/buck-labs/buck-v1-sub000/api/admin/health"
	"github.com/buck-labs/buck-v1-sub000/api/admin/loglevel"
	"github.com/buck-labs/buck-v1-sub000/health"
)

func New(logLevel *slog.LevelVar, apiLogs *atomic.Bool, health *health.Health) http.HandlerFunc {
	router := mux.NewRouter()
	sub := router.PathPrefix("/admin").Subrouter()

	loglevel.New(logLevel).Mount(sub, "/loglevel")
	apilogs.New(apiLogs).Mount(sub, "/apilogs")
	healthapi.NewAPI(health).Mount(sub, "/health")

	handler := handlers.CompressHandler(router)

	return handler.ServeHTTP
}
