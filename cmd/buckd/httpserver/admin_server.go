// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package httpserver

import (
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/buck-labs/buck-v1-sub000/api/admin"
	"github.com/buck-labs/buck-v1-sub000/co"
	"github.com/buck-labs/buck-v1-sub000/health"
)

// StartAdminServer exposes the runtime controls (log level, API request
// logging) and the health probe on a separate listener, typically bound to
// loopback.
func StartAdminServer(addr string, logLevel *slog.LevelVar, apiLogs *atomic.Bool, health *health.Health) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen admin API addr [%v]", addr)
	}

	srv := &http.Server{
		Handler:           admin.New(logLevel, apiLogs, health),
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
	}
	var goes co.Goes
	goes.Go(func() {
		srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/admin", func() {
		srv.Close()
		goes.Wait()
	}, nil
}
