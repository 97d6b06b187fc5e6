// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package middleware

import (
	"bytes"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/buck-labs/buck-v1-sub000/log"
)

// RequestLoggerMiddleware returns a middleware that syphons requests into the logger.
// A request is recorded when logging is toggled on, or when it ran longer than
// slowQueriesThreshold. Threshold zero disables the slow-query path.
func RequestLoggerMiddleware(logger log.Logger, enabled *atomic.Bool, slowQueriesThreshold time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled.Load() && slowQueriesThreshold == time.Duration(0) {
				next.ServeHTTP(w, r)
				return
			}
			// the body can only be read once, so restore it for the handler
			var bodyBytes []byte
			var err error
			if r.Body != nil {
				bodyBytes, err = io.ReadAll(r.Body)
				if err != nil {
					logger.Warn("unexpected body read error", "err", err)
					return // don't pass bad request to the next handler
				}
				r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			}

			start := time.Now()
			next.ServeHTTP(w, r)

			duration := time.Since(start)
			if enabled.Load() || duration > slowQueriesThreshold {
				logger.Info("api request",
					"durationMs", duration.Milliseconds(),
					"timestamp", time.Now().Unix(),
					"uri", r.URL.String(),
					"method", r.Method,
					"body", string(bodyBytes),
				)
			}
		})
	}
}
