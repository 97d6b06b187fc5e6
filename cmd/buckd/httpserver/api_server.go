// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package httpserver owns the daemon's listeners: the public API server and
// the optional metrics and admin servers. Every Start function returns the
// reachable URL and a closer that stops the listener and waits the serving
// goroutine out.
package httpserver

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/buck-labs/buck-v1-sub000/co"
)

// requestBodyLimit caps request bodies; the largest legitimate payload is a
// filter query of a few hundred bytes.
const requestBodyLimit = 200 * 1024

// StartAPIServer serves the public API handler. A non-zero timeout bounds
// request contexts, except on the feed path whose websocket connections
// outlive any sane limit.
func StartAPIServer(addr string, handler http.Handler, timeout time.Duration) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen API addr [%v]", addr)
	}

	if timeout > 0 {
		handler = handleAPITimeout(handler, timeout)
	}
	handler = handleRequestBodyLimit(handler)

	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second}
	var goes co.Goes
	goes.Go(func() {
		srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/", func() {
		srv.Close()
		goes.Wait()
	}, nil
}

func handleAPITimeout(h http.Handler, timeout time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/feed") {
			h.ServeHTTP(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		h.ServeHTTP(w, r.WithContext(ctx))
	})
}

func handleRequestBodyLimit(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, requestBodyLimit)
		h.ServeHTTP(w, r)
	})
}
