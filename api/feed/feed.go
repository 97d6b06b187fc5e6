// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package feed streams audit events over a websocket. A subscriber names
// the sequence number it has seen last and receives everything after it,
// live events included, in insertion order.
package feed

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/buck-labs/buck-v1-sub000/api/utils"
	"github.com/buck-labs/buck-v1-sub000/eventdb"
	"github.com/buck-labs/buck-v1-sub000/log"
	"github.com/buck-labs/buck-v1-sub000/node"
)

var logger = log.WithContext("pkg", "feed")

// batchLimit bounds one catch-up query; a full batch means more rows are
// pending and the next query runs without waiting for the tick signal.
const batchLimit = 256

type Feed struct {
	node     *node.Node
	upgrader *websocket.Upgrader
	done     chan struct{}
	wg       sync.WaitGroup
}

func New(node *node.Node, allowedOrigins []string) *Feed {
	return &Feed{
		node: node,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(req *http.Request) bool {
				origin := req.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				return false
			},
		},
		done: make(chan struct{}),
	}
}

func (f *Feed) handleSubscribe(w http.ResponseWriter, req *http.Request) error {
	head, err := f.headSeq()
	if err != nil {
		return err
	}
	pos := head
	if posStr := req.URL.Query().Get("pos"); posStr != "" {
		pos, err = strconv.ParseUint(posStr, 10, 64)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "pos"))
		}
		if pos > head {
			return utils.BadRequest(errors.Errorf("pos: %d is beyond the log head %d", pos, head))
		}
	}

	conn, err := f.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader has already responded
		return nil
	}
	defer conn.Close()

	f.wg.Add(1)
	defer f.wg.Done()

	// the read pump only detects the remote hanging up
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := f.node.Ticker()
	for {
		events, err := f.node.Events(&eventdb.Filter{
			Range:   &eventdb.Range{Unit: eventdb.Seq, From: pos + 1},
			Options: &eventdb.Options{Limit: batchLimit},
		})
		if err != nil {
			logger.Warn("feed query failed", "err", err)
			return nil
		}
		for _, event := range events {
			if err := conn.WriteJSON(event); err != nil {
				logger.Debug("feed write failed", "err", err)
				return nil
			}
			pos = event.Seq
		}
		if len(events) == batchLimit {
			continue
		}
		select {
		case <-ticker.C():
		case <-closed:
			return nil
		case <-f.done:
			return nil
		}
	}
}

// headSeq is the sequence number of the newest audit event, zero when the
// log is empty.
func (f *Feed) headSeq() (uint64, error) {
	events, err := f.node.Events(&eventdb.Filter{
		Order:   eventdb.DESC,
		Options: &eventdb.Options{Limit: 1},
	})
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}
	return events[0].Seq, nil
}

// Close interrupts open subscriptions and waits for their handlers.
func (f *Feed) Close() {
	close(f.done)
	f.wg.Wait()
}

func (f *Feed) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("").
		Methods(http.MethodGet).
		Name("feed_subscribe").
		HandlerFunc(utils.WrapHandlerFunc(f.handleSubscribe))
}
