// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/buck-labs/buck-v1-sub000/api/utils"
	"github.com/buck-labs/buck-v1-sub000/buck"
	"github.com/buck-labs/buck-v1-sub000/eventdb"
	"github.com/buck-labs/buck-v1-sub000/node"
)

type Events struct {
	node  *node.Node
	limit uint64
}

func New(node *node.Node, limit uint64) *Events {
	return &Events{
		node:  node,
		limit: limit,
	}
}

func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	var filter EventFilter
	if err := utils.ParseJSON(req.Body, &filter); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := validateEventFilter(&filter); err != nil {
		return utils.BadRequest(err)
	}
	return e.query(w, &filter)
}

func (e *Events) handleGet(w http.ResponseWriter, req *http.Request) error {
	filter, err := parseQuery(req)
	if err != nil {
		return utils.BadRequest(err)
	}
	if err := validateEventFilter(filter); err != nil {
		return utils.BadRequest(err)
	}
	return e.query(w, filter)
}

func (e *Events) query(w http.ResponseWriter, filter *EventFilter) error {
	if filter.Options != nil && filter.Options.Limit > e.limit {
		return utils.Forbidden(fmt.Errorf("options.limit exceeds the maximum allowed value of %d", e.limit))
	}
	if filter.Options == nil {
		// detect whether there are more events than the default limit
		filter.Options = &Options{Offset: 0, Limit: e.limit + 1}
	}
	events, err := e.node.Events(convertEventFilter(filter))
	if err != nil {
		return err
	}
	if len(events) > int(e.limit) {
		return utils.Forbidden(fmt.Errorf("the number of filtered events exceeds the maximum allowed value of %d, please use pagination", e.limit))
	}
	return utils.WriteJSON(w, events)
}

// parseQuery maps URL query parameters onto an event filter, so simple
// queries work with a plain GET.
func parseQuery(req *http.Request) (*EventFilter, error) {
	var filter EventFilter
	query := req.URL.Query()

	if kind := query.Get("kind"); kind != "" {
		k := eventdb.Kind(strings.ToLower(kind))
		filter.Kind = &k
	}
	if account := query.Get("account"); account != "" {
		addr, err := buck.ParseAddress(account)
		if err != nil {
			return nil, errors.WithMessage(err, "account")
		}
		filter.Account = addr
	}
	if epoch := query.Get("epoch"); epoch != "" {
		id, err := strconv.ParseUint(epoch, 10, 64)
		if err != nil {
			return nil, errors.WithMessage(err, "epoch")
		}
		filter.Epoch = &id
	}
	filter.Order = eventdb.OrderType(strings.ToUpper(query.Get("order")))

	if from, to := query.Get("from"), query.Get("to"); from != "" || to != "" {
		r := &Range{Unit: eventdb.Seq}
		if strings.EqualFold(query.Get("unit"), string(eventdb.Time)) {
			r.Unit = eventdb.Time
		}
		var err error
		if from != "" {
			if r.From, err = strconv.ParseUint(from, 10, 64); err != nil {
				return nil, errors.WithMessage(err, "from")
			}
		}
		if to != "" {
			if r.To, err = strconv.ParseUint(to, 10, 64); err != nil {
				return nil, errors.WithMessage(err, "to")
			}
		}
		filter.Range = r
	}
	if offset, limit := query.Get("offset"), query.Get("limit"); offset != "" || limit != "" {
		opts := &Options{}
		var err error
		if offset != "" {
			if opts.Offset, err = strconv.ParseUint(offset, 10, 64); err != nil {
				return nil, errors.WithMessage(err, "offset")
			}
		}
		if limit != "" {
			if opts.Limit, err = strconv.ParseUint(limit, 10, 64); err != nil {
				return nil, errors.WithMessage(err, "limit")
			}
		}
		filter.Options = opts
	}
	return &filter, nil
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("").
		Methods(http.MethodGet).
		Name("events_get").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGet))
	sub.Path("").
		Methods(http.MethodPost).
		Name("events_post_filter").
		HandlerFunc(utils.WrapHandlerFunc(e.handleFilter))
}
