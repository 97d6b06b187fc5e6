// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epochs

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/buck-labs/buck-v1-sub000/api/utils"
	"github.com/buck-labs/buck-v1-sub000/node"
	"github.com/buck-labs/buck-v1-sub000/rewards/epochs"
)

type Epochs struct {
	node *node.Node
}

func New(node *node.Node) *Epochs {
	return &Epochs{
		node: node,
	}
}

func (e *Epochs) handleList(w http.ResponseWriter, _ *http.Request) error {
	count, err := e.node.EpochCount()
	if err != nil {
		return err
	}
	now := e.node.Now()
	list := make([]*Epoch, 0, count)
	for id := uint64(1); id <= count; id++ {
		epoch, err := e.node.Epoch(id)
		if err != nil {
			return err
		}
		list = append(list, convertEpoch(epoch, now))
	}
	return utils.WriteJSON(w, list)
}

func (e *Epochs) handleGetLatest(w http.ResponseWriter, _ *http.Request) error {
	epoch, err := e.node.LatestEpoch()
	if err != nil {
		return err
	}
	return e.writeEpoch(w, epoch)
}

func (e *Epochs) handleGetReference(w http.ResponseWriter, _ *http.Request) error {
	epoch, err := e.node.ReferenceEpoch()
	if err != nil {
		return err
	}
	return e.writeEpoch(w, epoch)
}

func (e *Epochs) handleGetEpoch(w http.ResponseWriter, req *http.Request) error {
	id, err := strconv.ParseUint(mux.Vars(req)["id"], 10, 64)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "id"))
	}
	epoch, err := e.node.Epoch(id)
	if err != nil {
		return err
	}
	return e.writeEpoch(w, epoch)
}

func (e *Epochs) handleConfigure(w http.ResponseWriter, req *http.Request) error {
	var config ConfigureRequest
	if err := utils.ParseJSON(req.Body, &config); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	epoch := &epochs.Epoch{
		ID:              config.ID,
		StartTime:       config.StartTime,
		EndTime:         config.EndTime,
		CheckpointStart: config.CheckpointStart,
		CheckpointEnd:   config.CheckpointEnd,
	}
	if err := e.node.ConfigureEpoch(config.Caller, epoch); err != nil {
		return utils.ConvertEngineError(err)
	}
	stored, err := e.node.Epoch(epoch.ID)
	if err != nil {
		return err
	}
	return e.writeEpoch(w, stored)
}

// writeEpoch responds the epoch, or JSON null when there is none.
func (e *Epochs) writeEpoch(w http.ResponseWriter, epoch *epochs.Epoch) error {
	if epoch == nil {
		return utils.WriteJSON(w, nil)
	}
	return utils.WriteJSON(w, convertEpoch(epoch, e.node.Now()))
}

func (e *Epochs) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("").
		Methods(http.MethodGet).
		Name("epochs_list").
		HandlerFunc(utils.WrapHandlerFunc(e.handleList))
	sub.Path("").
		Methods(http.MethodPost).
		Name("epochs_post_epoch").
		HandlerFunc(utils.WrapHandlerFunc(e.handleConfigure))
	sub.Path("/latest").
		Methods(http.MethodGet).
		Name("epochs_get_latest").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetLatest))
	sub.Path("/reference").
		Methods(http.MethodGet).
		Name("epochs_get_reference").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetReference))
	sub.Path("/{id:[0-9]+}").
		Methods(http.MethodGet).
		Name("epochs_get_epoch").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetEpoch))
}
