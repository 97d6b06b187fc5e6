// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/buck-labs/buck-v1-sub000/api/utils"
	"github.com/buck-labs/buck-v1-sub000/node"
)

type Rewards struct {
	node *node.Node
}

func New(node *node.Node) *Rewards {
	return &Rewards{
		node: node,
	}
}

func (r *Rewards) handleGetGlobalState(w http.ResponseWriter, _ *http.Request) error {
	state, err := r.node.GlobalState()
	if err != nil {
		return err
	}
	through, err := r.node.DistributedThrough()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertGlobalState(state, through))
}

func (r *Rewards) handleGetConfig(w http.ResponseWriter, _ *http.Request) error {
	config, err := r.node.Config()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertConfig(config))
}

func (r *Rewards) handleDistribute(w http.ResponseWriter, req *http.Request) error {
	var distribution DistributionRequest
	if err := utils.ParseJSON(req.Body, &distribution); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if distribution.Coupon == nil {
		return utils.BadRequest(errors.New("coupon: missing"))
	}
	report, err := r.node.Distribute(distribution.Caller, (*big.Int)(distribution.Coupon))
	if err != nil {
		return utils.ConvertEngineError(err)
	}
	return utils.WriteJSON(w, convertReport(report))
}

func (r *Rewards) handleListReports(w http.ResponseWriter, _ *http.Request) error {
	count, err := r.node.ReportCount()
	if err != nil {
		return err
	}
	list := make([]*Report, 0, count)
	for i := uint64(1); i <= count; i++ {
		report, err := r.node.ReportAt(i)
		if err != nil {
			return err
		}
		list = append(list, convertReport(report))
	}
	return utils.WriteJSON(w, list)
}

func (r *Rewards) handleGetReport(w http.ResponseWriter, req *http.Request) error {
	epoch, err := strconv.ParseUint(mux.Vars(req)["epoch"], 10, 64)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "epoch"))
	}
	report, err := r.node.EpochReport(epoch)
	if err != nil {
		return err
	}
	if report == nil {
		return utils.WriteJSON(w, nil)
	}
	return utils.WriteJSON(w, convertReport(report))
}

func (r *Rewards) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("").
		Methods(http.MethodGet).
		Name("rewards_get_global_state").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetGlobalState))
	sub.Path("/config").
		Methods(http.MethodGet).
		Name("rewards_get_config").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetConfig))
	sub.Path("/distributions").
		Methods(http.MethodPost).
		Name("rewards_post_distribution").
		HandlerFunc(utils.WrapHandlerFunc(r.handleDistribute))
	sub.Path("/distributions").
		Methods(http.MethodGet).
		Name("rewards_list_distributions").
		HandlerFunc(utils.WrapHandlerFunc(r.handleListReports))
	sub.Path("/distributions/{epoch:[0-9]+}").
		Methods(http.MethodGet).
		Name("rewards_get_distribution").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetReport))
}
