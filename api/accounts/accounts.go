// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/buck-labs/buck-v1-sub000/api/utils"
	"github.com/buck-labs/buck-v1-sub000/buck"
	"github.com/buck-labs/buck-v1-sub000/node"
)

type Accounts struct {
	node *node.Node
}

func New(node *node.Node) *Accounts {
	return &Accounts{
		node: node,
	}
}

func (a *Accounts) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := buck.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	state, err := a.node.AccountState(*addr)
	if err != nil {
		return utils.ConvertEngineError(err)
	}
	return utils.WriteJSON(w, convertAccountState(state))
}

func (a *Accounts) handleGetPending(w http.ResponseWriter, req *http.Request) error {
	addr, err := buck.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	amount, err := a.node.PendingRewards(*addr)
	if err != nil {
		return utils.ConvertEngineError(err)
	}
	return utils.WriteJSON(w, &PendingRewards{
		Amount: (*math.HexOrDecimal256)(amount),
	})
}

func (a *Accounts) handleClaim(w http.ResponseWriter, req *http.Request) error {
	addr, err := buck.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	payout, err := a.node.Claim(*addr)
	if err != nil {
		return utils.ConvertEngineError(err)
	}
	return utils.WriteJSON(w, &Payout{
		Amount: (*math.HexOrDecimal256)(payout),
	})
}

func (a *Accounts) handleSetExclusion(w http.ResponseWriter, req *http.Request) error {
	addr, err := buck.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	var exclusion ExclusionRequest
	if err := utils.ParseJSON(req.Body, &exclusion); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := a.node.SetAccountExcluded(exclusion.Caller, *addr, exclusion.Excluded); err != nil {
		return utils.ConvertEngineError(err)
	}
	state, err := a.node.AccountState(*addr)
	if err != nil {
		return utils.ConvertEngineError(err)
	}
	return utils.WriteJSON(w, convertAccountState(state))
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("accounts_get_account").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetAccount))
	sub.Path("/{address}/pending").
		Methods(http.MethodGet).
		Name("accounts_get_pending").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetPending))
	sub.Path("/{address}/claims").
		Methods(http.MethodPost).
		Name("accounts_post_claim").
		HandlerFunc(utils.WrapHandlerFunc(a.handleClaim))
	sub.Path("/{address}/exclusion").
		Methods(http.MethodPost).
		Name("accounts_post_exclusion").
		HandlerFunc(utils.WrapHandlerFunc(a.handleSetExclusion))
}
