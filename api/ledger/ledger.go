// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger exposes the reference ledger over HTTP. The routes are
// only mounted in solo mode: the ledger is a dev vehicle, production
// deployments track balances elsewhere.
package ledger

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/buck-labs/buck-v1-sub000/api/utils"
	"github.com/buck-labs/buck-v1-sub000/node"
)

type Ledger struct {
	node *node.Node
}

func New(node *node.Node) *Ledger {
	return &Ledger{
		node: node,
	}
}

func (l *Ledger) handleTransfer(w http.ResponseWriter, req *http.Request) error {
	var transfer TransferRequest
	if err := utils.ParseJSON(req.Body, &transfer); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if transfer.Amount == nil {
		return utils.BadRequest(errors.New("amount: missing"))
	}
	if err := l.node.Transfer(transfer.From, transfer.To, (*big.Int)(transfer.Amount)); err != nil {
		return utils.ConvertEngineError(err)
	}
	return l.handleGetSupply(w, req)
}

func (l *Ledger) handleMint(w http.ResponseWriter, req *http.Request) error {
	var mint MintRequest
	if err := utils.ParseJSON(req.Body, &mint); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if mint.Amount == nil {
		return utils.BadRequest(errors.New("amount: missing"))
	}
	if err := l.node.Mint(mint.To, (*big.Int)(mint.Amount)); err != nil {
		return utils.ConvertEngineError(err)
	}
	return l.handleGetSupply(w, req)
}

func (l *Ledger) handleBurn(w http.ResponseWriter, req *http.Request) error {
	var burn BurnRequest
	if err := utils.ParseJSON(req.Body, &burn); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if burn.Amount == nil {
		return utils.BadRequest(errors.New("amount: missing"))
	}
	if err := l.node.Burn(burn.From, (*big.Int)(burn.Amount)); err != nil {
		return utils.ConvertEngineError(err)
	}
	return l.handleGetSupply(w, req)
}

func (l *Ledger) handleGetSupply(w http.ResponseWriter, _ *http.Request) error {
	supply, err := l.node.TotalSupply()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Supply{
		TotalSupply: (*math.HexOrDecimal256)(supply),
	})
}

func (l *Ledger) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("/transfers").
		Methods(http.MethodPost).
		Name("ledger_post_transfer").
		HandlerFunc(utils.WrapHandlerFunc(l.handleTransfer))
	sub.Path("/mints").
		Methods(http.MethodPost).
		Name("ledger_post_mint").
		HandlerFunc(utils.WrapHandlerFunc(l.handleMint))
	sub.Path("/burns").
		Methods(http.MethodPost).
		Name("ledger_post_burn").
		HandlerFunc(utils.WrapHandlerFunc(l.handleBurn))
	sub.Path("/supply").
		Methods(http.MethodGet).
		Name("ledger_get_supply").
		HandlerFunc(utils.WrapHandlerFunc(l.handleGetSupply))
}
