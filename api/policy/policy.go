// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package policy

import (
	"math/big"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/buck-labs/buck-v1-sub000/api/utils"
	"github.com/buck-labs/buck-v1-sub000/node"
)

type Policy struct {
	node *node.Node
}

func New(node *node.Node) *Policy {
	return &Policy{
		node: node,
	}
}

func (p *Policy) handleGetSnapshot(w http.ResponseWriter, _ *http.Request) error {
	snapshot, err := p.node.PolicySnapshot()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertSnapshot(snapshot))
}

func (p *Policy) handlePostPrice(w http.ResponseWriter, req *http.Request) error {
	var price PriceRequest
	if err := utils.ParseJSON(req.Body, &price); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if price.Price == nil {
		return utils.BadRequest(errors.New("price: missing"))
	}
	if err := p.node.SetCAPPrice(price.Caller, (*big.Int)(price.Price)); err != nil {
		return utils.ConvertEngineError(err)
	}
	return p.handleGetSnapshot(w, req)
}

func (p *Policy) handlePostAttestation(w http.ResponseWriter, req *http.Request) error {
	var attestation AttestationRequest
	if err := utils.ParseJSON(req.Body, &attestation); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if attestation.Ratio == nil {
		return utils.BadRequest(errors.New("ratio: missing"))
	}
	if err := p.node.AttestCollateralRatio(attestation.Caller, (*big.Int)(attestation.Ratio)); err != nil {
		return utils.ConvertEngineError(err)
	}
	return p.handleGetSnapshot(w, req)
}

func (p *Policy) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("").
		Methods(http.MethodGet).
		Name("policy_get_snapshot").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetSnapshot))
	sub.Path("/price").
		Methods(http.MethodPost).
		Name("policy_post_price").
		HandlerFunc(utils.WrapHandlerFunc(p.handlePostPrice))
	sub.Path("/attestations").
		Methods(http.MethodPost).
		Name("policy_post_attestation").
		HandlerFunc(utils.WrapHandlerFunc(p.handlePostAttestation))
}
