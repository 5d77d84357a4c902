// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package clock

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/nftstake/api/utils"
	"github.com/vechain/nftstake/chain"
)

// AdvanceRequest moves the ledger time forward.
type AdvanceRequest struct {
	Seconds uint64 `json:"seconds"`
}

type Clock struct {
	ledger *chain.Ledger
}

func New(ledger *chain.Ledger) *Clock {
	return &Clock{ledger}
}

func (c *Clock) handleGetClock(w http.ResponseWriter, _ *http.Request) error {
	return utils.WriteJSON(w, c.ledger.Clock())
}

func (c *Clock) handleAdvance(w http.ResponseWriter, req *http.Request) error {
	var body AdvanceRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	clock, err := c.ledger.Advance(body.Seconds)
	if err != nil {
		return utils.BadRequest(err)
	}
	return utils.WriteJSON(w, clock)
}

func (c *Clock) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(c.handleGetClock))
	sub.Path("/advance").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(c.handleAdvance))
}
