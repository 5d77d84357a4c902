// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package invocations

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/nftstake/api/utils"
	"github.com/vechain/nftstake/chain"
	"github.com/vechain/nftstake/runtime"
)

type Invocations struct {
	ledger *chain.Ledger
}

func New(ledger *chain.Ledger) *Invocations {
	return &Invocations{ledger}
}

// handleInvoke executes the invocation and responds with its receipt. A
// reverted invocation is still a 200 response with reverted set.
func (i *Invocations) handleInvoke(w http.ResponseWriter, req *http.Request) error {
	var inv runtime.Invocation
	if err := utils.ParseJSON(req.Body, &inv); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	receipt, err := i.ledger.Invoke(&inv)
	if err != nil {
		if errors.Is(err, chain.ErrBadInvocation) {
			return utils.BadRequest(err)
		}
		return err
	}
	return utils.WriteJSON(w, receipt)
}

func (i *Invocations) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(i.handleInvoke))
}
