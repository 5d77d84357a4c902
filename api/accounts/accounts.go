// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/nftstake/api/utils"
	"github.com/vechain/nftstake/builtin/reverts"
	"github.com/vechain/nftstake/chain"
	"github.com/vechain/nftstake/ledger"
)

// Account is the json form of a ledger account.
type Account struct {
	Owner    ledger.Address `json:"owner"`
	Lamports uint64         `json:"lamports"`
	Data     hexutil.Bytes  `json:"data"`
}

type Accounts struct {
	ledger *chain.Ledger
}

func New(ledger *chain.Ledger) *Accounts {
	return &Accounts{ledger}
}

func (a *Accounts) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	acc, err := a.ledger.Account(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Account{
		Owner:    acc.Owner,
		Lamports: acc.Lamports,
		Data:     acc.Data,
	})
}

func (a *Accounts) handleGetTokenAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	acc, err := a.ledger.TokenAccount(addr)
	if err != nil {
		if errors.Is(err, reverts.ErrInvalidRecordData) {
			return utils.NotFound(errors.New("not a token account"))
		}
		return err
	}
	return utils.WriteJSON(w, acc)
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(a.handleGetAccount))
	sub.Path("/{address}/token").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(a.handleGetTokenAccount))
}
