// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staking serves the records of the staking program.
package staking

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/nftstake/api/utils"
	"github.com/vechain/nftstake/builtin/staker/platform"
	"github.com/vechain/nftstake/builtin/staker/position"
	"github.com/vechain/nftstake/builtin/staker/rewards"
	"github.com/vechain/nftstake/chain"
	"github.com/vechain/nftstake/ledger"
)

// Platform is a registry with its escrow authority.
type Platform struct {
	Address  ledger.Address     `json:"address"`
	Escrow   ledger.Address     `json:"escrow"`
	Registry *platform.Registry `json:"registry"`
}

// Position is a position with its accrued reward at the current clock. The
// reward is paid only when Eligible.
type Position struct {
	Address       ledger.Address     `json:"address"`
	Position      *position.Position `json:"position"`
	Elapsed       uint64             `json:"elapsed"`
	PendingReward uint64             `json:"pendingReward"`
	Eligible      bool               `json:"eligible"`
}

type Staking struct {
	ledger *chain.Ledger
}

func New(ledger *chain.Ledger) *Staking {
	return &Staking{ledger}
}

func (s *Staking) handleGetPlatform(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	reg, err := s.ledger.Registry(addr)
	if err != nil {
		return err
	}
	if reg == nil {
		return utils.NotFound(errors.New("platform not found"))
	}
	escrow, err := s.ledger.Escrow(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Platform{Address: addr, Escrow: escrow.Address, Registry: reg})
}

func (s *Staking) handleGetPosition(w http.ResponseWriter, req *http.Request) error {
	registry, err := utils.AddressVar(req, "platform")
	if err != nil {
		return err
	}
	owner, err := utils.AddressVar(req, "owner")
	if err != nil {
		return err
	}
	asset, err := utils.AddressVar(req, "asset")
	if err != nil {
		return err
	}

	reg, err := s.ledger.Registry(registry)
	if err != nil {
		return err
	}
	if reg == nil {
		return utils.NotFound(errors.New("platform not found"))
	}

	addr, pos, err := s.ledger.Position(owner, asset)
	if err != nil {
		return err
	}
	if pos == nil {
		return utils.NotFound(errors.Errorf("position %v not found", addr))
	}

	res := &Position{Address: addr, Position: pos}
	now := s.ledger.Clock().Time
	if elapsed, err := rewards.Elapsed(now, pos.LastStakeTimestamp); err == nil {
		res.Elapsed = elapsed
	}
	if reward, eligible, err := rewards.Payout(now, pos.LastStakeTimestamp); err == nil {
		res.PendingReward, res.Eligible = reward, eligible
	}
	return utils.WriteJSON(w, res)
}

func (s *Staking) Mount(root *mux.Router) {
	root.Path("/platform/{address}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(s.handleGetPlatform))
	root.Path("/positions/{platform}/{owner}/{asset}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(s.handleGetPosition))
}
