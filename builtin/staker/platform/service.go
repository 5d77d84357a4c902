// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package platform

import (
	"github.com/pkg/errors"

	"github.com/vechain/nftstake/builtin/reverts"
	"github.com/vechain/nftstake/ledger"
	"github.com/vechain/nftstake/state"
)

// Service reads and writes registry records owned by the staking program.
type Service struct {
	state     *state.State
	programID ledger.Address
}

func New(st *state.State, programID ledger.Address) *Service {
	return &Service{state: st, programID: programID}
}

// Get returns the registry at addr, or nil if the account is not owned by
// the program.
func (s *Service) Get(addr ledger.Address) (*Registry, error) {
	data, err := s.state.GetData(addr, s.programID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get registry")
	}
	if data == nil {
		return nil, nil
	}
	reg, err := Decode(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "registry %v", addr)
	}
	return reg, nil
}

// Load returns the registry at addr, failing if the account does not hold
// one.
func (s *Service) Load(addr ledger.Address) (*Registry, error) {
	reg, err := s.Get(addr)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, errors.WithMessagef(reverts.ErrInvalidRecordData, "%v is not a registry", addr)
	}
	return reg, nil
}

// Set writes the registry back to its account.
func (s *Service) Set(addr ledger.Address, reg *Registry) error {
	return s.state.SetData(addr, reg.Encode())
}
