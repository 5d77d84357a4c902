// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package position

import (
	"github.com/pkg/errors"

	"github.com/vechain/nftstake/builtin/reverts"
	"github.com/vechain/nftstake/ledger"
	"github.com/vechain/nftstake/state"
)

// Service reads and writes position records owned by the staking program.
type Service struct {
	state     *state.State
	programID ledger.Address
}

func New(st *state.State, programID ledger.Address) *Service {
	return &Service{state: st, programID: programID}
}

// Get returns the position at addr, or nil if the account has not been
// created by the program.
func (s *Service) Get(addr ledger.Address) (*Position, error) {
	data, err := s.state.GetData(addr, s.programID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get position")
	}
	if data == nil {
		return nil, nil
	}
	pos, err := Decode(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "position %v", addr)
	}
	return pos, nil
}

// Load returns the position at addr, failing if the account does not hold
// one.
func (s *Service) Load(addr ledger.Address) (*Position, error) {
	pos, err := s.Get(addr)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		return nil, errors.WithMessagef(reverts.ErrInvalidRecordData, "%v is not a position", addr)
	}
	return pos, nil
}

// Set writes the position back to its account.
func (s *Service) Set(addr ledger.Address, pos *Position) error {
	return s.state.SetData(addr, pos.Encode())
}
