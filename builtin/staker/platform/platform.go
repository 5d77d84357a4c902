// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package platform

import (
	"encoding/binary"
	"math"

	"github.com/vechain/nftstake/builtin/reverts"
	"github.com/vechain/nftstake/ledger"
)

// RecordLen is the encoded size of a Registry.
const RecordLen = 41

// Registry is the singleton record of a staking deployment.
type Registry struct {
	Initialized bool           `json:"initialized"`
	Owner       ledger.Address `json:"owner"`
	TotalStaked uint64         `json:"totalStaked"` // assets currently in escrow
}

// Encode packs the record as flag(1) | owner(32) | total staked(u64 LE).
func (r *Registry) Encode() []byte {
	data := make([]byte, RecordLen)
	if r.Initialized {
		data[0] = 1
	}
	copy(data[1:33], r.Owner[:])
	binary.LittleEndian.PutUint64(data[33:41], r.TotalStaked)
	return data
}

// Decode unpacks a registry record. The flag byte must be 0 or 1.
func Decode(data []byte) (*Registry, error) {
	if len(data) != RecordLen {
		return nil, reverts.ErrInvalidRecordData
	}
	var r Registry
	switch data[0] {
	case 0:
	case 1:
		r.Initialized = true
	default:
		return nil, reverts.ErrInvalidRecordData
	}
	copy(r.Owner[:], data[1:33])
	r.TotalStaked = binary.LittleEndian.Uint64(data[33:41])
	return &r, nil
}

// AddStaked records an asset entering escrow.
func (r *Registry) AddStaked() error {
	if r.TotalStaked == math.MaxUint64 {
		return reverts.ErrArithmeticOverflow
	}
	r.TotalStaked++
	return nil
}

// SubStaked records an asset leaving escrow.
func (r *Registry) SubStaked() error {
	if r.TotalStaked == 0 {
		return reverts.ErrArithmeticUnderflow
	}
	r.TotalStaked--
	return nil
}
