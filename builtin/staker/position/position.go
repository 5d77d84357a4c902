// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package position

import (
	"encoding/binary"
	"math"

	"github.com/vechain/nftstake/builtin/reverts"
	"github.com/vechain/nftstake/ledger"
)

// RecordLen is the encoded size of a Position.
const RecordLen = 49

// Position is the staking record of one (owner, asset) pair.
type Position struct {
	Initialized        bool           `json:"initialized"`
	Owner              ledger.Address `json:"owner"`
	TotalStaked        uint64         `json:"totalStaked"` // assets of the pair in escrow, 0 or 1
	LastStakeTimestamp uint64         `json:"lastStakeTimestamp"`
}

// Encode packs the record as flag(1) | owner(32) | total staked(u64 LE) |
// last stake timestamp(u64 LE).
func (p *Position) Encode() []byte {
	data := make([]byte, RecordLen)
	if p.Initialized {
		data[0] = 1
	}
	copy(data[1:33], p.Owner[:])
	binary.LittleEndian.PutUint64(data[33:41], p.TotalStaked)
	binary.LittleEndian.PutUint64(data[41:49], p.LastStakeTimestamp)
	return data
}

// Decode unpacks a position record. The flag byte must be 0 or 1.
func Decode(data []byte) (*Position, error) {
	if len(data) != RecordLen {
		return nil, reverts.ErrInvalidRecordData
	}
	var p Position
	switch data[0] {
	case 0:
	case 1:
		p.Initialized = true
	default:
		return nil, reverts.ErrInvalidRecordData
	}
	copy(p.Owner[:], data[1:33])
	p.TotalStaked = binary.LittleEndian.Uint64(data[33:41])
	p.LastStakeTimestamp = binary.LittleEndian.Uint64(data[41:49])
	return &p, nil
}

// AddStaked records the asset of the pair entering escrow.
func (p *Position) AddStaked() error {
	if p.TotalStaked == math.MaxUint64 {
		return reverts.ErrArithmeticOverflow
	}
	p.TotalStaked++
	return nil
}

// SubStaked records the asset of the pair leaving escrow. A position whose
// asset is not in escrow cannot release one.
func (p *Position) SubStaked() error {
	if p.TotalStaked == 0 {
		return reverts.ErrArithmeticUnderflow
	}
	p.TotalStaked--
	return nil
}

// Seeds returns the seeds of the position address of (owner, asset).
func Seeds(owner, asset ledger.Address) [][]byte {
	return [][]byte{owner.Bytes(), asset.Bytes()}
}

// Derive finds the position address of (owner, asset) and its bump.
func Derive(owner, asset ledger.Address, programID ledger.Address) (ledger.Address, uint8, error) {
	return ledger.FindProgramAddress(Seeds(owner, asset), programID)
}
