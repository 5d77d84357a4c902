// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package instruction

import (
	"encoding/binary"
	"strings"

	"github.com/pkg/errors"

	"github.com/vechain/nftstake/builtin/reverts"
)

// Opcode is the leading byte of an instruction.
type Opcode uint8

const (
	Initialize Opcode = 0
	Stake      Opcode = 2
	Unstake    Opcode = 3
	Harvest    Opcode = 4
)

var names = map[Opcode]string{
	Initialize: "initialize",
	Stake:      "stake",
	Unstake:    "unstake",
	Harvest:    "harvest",
}

func (op Opcode) String() string {
	if name, ok := names[op]; ok {
		return name
	}
	return "unknown"
}

// ParseOpcode resolves an opcode by its name.
func ParseOpcode(name string) (Opcode, error) {
	name = strings.ToLower(name)
	for op, n := range names {
		if n == name {
			return op, nil
		}
	}
	return 0, errors.Errorf("unknown instruction %q", name)
}

// Instruction is a decoded invocation payload.
// Amount is only meaningful for Initialize.
type Instruction struct {
	Op     Opcode
	Amount uint64
}

// Decode parses the opcode byte and its payload. Bytes beyond the payload
// are ignored.
func Decode(data []byte) (*Instruction, error) {
	if len(data) == 0 {
		return nil, reverts.ErrInvalidInput
	}
	ins := &Instruction{Op: Opcode(data[0])}
	switch ins.Op {
	case Initialize:
		if len(data) < 9 {
			return nil, errors.WithMessage(reverts.ErrInvalidInput, "truncated amount")
		}
		ins.Amount = binary.LittleEndian.Uint64(data[1:9])
	case Stake, Unstake, Harvest:
	default:
		return nil, errors.WithMessagef(reverts.ErrInvalidInput, "opcode %d", data[0])
	}
	return ins, nil
}

// Encode packs the instruction.
func (ins *Instruction) Encode() []byte {
	if ins.Op == Initialize {
		return EncodeInitialize(ins.Amount)
	}
	return []byte{byte(ins.Op)}
}

func EncodeInitialize(amount uint64) []byte {
	data := make([]byte, 9)
	data[0] = byte(Initialize)
	binary.LittleEndian.PutUint64(data[1:], amount)
	return data
}

func EncodeStake() []byte   { return []byte{byte(Stake)} }
func EncodeUnstake() []byte { return []byte{byte(Unstake)} }
func EncodeHarvest() []byte { return []byte{byte(Harvest)} }
