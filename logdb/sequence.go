// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

// sequence is the primary key of an event row: the block number in the high
// bits, the event index within the block in the low seqIndexBits bits.
// Ordering by sequence orders by block, then by emission.
type sequence int64

const (
	seqIndexBits = 31
	maxSeqIndex  = 1<<seqIndexBits - 1
)

func newSequence(blockNum uint32, index uint32) sequence {
	if index > maxSeqIndex {
		panic("logdb: event index overflows sequence")
	}
	return sequence(blockNum)<<seqIndexBits | sequence(index)
}

// firstSequence and lastSequence bound the events of a block.
func firstSequence(blockNum uint32) sequence { return newSequence(blockNum, 0) }
func lastSequence(blockNum uint32) sequence  { return newSequence(blockNum, maxSeqIndex) }

func (s sequence) BlockNumber() uint32 { return uint32(s >> seqIndexBits) }
func (s sequence) Index() uint32       { return uint32(s & maxSeqIndex) }
