// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"context"

	"github.com/vechain/nftstake/api/events"
	"github.com/vechain/nftstake/chain"
	"github.com/vechain/nftstake/logdb"
)

// maxReadBlocks bounds the blocks scanned by one Read.
const maxReadBlocks = 100

// eventReader reads committed events block by block, starting after pos.
type eventReader struct {
	ledger   *chain.Ledger
	criteria *logdb.EventCriteria // nil matches everything
	pos      uint32               // last block read
}

func newEventReader(ledger *chain.Ledger, pos uint32, criteria *logdb.EventCriteria) *eventReader {
	return &eventReader{ledger, criteria, pos}
}

// Read returns the matching events of the next blocks, and whether more
// committed blocks remain unread.
func (r *eventReader) Read(ctx context.Context) ([]*events.Event, bool, error) {
	head := r.ledger.Clock().Number
	if head <= r.pos {
		return nil, false, nil
	}
	to := uint32(min(uint64(head), uint64(r.pos)+maxReadBlocks))

	filter := &logdb.EventFilter{
		Range: &logdb.Range{Unit: logdb.Block, From: uint64(r.pos) + 1, To: uint64(to)},
	}
	if r.criteria != nil {
		filter.CriteriaSet = []*logdb.EventCriteria{r.criteria}
	}
	evs, err := r.ledger.FilterEvents(ctx, filter)
	if err != nil {
		return nil, false, err
	}

	msgs := make([]*events.Event, len(evs))
	for i, ev := range evs {
		msgs[i] = events.Convert(ev)
	}
	r.pos = to
	return msgs, to < head, nil
}
