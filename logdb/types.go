// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"github.com/vechain/nftstake/ledger"
	"github.com/vechain/nftstake/xenv"
)

// Event represents xenv.Event that can be stored in db.
type Event struct {
	BlockNumber uint32
	Index       uint32
	BlockTime   uint64
	Program     ledger.Address
	Name        string
	Subject     ledger.Address // the user, or the owner for Initialized
	Object      ledger.Address // the asset, or the registry for Initialized
	Amount      uint64
}

func newEvent(blockCtx *xenv.BlockContext, index uint32, ev *xenv.Event) *Event {
	return &Event{
		BlockNumber: blockCtx.Number,
		Index:       index,
		BlockTime:   blockCtx.Time,
		Program:     ev.Program,
		Name:        ev.Name,
		Subject:     ev.Subject,
		Object:      ev.Object,
		Amount:      ev.Amount,
	}
}

type RangeType string

const (
	Block RangeType = "block"
	Time  RangeType = "time"
)

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

type Range struct {
	Unit RangeType
	From uint64
	To   uint64
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// EventCriteria matches events whose every non-nil field is equal.
type EventCriteria struct {
	Program *ledger.Address
	Name    string
	Subject *ledger.Address
	Object  *ledger.Address
}

// EventFilter criteria in the set are OR-ed.
type EventFilter struct {
	CriteriaSet []*EventCriteria
	Range       *Range
	Options     *Options
	Order       Order // default asc
}
