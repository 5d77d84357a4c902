// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"fmt"
	"math"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/nftstake/api/utils"
	"github.com/vechain/nftstake/chain"
	"github.com/vechain/nftstake/ledger"
	"github.com/vechain/nftstake/logdb"
)

// Event is the json form of a stored event.
type Event struct {
	BlockNumber uint32         `json:"blockNumber"`
	Index       uint32         `json:"index"`
	BlockTime   uint64         `json:"blockTime"`
	Program     ledger.Address `json:"program"`
	Name        string         `json:"name"`
	Subject     ledger.Address `json:"subject"`
	Object      ledger.Address `json:"object"`
	Amount      uint64         `json:"amount"`
}

// Convert returns the json form of a stored event.
func Convert(ev *logdb.Event) *Event {
	return &Event{
		BlockNumber: ev.BlockNumber,
		Index:       ev.Index,
		BlockTime:   ev.BlockTime,
		Program:     ev.Program,
		Name:        ev.Name,
		Subject:     ev.Subject,
		Object:      ev.Object,
		Amount:      ev.Amount,
	}
}

type Events struct {
	ledger *chain.Ledger
	limit  uint64
}

func New(ledger *chain.Ledger, limit uint64) *Events {
	return &Events{ledger, limit}
}

// parseFilter reads user, asset and name criteria, a from/to time range,
// order, offset and limit from the query.
func (e *Events) parseFilter(req *http.Request) (*logdb.EventFilter, error) {
	user, err := utils.AddressQuery(req, "user")
	if err != nil {
		return nil, err
	}
	asset, err := utils.AddressQuery(req, "asset")
	if err != nil {
		return nil, err
	}
	from, err := utils.Uint64Query(req, "from", 0)
	if err != nil {
		return nil, err
	}
	to, err := utils.Uint64Query(req, "to", math.MaxInt64)
	if err != nil {
		return nil, err
	}
	if from > to {
		return nil, utils.BadRequest(errors.New("to must be greater than or equal to from"))
	}
	offset, err := utils.Uint64Query(req, "offset", 0)
	if err != nil {
		return nil, err
	}
	if offset > math.MaxInt64 {
		return nil, utils.BadRequest(fmt.Errorf("offset exceeds the maximum allowed value of %d", int64(math.MaxInt64)))
	}
	limit, err := utils.Uint64Query(req, "limit", e.limit)
	if err != nil {
		return nil, err
	}
	if limit > e.limit {
		return nil, utils.Forbidden(fmt.Errorf("limit exceeds the maximum allowed value of %d", e.limit))
	}

	filter := &logdb.EventFilter{
		Range:   &logdb.Range{Unit: logdb.Time, From: from, To: to},
		Options: &logdb.Options{Offset: offset, Limit: limit},
		Order:   logdb.ASC,
	}
	switch order := req.URL.Query().Get("order"); order {
	case "", string(logdb.ASC):
	case string(logdb.DESC):
		filter.Order = logdb.DESC
	default:
		return nil, utils.BadRequest(fmt.Errorf("invalid order %q", order))
	}

	name := req.URL.Query().Get("name")
	if user != nil || asset != nil || name != "" {
		filter.CriteriaSet = []*logdb.EventCriteria{{
			Name:    name,
			Subject: user,
			Object:  asset,
		}}
	}
	return filter, nil
}

func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	filter, err := e.parseFilter(req)
	if err != nil {
		return err
	}
	events, err := e.ledger.FilterEvents(req.Context(), filter)
	if err != nil {
		return err
	}
	res := make([]*Event, len(events))
	for i, ev := range events {
		res[i] = Convert(ev)
	}
	return utils.WriteJSON(w, res)
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(e.handleFilter))
}
