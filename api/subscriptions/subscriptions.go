// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package subscriptions streams committed staking events over websocket.
package subscriptions

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/vechain/nftstake/api/utils"
	"github.com/vechain/nftstake/chain"
	"github.com/vechain/nftstake/log"
	"github.com/vechain/nftstake/logdb"
)

var logger = log.WithContext("pkg", "subscriptions")

var alwaysReady = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 7 / 10
)

type Subscriptions struct {
	ledger   *chain.Ledger
	upgrader *websocket.Upgrader
	done     chan struct{}
	wg       sync.WaitGroup
}

// New creates the websocket endpoints. Connections from an Origin outside
// allowedOrigins are refused; "*" allows all.
func New(ledger *chain.Ledger, allowedOrigins []string) *Subscriptions {
	return &Subscriptions{
		ledger: ledger,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || allowed == strings.ToLower(origin) {
						return true
					}
				}
				return false
			},
		},
		done: make(chan struct{}),
	}
}

func (s *Subscriptions) parseEventReader(req *http.Request) (*eventReader, error) {
	head := s.ledger.Clock().Number
	pos, err := utils.Uint64Query(req, "pos", uint64(head))
	if err != nil {
		return nil, err
	}
	if pos > uint64(head) {
		return nil, utils.BadRequest(errors.New("pos: beyond the last committed block"))
	}

	user, err := utils.AddressQuery(req, "user")
	if err != nil {
		return nil, err
	}
	asset, err := utils.AddressQuery(req, "asset")
	if err != nil {
		return nil, err
	}
	var criteria *logdb.EventCriteria
	if name := req.URL.Query().Get("name"); user != nil || asset != nil || name != "" {
		criteria = &logdb.EventCriteria{Name: name, Subject: user, Object: asset}
	}
	return newEventReader(s.ledger, uint32(pos), criteria), nil
}

func (s *Subscriptions) handleSubscribeEvents(w http.ResponseWriter, req *http.Request) error {
	reader, err := s.parseEventReader(req)
	if err != nil {
		return err
	}

	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader has replied already
		logger.Debug("upgrade failed", "err", err)
		return nil
	}
	s.wg.Add(1)
	defer s.wg.Done()

	closed := make(chan struct{})
	go s.readLoop(conn, closed)

	err = s.pipe(req.Context(), conn, reader, closed)
	s.closeConn(conn, err)
	return nil
}

// readLoop drains client frames to process pongs and close frames. closed
// is closed when the client goes away.
func (s *Subscriptions) readLoop(conn *websocket.Conn, closed chan struct{}) {
	defer close(closed)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("websocket read", "err", err)
			}
			return
		}
	}
}

func (s *Subscriptions) pipe(ctx context.Context, conn *websocket.Conn, reader *eventReader, closed <-chan struct{}) error {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		// taken before reading so a commit in between is not missed
		tick := s.ledger.Ticker()

		msgs, hasMore, err := reader.Read(ctx)
		if err != nil {
			return err
		}
		for _, msg := range msgs {
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return err
			}
			if err := conn.WriteJSON(msg); err != nil {
				return err
			}
		}

		wait := tick
		if hasMore {
			// closed so the select below does not block
			wait = alwaysReady
		}
		select {
		case <-s.done:
			return nil
		case <-closed:
			return nil
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		case <-wait:
		}
	}
}

func (s *Subscriptions) closeConn(conn *websocket.Conn, err error) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err != nil {
		logger.Debug("subscription aborted", "err", err)
		msg = websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error())
	}
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	conn.Close()
}

// Close ends all subscriptions and waits for their handlers to return.
func (s *Subscriptions) Close() {
	close(s.done)
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/events").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeEvents))
}
