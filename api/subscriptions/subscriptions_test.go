// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/nftstake/api/events"
	"github.com/vechain/nftstake/builtin/staker"
	"github.com/vechain/nftstake/builtin/staker/instruction"
	"github.com/vechain/nftstake/builtin/system"
	"github.com/vechain/nftstake/chain"
	"github.com/vechain/nftstake/genesis"
	"github.com/vechain/nftstake/logdb"
	"github.com/vechain/nftstake/lvldb"
	"github.com/vechain/nftstake/runtime"
	"github.com/vechain/nftstake/xenv"
)

func newLedger(t *testing.T) *chain.Ledger {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	logDB, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { logDB.Close() })

	l, err := chain.New(db, logDB, genesis.NewDevnet())
	require.NoError(t, err)
	return l
}

func newServer(t *testing.T, l *chain.Ledger, origins ...string) string {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router := mux.NewRouter()
	subs := New(l, origins)
	subs.Mount(router, "/subscriptions")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	t.Cleanup(subs.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

var nonce atomic.Uint64

func invoke(t *testing.T, l *chain.Ledger, data []byte, accs interface{ Metas() []xenv.AccountMeta }) {
	t.Helper()
	inv := &runtime.Invocation{Program: l.StakerProgramID(), Accounts: accs.Metas(), Data: data, Nonce: nonce.Add(1)}
	require.NoError(t, inv.SignAll(genesis.DevKeyOf))
	receipt, err := l.Invoke(inv)
	require.NoError(t, err)
	require.False(t, receipt.Reverted, receipt.Error)
}

func initialize(t *testing.T, l *chain.Ledger) {
	p := genesis.DevPlatformAccounts()
	escrow, err := l.Escrow(p.Registry)
	require.NoError(t, err)
	invoke(t, l, instruction.EncodeInitialize(100), &staker.InitializeAccounts{
		Registry:                p.Registry,
		Owner:                   p.Admin,
		AdminRewardSource:       p.AdminSource,
		EscrowRewardDestination: p.Pool,
		EscrowAuthority:         escrow.Address,
		AccountCreationService:  system.ProgramID,
		TokenService:            l.TokenProgramID(),
	})
}

func stake(t *testing.T, l *chain.Ledger, u genesis.DevUser, asset genesis.DevAsset) {
	p := genesis.DevPlatformAccounts()
	escrow, err := l.Escrow(p.Registry)
	require.NoError(t, err)
	pos, _, err := l.Position(u.Wallet, asset.Mint)
	require.NoError(t, err)
	invoke(t, l, instruction.EncodeStake(), &staker.StakeAccounts{
		User:                   u.Wallet,
		Position:               pos,
		Registry:               p.Registry,
		AssetCustody:           asset.Custody,
		Asset:                  asset.Mint,
		EscrowAuthority:        escrow.Address,
		TokenService:           l.TokenProgramID(),
		AccountCreationService: system.ProgramID,
	})
}

func readEvent(t *testing.T, conn *websocket.Conn) *events.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev events.Event
	require.NoError(t, conn.ReadJSON(&ev))
	return &ev
}

func TestSubscribeEvents(t *testing.T) {
	l := newLedger(t)
	url := newServer(t, l)
	alice := genesis.DevUsers()[0]

	initialize(t, l)

	conn, _, err := websocket.DefaultDialer.Dial(url+"/subscriptions/events?pos=0", nil)
	require.NoError(t, err)
	defer conn.Close()

	// backlog
	ev := readEvent(t, conn)
	assert.Equal(t, staker.EventInitialized, ev.Name)
	assert.Equal(t, uint32(1), ev.BlockNumber)

	// live
	stake(t, l, alice, alice.Assets[0])
	ev = readEvent(t, conn)
	assert.Equal(t, staker.EventStaked, ev.Name)
	assert.Equal(t, uint32(2), ev.BlockNumber)
	assert.Equal(t, alice.Wallet, ev.Subject)
	assert.Equal(t, alice.Assets[0].Mint, ev.Object)

	filtered, _, err := websocket.DefaultDialer.Dial(url+"/subscriptions/events?pos=0&name="+staker.EventStaked, nil)
	require.NoError(t, err)
	defer filtered.Close()
	ev = readEvent(t, filtered)
	assert.Equal(t, staker.EventStaked, ev.Name)
	assert.Equal(t, uint32(2), ev.BlockNumber)
}

func TestSubscribeFromHead(t *testing.T) {
	l := newLedger(t)
	url := newServer(t, l)
	alice := genesis.DevUsers()[0]

	initialize(t, l)

	conn, _, err := websocket.DefaultDialer.Dial(url+"/subscriptions/events?user="+alice.Wallet.String(), nil)
	require.NoError(t, err)
	defer conn.Close()

	stake(t, l, alice, alice.Assets[1])
	ev := readEvent(t, conn)
	assert.Equal(t, staker.EventStaked, ev.Name)
	assert.Equal(t, alice.Assets[1].Mint, ev.Object)
}

func TestSubscribeRejected(t *testing.T) {
	l := newLedger(t)
	url := newServer(t, l, "http://good.example")

	_, res, err := websocket.DefaultDialer.Dial(url+"/subscriptions/events?pos=9", nil)
	assert.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	_, res, err = websocket.DefaultDialer.Dial(url+"/subscriptions/events?user=nope", nil)
	assert.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	_, res, err = websocket.DefaultDialer.Dial(url+"/subscriptions/events", http.Header{"Origin": {"http://evil.example"}})
	assert.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(url+"/subscriptions/events", http.Header{"Origin": {"http://good.example"}})
	require.NoError(t, err)
	conn.Close()
}
