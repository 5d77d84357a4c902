// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/nftstake/api"
	"github.com/vechain/nftstake/api/accounts"
	"github.com/vechain/nftstake/api/events"
	"github.com/vechain/nftstake/api/staking"
	"github.com/vechain/nftstake/builtin/staker"
	"github.com/vechain/nftstake/builtin/staker/instruction"
	"github.com/vechain/nftstake/builtin/system"
	"github.com/vechain/nftstake/builtin/token"
	"github.com/vechain/nftstake/chain"
	"github.com/vechain/nftstake/genesis"
	"github.com/vechain/nftstake/logdb"
	"github.com/vechain/nftstake/lvldb"
	"github.com/vechain/nftstake/runtime"
	"github.com/vechain/nftstake/xenv"
)

type testServer struct {
	*httptest.Server
	ledger *chain.Ledger
}

func newTestServer(t *testing.T) *testServer {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	logDB, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { logDB.Close() })

	l, err := chain.New(db, logDB, genesis.NewDevnet())
	require.NoError(t, err)

	handler, closeSubs := api.New(l, api.Options{AllowedOrigins: "*", EventsLimit: 10})
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	t.Cleanup(closeSubs)
	return &testServer{ts, l}
}

func (ts *testServer) get(t *testing.T, path string, v any) int {
	res, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	if res.StatusCode == http.StatusOK && v != nil {
		require.NoError(t, json.Unmarshal(body, v), string(body))
	}
	return res.StatusCode
}

func (ts *testServer) post(t *testing.T, path string, obj any, v any) int {
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	res, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	if res.StatusCode == http.StatusOK && v != nil {
		require.NoError(t, json.Unmarshal(body, v), string(body))
	}
	return res.StatusCode
}

var nonce atomic.Uint64

func (ts *testServer) invoke(t *testing.T, data []byte, metas []xenv.AccountMeta) *chain.Receipt {
	inv := &runtime.Invocation{
		Program:  ts.ledger.StakerProgramID(),
		Accounts: metas,
		Data:     data,
		Nonce:    nonce.Add(1),
	}
	require.NoError(t, inv.SignAll(genesis.DevKeyOf))

	var receipt chain.Receipt
	code := ts.post(t, "/invocations", inv, &receipt)
	require.Equal(t, http.StatusOK, code)
	return &receipt
}

func TestStakingFlow(t *testing.T) {
	ts := newTestServer(t)
	p := genesis.DevPlatformAccounts()
	bob := genesis.DevUsers()[1]
	asset := bob.Assets[1]

	escrow, err := ts.ledger.Escrow(p.Registry)
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, ts.get(t, "/platform/"+p.Registry.String(), nil))

	receipt := ts.invoke(t, instruction.EncodeInitialize(500), (&staker.InitializeAccounts{
		Registry:                p.Registry,
		Owner:                   p.Admin,
		AdminRewardSource:       p.AdminSource,
		EscrowRewardDestination: p.Pool,
		EscrowAuthority:         escrow.Address,
		AccountCreationService:  system.ProgramID,
		TokenService:            token.DefaultProgramID,
	}).Metas())
	require.False(t, receipt.Reverted, receipt.Error)

	var plat staking.Platform
	require.Equal(t, http.StatusOK, ts.get(t, "/platform/"+p.Registry.String(), &plat))
	assert.Equal(t, escrow.Address, plat.Escrow)
	assert.Equal(t, p.Admin, plat.Registry.Owner)
	assert.Equal(t, uint64(0), plat.Registry.TotalStaked)

	pos, _, err := ts.ledger.Position(bob.Wallet, asset.Mint)
	require.NoError(t, err)
	receipt = ts.invoke(t, instruction.EncodeStake(), (&staker.StakeAccounts{
		User:                   bob.Wallet,
		Position:               pos,
		Registry:               p.Registry,
		AssetCustody:           asset.Custody,
		Asset:                  asset.Mint,
		EscrowAuthority:        escrow.Address,
		TokenService:           token.DefaultProgramID,
		AccountCreationService: system.ProgramID,
	}).Metas())
	require.False(t, receipt.Reverted, receipt.Error)

	var clock chain.Clock
	require.Equal(t, http.StatusOK, ts.post(t, "/clock/advance", map[string]any{"seconds": 86400 * 2}, &clock))
	assert.Equal(t, genesis.NewDevnet().LaunchTime()+86400*2, clock.Time)

	var position staking.Position
	path := fmt.Sprintf("/positions/%v/%v/%v", p.Registry, bob.Wallet, asset.Mint)
	require.Equal(t, http.StatusOK, ts.get(t, path, &position))
	assert.Equal(t, pos, position.Address)
	assert.Equal(t, uint64(86400*2), position.Elapsed)
	assert.True(t, position.Eligible)
	assert.Equal(t, uint64(86400*2*1157/1000), position.PendingReward)

	receipt = ts.invoke(t, instruction.EncodeHarvest(), (&staker.HarvestAccounts{
		User:                  bob.Wallet,
		Position:              pos,
		Registry:              p.Registry,
		UserRewardDestination: bob.Rewards,
		EscrowRewardSource:    p.Pool,
		EscrowAuthority:       escrow.Address,
		TokenService:          token.DefaultProgramID,
		Asset:                 &asset.Mint,
	}).Metas())
	require.False(t, receipt.Reverted, receipt.Error)

	var rewards token.Account
	require.Equal(t, http.StatusOK, ts.get(t, "/accounts/"+bob.Rewards.String()+"/token", &rewards))
	assert.Equal(t, uint64(86400*2*1157/1000), rewards.Amount)

	var acc accounts.Account
	require.Equal(t, http.StatusOK, ts.get(t, "/accounts/"+pos.String(), &acc))
	assert.Equal(t, ts.ledger.StakerProgramID(), acc.Owner)
	assert.Len(t, acc.Data, 49)
	assert.Equal(t, http.StatusNotFound, ts.get(t, "/accounts/"+bob.Wallet.String()+"/token", nil))

	var evs []*events.Event
	require.Equal(t, http.StatusOK, ts.get(t, "/events?user="+bob.Wallet.String(), &evs))
	require.Len(t, evs, 2)
	assert.Equal(t, staker.EventStaked, evs[0].Name)
	assert.Equal(t, staker.EventRewardPaid, evs[1].Name)

	require.Equal(t, http.StatusOK, ts.get(t, fmt.Sprintf("/events?asset=%v&order=desc&limit=1", asset.Mint), &evs))
	require.Len(t, evs, 1)
	assert.Equal(t, staker.EventRewardPaid, evs[0].Name)

	require.Equal(t, http.StatusOK, ts.get(t, fmt.Sprintf("/events?from=%d", clock.Time+1), &evs))
	assert.Empty(t, evs)
}

func TestBadRequests(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		code int
		do   func() int
	}{
		{"bad address", http.StatusBadRequest, func() int { return ts.get(t, "/accounts/0xzz", nil) }},
		{"bad user", http.StatusBadRequest, func() int { return ts.get(t, "/events?user=abc", nil) }},
		{"bad range", http.StatusBadRequest, func() int { return ts.get(t, "/events?from=5&to=1", nil) }},
		{"bad order", http.StatusBadRequest, func() int { return ts.get(t, "/events?order=up", nil) }},
		{"limit too large", http.StatusForbidden, func() int { return ts.get(t, "/events?limit=11", nil) }},
		{"unknown position", http.StatusNotFound, func() int {
			reg := genesis.DevPlatformAccounts().Registry
			return ts.get(t, fmt.Sprintf("/positions/%v/%v/%v", reg, reg, reg), nil)
		}},
		{"unknown field", http.StatusBadRequest, func() int {
			return ts.post(t, "/clock/advance", map[string]any{"secs": 1}, nil)
		}},
		{"empty data", http.StatusBadRequest, func() int {
			return ts.post(t, "/invocations", &runtime.Invocation{Program: ts.ledger.StakerProgramID()}, nil)
		}},
		{"unsigned signer", http.StatusBadRequest, func() int {
			return ts.post(t, "/invocations", &runtime.Invocation{
				Program:  ts.ledger.StakerProgramID(),
				Accounts: []xenv.AccountMeta{{Address: genesis.DevUsers()[0].Wallet, IsSigner: true}},
				Data:     instruction.EncodeHarvest(),
			}, nil)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.do())
		})
	}
}

func TestReverted(t *testing.T) {
	ts := newTestServer(t)
	receipt := ts.invoke(t, []byte{7}, nil)
	assert.True(t, receipt.Reverted)
	assert.Contains(t, receipt.Error, "invalid input")
	assert.Equal(t, uint32(0), ts.ledger.Clock().Number)
}

func TestIndex(t *testing.T) {
	ts := newTestServer(t)
	var index map[string]any
	require.Equal(t, http.StatusOK, ts.get(t, "/", &index))
	assert.Equal(t, "devnet", index["network"])
	assert.Equal(t, staker.DefaultProgramID.String(), index["staker"])
}
