// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"crypto/ed25519"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vechain/nftstake/builtin/staker/instruction"
	"github.com/vechain/nftstake/builtin/staker/platform"
	"github.com/vechain/nftstake/builtin/staker/position"
	"github.com/vechain/nftstake/builtin/system"
	"github.com/vechain/nftstake/builtin/token"
	"github.com/vechain/nftstake/ledger"
	"github.com/vechain/nftstake/lvldb"
	"github.com/vechain/nftstake/runtime"
	"github.com/vechain/nftstake/state"
	"github.com/vechain/nftstake/xenv"
)

const (
	startTime    uint64 = 1_700_000_000
	walletFunds  uint64 = 100_000_000
	adminRewards uint64 = 1_000_000
	poolPrefund  uint64 = 500_000
)

var (
	rewardMint = addr("reward-mint")
	assetX     = addr("asset-x")
	assetY     = addr("asset-y")
)

func addr(s string) ledger.Address {
	return ledger.Address(ledger.Blake2b([]byte(s)))
}

type testUser struct {
	Wallet  ledger.Address
	Rewards ledger.Address
	custody map[ledger.Address]ledger.Address
}

// Custody returns the token account holding the asset.
func (u *testUser) Custody(asset ledger.Address) ledger.Address {
	return u.custody[asset]
}

// testLedger is a funded in-memory ledger with the staking program deployed.
type testLedger struct {
	st     *state.State
	system *system.Program
	token  *token.Program
	staker *Staker
	now    uint64
	nonce  uint64
	keys   map[ledger.Address]ed25519.PrivateKey

	Admin       ledger.Address
	AdminSource ledger.Address
	Registry    ledger.Address
	Escrow      *platform.Escrow
	Pool        ledger.Address
	Users       map[string]*testUser
}

func newTestLedger(t *testing.T) *testLedger {
	db, err := lvldb.NewMem()
	require.NoError(t, err)

	tok := token.New(token.DefaultProgramID)
	sys := system.New()
	l := &testLedger{
		st:          state.NewStater(db).NewState(),
		system:      sys,
		token:       tok,
		staker:      New(DefaultProgramID, sys, tok),
		now:         startTime,
		keys:        make(map[ledger.Address]ed25519.PrivateKey),
		AdminSource: addr("admin-rewards"),
		Pool:        addr("pool"),
		Users:       make(map[string]*testUser),
	}
	l.Admin = l.signer("admin")
	l.Registry = l.signer("registry")
	l.Escrow, err = platform.DeriveEscrow(l.Registry, DefaultProgramID)
	require.NoError(t, err)

	l.st.SetAccount(l.Admin, &state.Account{Lamports: walletFunds})
	l.st.SetAccount(l.AdminSource, tok.NewLedgerAccount(&token.Account{Mint: rewardMint, Authority: l.Admin, Amount: adminRewards}))
	l.st.SetAccount(l.Pool, tok.NewLedgerAccount(&token.Account{Mint: rewardMint, Authority: l.Escrow.Address, Amount: poolPrefund}))

	for _, name := range []string{"alice", "bob"} {
		u := &testUser{
			Wallet:  l.signer(name),
			Rewards: addr(name + "-rewards"),
			custody: make(map[ledger.Address]ledger.Address),
		}
		l.st.SetAccount(u.Wallet, &state.Account{Lamports: walletFunds})
		l.st.SetAccount(u.Rewards, tok.NewLedgerAccount(&token.Account{Mint: rewardMint, Authority: u.Wallet}))
		for _, asset := range []ledger.Address{assetX, assetY} {
			custody := addr(name + "-custody-" + asset.String())
			u.custody[asset] = custody
			l.st.SetAccount(custody, tok.NewLedgerAccount(&token.Account{Mint: asset, Authority: u.Wallet, Amount: 1}))
		}
		l.Users[name] = u
	}
	return l
}

// signer returns a wallet address with a signing key.
func (l *testLedger) signer(name string) ledger.Address {
	seed := ledger.Blake2b([]byte(name))
	key := ed25519.NewKeyFromSeed(seed[:])
	a := ledger.BytesToAddress(key.Public().(ed25519.PublicKey))
	l.keys[a] = key
	return a
}

func (l *testLedger) keyOf(a ledger.Address) (ed25519.PrivateKey, bool) {
	key, ok := l.keys[a]
	return key, ok
}

func (l *testLedger) Advance(seconds uint64) {
	l.now += seconds
}

// execute signs and runs an invocation of program. Signers without a key
// stay unsigned. The returned error is the rejection of an invocation that
// never reaches the program.
func (l *testLedger) execute(t *testing.T, program ledger.Address, data []byte, metas []xenv.AccountMeta) (*runtime.Output, error) {
	l.nonce++
	inv := &runtime.Invocation{
		Program:  program,
		Accounts: metas,
		Data:     data,
		Nonce:    l.nonce,
	}
	signed := make(map[ledger.Address]bool)
	for _, m := range metas {
		if key, ok := l.keyOf(m.Address); ok && m.IsSigner && !signed[m.Address] {
			signed[m.Address] = true
			inv.Sign(key)
		}
	}
	resolved, err := runtime.ResolveInvocation(inv)
	if err != nil {
		return nil, err
	}
	rt := runtime.New(l.st, &xenv.BlockContext{Time: l.now}, l.system, l.token, l.staker)
	out, err := rt.Execute(resolved)
	require.NoError(t, err)
	return out, nil
}

func (l *testLedger) invoke(t *testing.T, data []byte, metas []xenv.AccountMeta) *runtime.Output {
	out, err := l.execute(t, l.staker.Address(), data, metas)
	require.NoError(t, err)
	return out
}

func (l *testLedger) InitializeAccounts() *InitializeAccounts {
	return &InitializeAccounts{
		Registry:                l.Registry,
		Owner:                   l.Admin,
		AdminRewardSource:       l.AdminSource,
		EscrowRewardDestination: l.Pool,
		EscrowAuthority:         l.Escrow.Address,
		AccountCreationService:  l.system.Address(),
		TokenService:            l.token.Address(),
	}
}

func (l *testLedger) PositionOf(user *testUser, asset ledger.Address) ledger.Address {
	pos, _, err := position.Derive(user.Wallet, asset, DefaultProgramID)
	if err != nil {
		panic(err)
	}
	return pos
}

func (l *testLedger) StakeAccounts(t *testing.T, user *testUser, asset ledger.Address) *StakeAccounts {
	return &StakeAccounts{
		User:                   user.Wallet,
		Position:               l.PositionOf(user, asset),
		Registry:               l.Registry,
		AssetCustody:           user.Custody(asset),
		Asset:                  asset,
		EscrowAuthority:        l.Escrow.Address,
		TokenService:           l.token.Address(),
		AccountCreationService: l.system.Address(),
	}
}

func (l *testLedger) UnstakeAccounts(t *testing.T, user *testUser, asset ledger.Address) *UnstakeAccounts {
	return &UnstakeAccounts{
		User:                   user.Wallet,
		Position:               l.PositionOf(user, asset),
		Registry:               l.Registry,
		EscrowCustody:          user.Custody(asset),
		Asset:                  asset,
		EscrowAuthority:        l.Escrow.Address,
		TokenService:           l.token.Address(),
		AccountCreationService: l.system.Address(),
		UserRewardDestination:  user.Rewards,
		EscrowRewardSource:     l.Pool,
	}
}

func (l *testLedger) HarvestAccounts(t *testing.T, user *testUser, asset ledger.Address) *HarvestAccounts {
	return &HarvestAccounts{
		User:                  user.Wallet,
		Position:              l.PositionOf(user, asset),
		Registry:              l.Registry,
		UserRewardDestination: user.Rewards,
		EscrowRewardSource:    l.Pool,
		EscrowAuthority:       l.Escrow.Address,
		TokenService:          l.token.Address(),
		Asset:                 &asset,
	}
}

func (l *testLedger) Initialize(t *testing.T, amount uint64) *runtime.Output {
	return l.invoke(t, instruction.EncodeInitialize(amount), l.InitializeAccounts().Metas())
}

func (l *testLedger) Stake(t *testing.T, user *testUser, asset ledger.Address) *runtime.Output {
	return l.invoke(t, instruction.EncodeStake(), l.StakeAccounts(t, user, asset).Metas())
}

func (l *testLedger) Unstake(t *testing.T, user *testUser, asset ledger.Address) *runtime.Output {
	return l.invoke(t, instruction.EncodeUnstake(), l.UnstakeAccounts(t, user, asset).Metas())
}

func (l *testLedger) Harvest(t *testing.T, user *testUser, asset ledger.Address) *runtime.Output {
	return l.invoke(t, instruction.EncodeHarvest(), l.HarvestAccounts(t, user, asset).Metas())
}

func (l *testLedger) RegistryRecord(t *testing.T) *platform.Registry {
	reg, err := platform.New(l.st, DefaultProgramID).Load(l.Registry)
	require.NoError(t, err)
	return reg
}

func (l *testLedger) PositionRecord(t *testing.T, user *testUser, asset ledger.Address) *position.Position {
	pos, err := position.New(l.st, DefaultProgramID).Get(l.PositionOf(user, asset))
	require.NoError(t, err)
	return pos
}

func (l *testLedger) TokenAccount(t *testing.T, addr ledger.Address) *token.Account {
	acc, err := l.token.LoadAccount(l.st, addr)
	require.NoError(t, err)
	return acc
}

// Snapshot captures the raw ledger accounts at the given addresses.
func (l *testLedger) Snapshot(t *testing.T, addrs ...ledger.Address) []*state.Account {
	accs := make([]*state.Account, 0, len(addrs))
	for _, a := range addrs {
		acc, err := l.st.GetAccount(a)
		require.NoError(t, err)
		accs = append(accs, acc)
	}
	return accs
}

type TestFunc func(t *testing.T)

// TestSequence runs ledger operations in order, failing on the first revert.
type TestSequence struct {
	ledger *testLedger

	funcs []TestFunc
	mu    sync.Mutex
}

func NewSequence(l *testLedger) *TestSequence {
	return &TestSequence{funcs: make([]TestFunc, 0), ledger: l}
}

func (ts *TestSequence) AddFunc(f TestFunc) *TestSequence {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.funcs = append(ts.funcs, f)
	return ts
}

func (ts *TestSequence) Initialize(amount uint64) *TestSequence {
	return ts.AddFunc(func(t *testing.T) {
		out := ts.ledger.Initialize(t, amount)
		require.NoError(t, out.Revert, "initialize")
	})
}

func (ts *TestSequence) Stake(user string, asset ledger.Address) *TestSequence {
	return ts.AddFunc(func(t *testing.T) {
		out := ts.ledger.Stake(t, ts.ledger.Users[user], asset)
		require.NoError(t, out.Revert, "stake %s", user)
	})
}

func (ts *TestSequence) Unstake(user string, asset ledger.Address) *TestSequence {
	return ts.AddFunc(func(t *testing.T) {
		out := ts.ledger.Unstake(t, ts.ledger.Users[user], asset)
		require.NoError(t, out.Revert, "unstake %s", user)
	})
}

func (ts *TestSequence) Harvest(user string, asset ledger.Address) *TestSequence {
	return ts.AddFunc(func(t *testing.T) {
		out := ts.ledger.Harvest(t, ts.ledger.Users[user], asset)
		require.NoError(t, out.Revert, "harvest %s", user)
	})
}

func (ts *TestSequence) Advance(seconds uint64) *TestSequence {
	return ts.AddFunc(func(t *testing.T) {
		ts.ledger.Advance(seconds)
	})
}

func (ts *TestSequence) Run(t *testing.T) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	for _, f := range ts.funcs {
		f(t)
	}
}
