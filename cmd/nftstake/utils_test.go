// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"crypto/ed25519"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/nftstake/builtin/staker"
	"github.com/vechain/nftstake/builtin/staker/instruction"
	"github.com/vechain/nftstake/builtin/system"
	"github.com/vechain/nftstake/chain"
	"github.com/vechain/nftstake/genesis"
	"github.com/vechain/nftstake/ledger"
	"github.com/vechain/nftstake/lvldb"
	"github.com/vechain/nftstake/runtime"
	"github.com/vechain/nftstake/xenv"
)

func newLedger(t *testing.T) *chain.Ledger {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	l, err := chain.New(db, nil, genesis.NewDevnet())
	require.NoError(t, err)
	return l
}

func TestKeyring(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	seed[0] = 7
	key := ed25519.NewKeyFromSeed(seed)
	addr := ledger.BytesToAddress(key.Public().(ed25519.PublicKey))

	kr, err := newKeyring([]string{"0x" + hex.EncodeToString(seed)})
	require.NoError(t, err)
	got, ok := kr.keyOf(addr)
	require.True(t, ok)
	assert.Equal(t, key, got)

	_, ok = kr.keyOf(genesis.DevPlatformAccounts().Admin)
	assert.True(t, ok, "devnet signers are known")
	_, ok = kr.keyOf(genesis.DevPlatformAccounts().Pool)
	assert.False(t, ok)

	_, err = newKeyring([]string{"zz"})
	assert.Error(t, err)
	_, err = newKeyring([]string{hex.EncodeToString(seed[:31])})
	assert.Error(t, err)
}

func TestNewInvocation(t *testing.T) {
	alice := genesis.DevUsers()[0]
	metas := []xenv.AccountMeta{{Address: alice.Wallet, IsSigner: true}, {Address: alice.Rewards}}

	inv, err := newInvocation(staker.DefaultProgramID, instruction.EncodeHarvest(), metas, 1, keyring{})
	require.NoError(t, err)
	resolved, err := runtime.ResolveInvocation(inv)
	require.NoError(t, err)
	assert.Equal(t, []ledger.Address{alice.Wallet}, resolved.Signers)

	other, err := newInvocation(staker.DefaultProgramID, instruction.EncodeHarvest(), metas, 2, keyring{})
	require.NoError(t, err)
	assert.NotEqual(t, inv.SigningHash(), other.SigningHash())

	metas[1].IsSigner = true
	_, err = newInvocation(staker.DefaultProgramID, instruction.EncodeHarvest(), metas, 1, keyring{})
	assert.Error(t, err, "rewards account has no key")
}

func TestAccountLists(t *testing.T) {
	l := newLedger(t)
	p := genesis.DevPlatformAccounts()
	alice := genesis.DevUsers()[0]
	asset := alice.Assets[0]

	escrow, err := l.Escrow(p.Registry)
	require.NoError(t, err)
	pos, _, err := l.Position(alice.Wallet, asset.Mint)
	require.NoError(t, err)

	initAccs, err := initAccounts(l, p.Registry, p.Admin, p.AdminSource, p.Pool)
	require.NoError(t, err)
	assert.Equal(t, escrow.Address, initAccs.EscrowAuthority)
	assert.Equal(t, system.ProgramID, initAccs.AccountCreationService)
	assert.Equal(t, l.TokenProgramID(), initAccs.TokenService)

	args := &positionArgs{
		Registry: p.Registry,
		User:     alice.Wallet,
		Asset:    asset.Mint,
		Custody:  asset.Custody,
		Rewards:  alice.Rewards,
		Pool:     p.Pool,
	}
	stakeAccs, err := stakeAccounts(l, args)
	require.NoError(t, err)
	assert.Equal(t, pos, stakeAccs.Position)
	assert.Equal(t, asset.Custody, stakeAccs.AssetCustody)
	assert.Equal(t, escrow.Address, stakeAccs.EscrowAuthority)

	unstakeAccs, err := unstakeAccounts(l, args)
	require.NoError(t, err)
	assert.Equal(t, pos, unstakeAccs.Position)
	assert.Equal(t, asset.Custody, unstakeAccs.EscrowCustody)
	assert.Equal(t, alice.Rewards, unstakeAccs.UserRewardDestination)
	assert.Equal(t, p.Pool, unstakeAccs.EscrowRewardSource)

	harvestAccs, err := harvestAccounts(l, args)
	require.NoError(t, err)
	require.NotNil(t, harvestAccs.Asset)
	assert.Equal(t, asset.Mint, *harvestAccs.Asset)
	assert.Len(t, harvestAccs.Metas(), 8)

	// the lists are accepted by the ledger
	var nonce uint64
	run := func(data []byte, metas []xenv.AccountMeta) *chain.Receipt {
		nonce++
		inv, err := newInvocation(l.StakerProgramID(), data, metas, nonce, keyring{})
		require.NoError(t, err)
		receipt, err := l.Invoke(inv)
		require.NoError(t, err)
		require.False(t, receipt.Reverted, receipt.Error)
		return receipt
	}
	run(instruction.EncodeInitialize(100), initAccs.Metas())
	run(instruction.EncodeStake(), stakeAccs.Metas())
	run(instruction.EncodeHarvest(), harvestAccs.Metas())
	run(instruction.EncodeUnstake(), unstakeAccs.Metas())
}
