// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"crypto/ed25519"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"

	"github.com/vechain/nftstake/builtin/staker"
	"github.com/vechain/nftstake/builtin/system"
	"github.com/vechain/nftstake/chain"
	"github.com/vechain/nftstake/genesis"
	"github.com/vechain/nftstake/ledger"
	"github.com/vechain/nftstake/runtime"
	"github.com/vechain/nftstake/xenv"
)

// keyring holds the signing keys given by -key. Devnet signers are always
// known.
type keyring map[ledger.Address]ed25519.PrivateKey

// newKeyring parses hex encoded ed25519 seeds.
func newKeyring(seeds []string) (keyring, error) {
	kr := make(keyring, len(seeds))
	for _, s := range seeds {
		seed, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
		if err != nil {
			return nil, errors.Wrap(err, "key")
		}
		if len(seed) != ed25519.SeedSize {
			return nil, errors.Errorf("key: want %d bytes, got %d", ed25519.SeedSize, len(seed))
		}
		key := ed25519.NewKeyFromSeed(seed)
		kr[ledger.BytesToAddress(key.Public().(ed25519.PublicKey))] = key
	}
	return kr, nil
}

func (kr keyring) keyOf(addr ledger.Address) (ed25519.PrivateKey, bool) {
	if key, ok := kr[addr]; ok {
		return key, true
	}
	return genesis.DevKeyOf(addr)
}

// newInvocation builds and signs an invocation.
func newInvocation(program ledger.Address, data []byte, metas []xenv.AccountMeta, nonce uint64, kr keyring) (*runtime.Invocation, error) {
	inv := &runtime.Invocation{
		Program:  program,
		Accounts: metas,
		Data:     data,
		Nonce:    nonce,
	}
	if err := inv.SignAll(kr.keyOf); err != nil {
		return nil, err
	}
	return inv, nil
}

// positionArgs names a position and the accounts around it.
type positionArgs struct {
	Registry ledger.Address
	User     ledger.Address
	Asset    ledger.Address
	Custody  ledger.Address
	Rewards  ledger.Address
	Pool     ledger.Address
}

func initAccounts(l *chain.Ledger, registry, owner, source, pool ledger.Address) (*staker.InitializeAccounts, error) {
	escrow, err := l.Escrow(registry)
	if err != nil {
		return nil, errors.Wrap(err, "derive escrow")
	}
	return &staker.InitializeAccounts{
		Registry:                registry,
		Owner:                   owner,
		AdminRewardSource:       source,
		EscrowRewardDestination: pool,
		EscrowAuthority:         escrow.Address,
		AccountCreationService:  system.ProgramID,
		TokenService:            l.TokenProgramID(),
	}, nil
}

// derive returns the escrow authority of the registry and the position of
// the (user, asset) pair.
func (a *positionArgs) derive(l *chain.Ledger) (ledger.Address, ledger.Address, error) {
	escrow, err := l.Escrow(a.Registry)
	if err != nil {
		return ledger.Address{}, ledger.Address{}, errors.Wrap(err, "derive escrow")
	}
	pos, _, err := l.Position(a.User, a.Asset)
	if err != nil {
		return ledger.Address{}, ledger.Address{}, errors.Wrap(err, "derive position")
	}
	return escrow.Address, pos, nil
}

func stakeAccounts(l *chain.Ledger, a *positionArgs) (*staker.StakeAccounts, error) {
	escrow, pos, err := a.derive(l)
	if err != nil {
		return nil, err
	}
	return &staker.StakeAccounts{
		User:                   a.User,
		Position:               pos,
		Registry:               a.Registry,
		AssetCustody:           a.Custody,
		Asset:                  a.Asset,
		EscrowAuthority:        escrow,
		TokenService:           l.TokenProgramID(),
		AccountCreationService: system.ProgramID,
	}, nil
}

func unstakeAccounts(l *chain.Ledger, a *positionArgs) (*staker.UnstakeAccounts, error) {
	escrow, pos, err := a.derive(l)
	if err != nil {
		return nil, err
	}
	return &staker.UnstakeAccounts{
		User:                   a.User,
		Position:               pos,
		Registry:               a.Registry,
		EscrowCustody:          a.Custody,
		Asset:                  a.Asset,
		EscrowAuthority:        escrow,
		TokenService:           l.TokenProgramID(),
		AccountCreationService: system.ProgramID,
		UserRewardDestination:  a.Rewards,
		EscrowRewardSource:     a.Pool,
	}, nil
}

func harvestAccounts(l *chain.Ledger, a *positionArgs) (*staker.HarvestAccounts, error) {
	escrow, pos, err := a.derive(l)
	if err != nil {
		return nil, err
	}
	asset := a.Asset
	return &staker.HarvestAccounts{
		User:                  a.User,
		Position:              pos,
		Registry:              a.Registry,
		UserRewardDestination: a.Rewards,
		EscrowRewardSource:    a.Pool,
		EscrowAuthority:       escrow,
		TokenService:          l.TokenProgramID(),
		Asset:                 &asset,
	}, nil
}
