// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/pkg/errors"

	"github.com/vechain/nftstake/builtin/reverts"
	"github.com/vechain/nftstake/ledger"
	"github.com/vechain/nftstake/xenv"
)

// InitializeAccounts are the accounts of an Initialize invocation, in order.
type InitializeAccounts struct {
	Registry                ledger.Address // new, signer
	Owner                   ledger.Address // signer, pays for the registry and the reward seed
	AdminRewardSource       ledger.Address
	EscrowRewardDestination ledger.Address
	EscrowAuthority         ledger.Address
	AccountCreationService  ledger.Address
	TokenService            ledger.Address
}

// StakeAccounts are the accounts of a Stake invocation, in order.
type StakeAccounts struct {
	User                   ledger.Address // signer
	Position               ledger.Address
	Registry               ledger.Address
	AssetCustody           ledger.Address
	Asset                  ledger.Address
	EscrowAuthority        ledger.Address
	TokenService           ledger.Address
	AccountCreationService ledger.Address
}

// UnstakeAccounts are the accounts of an Unstake invocation, in order.
type UnstakeAccounts struct {
	User                   ledger.Address // signer
	Position               ledger.Address
	Registry               ledger.Address
	EscrowCustody          ledger.Address
	Asset                  ledger.Address
	EscrowAuthority        ledger.Address
	TokenService           ledger.Address
	AccountCreationService ledger.Address
	UserRewardDestination  ledger.Address
	EscrowRewardSource     ledger.Address
}

// HarvestAccounts are the accounts of a Harvest invocation, in order.
// Asset is an optional trailing account. When present the position address
// is re-derived from (User, Asset); otherwise the position is bound to User
// through its recorded owner only.
type HarvestAccounts struct {
	User                  ledger.Address // signer
	Position              ledger.Address
	Registry              ledger.Address
	UserRewardDestination ledger.Address
	EscrowRewardSource    ledger.Address
	EscrowAuthority       ledger.Address
	TokenService          ledger.Address
	Asset                 *ledger.Address
}

func take(metas []xenv.AccountMeta, n int) ([]ledger.Address, error) {
	if len(metas) < n {
		return nil, errors.WithMessagef(reverts.ErrInvalidInput, "want %d accounts, got %d", n, len(metas))
	}
	addrs := make([]ledger.Address, n)
	for i := range addrs {
		addrs[i] = metas[i].Address
	}
	return addrs, nil
}

func ParseInitializeAccounts(metas []xenv.AccountMeta) (*InitializeAccounts, error) {
	a, err := take(metas, 7)
	if err != nil {
		return nil, err
	}
	return &InitializeAccounts{a[0], a[1], a[2], a[3], a[4], a[5], a[6]}, nil
}

func ParseStakeAccounts(metas []xenv.AccountMeta) (*StakeAccounts, error) {
	a, err := take(metas, 8)
	if err != nil {
		return nil, err
	}
	return &StakeAccounts{a[0], a[1], a[2], a[3], a[4], a[5], a[6], a[7]}, nil
}

func ParseUnstakeAccounts(metas []xenv.AccountMeta) (*UnstakeAccounts, error) {
	a, err := take(metas, 10)
	if err != nil {
		return nil, err
	}
	return &UnstakeAccounts{a[0], a[1], a[2], a[3], a[4], a[5], a[6], a[7], a[8], a[9]}, nil
}

func ParseHarvestAccounts(metas []xenv.AccountMeta) (*HarvestAccounts, error) {
	a, err := take(metas, 7)
	if err != nil {
		return nil, err
	}
	accs := &HarvestAccounts{a[0], a[1], a[2], a[3], a[4], a[5], a[6], nil}
	if len(metas) > 7 {
		asset := metas[7].Address
		accs.Asset = &asset
	}
	return accs, nil
}

func meta(addr ledger.Address, signer, writable bool) xenv.AccountMeta {
	return xenv.AccountMeta{Address: addr, IsSigner: signer, IsWritable: writable}
}

// Metas returns the ordered account list of the invocation.
func (a *InitializeAccounts) Metas() []xenv.AccountMeta {
	return []xenv.AccountMeta{
		meta(a.Registry, true, true),
		meta(a.Owner, true, true),
		meta(a.AdminRewardSource, false, true),
		meta(a.EscrowRewardDestination, false, true),
		meta(a.EscrowAuthority, false, false),
		meta(a.AccountCreationService, false, false),
		meta(a.TokenService, false, false),
	}
}

func (a *StakeAccounts) Metas() []xenv.AccountMeta {
	return []xenv.AccountMeta{
		meta(a.User, true, true),
		meta(a.Position, false, true),
		meta(a.Registry, false, true),
		meta(a.AssetCustody, false, true),
		meta(a.Asset, false, false),
		meta(a.EscrowAuthority, false, false),
		meta(a.TokenService, false, false),
		meta(a.AccountCreationService, false, false),
	}
}

func (a *UnstakeAccounts) Metas() []xenv.AccountMeta {
	return []xenv.AccountMeta{
		meta(a.User, true, true),
		meta(a.Position, false, true),
		meta(a.Registry, false, true),
		meta(a.EscrowCustody, false, true),
		meta(a.Asset, false, false),
		meta(a.EscrowAuthority, false, false),
		meta(a.TokenService, false, false),
		meta(a.AccountCreationService, false, false),
		meta(a.UserRewardDestination, false, true),
		meta(a.EscrowRewardSource, false, true),
	}
}

func (a *HarvestAccounts) Metas() []xenv.AccountMeta {
	metas := []xenv.AccountMeta{
		meta(a.User, true, true),
		meta(a.Position, false, true),
		meta(a.Registry, false, false),
		meta(a.UserRewardDestination, false, true),
		meta(a.EscrowRewardSource, false, true),
		meta(a.EscrowAuthority, false, false),
		meta(a.TokenService, false, false),
	}
	if a.Asset != nil {
		metas = append(metas, meta(*a.Asset, false, false))
	}
	return metas
}
