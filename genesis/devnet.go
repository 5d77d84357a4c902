// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"crypto/ed25519"
	"sync"

	"github.com/vechain/nftstake/ledger"
)

// Devnet amounts.
const (
	DevLamports      uint64 = 10_000_000_000
	DevAdminRewards  uint64 = 10_000_000
	DevPoolPrefund   uint64 = 1_000_000
	devLaunchTime    uint64 = 1_700_000_000
	devAddressPrefix        = "nftstake/dev/"
)

// DevKey returns the well-known devnet key of a name.
func DevKey(name string) ed25519.PrivateKey {
	seed := ledger.Blake2b([]byte(devAddressPrefix + name))
	return ed25519.NewKeyFromSeed(seed[:])
}

// DevAddress returns the well-known devnet address of a name, the public
// key of DevKey(name).
func DevAddress(name string) ledger.Address {
	return ledger.BytesToAddress(DevKey(name).Public().(ed25519.PublicKey))
}

var devSigners = sync.OnceValue(func() map[ledger.Address]ed25519.PrivateKey {
	m := make(map[ledger.Address]ed25519.PrivateKey)
	for _, name := range []string{"admin", "registry", "alice", "bob", "carol"} {
		m[DevAddress(name)] = DevKey(name)
	}
	return m
})

// DevKeyOf returns the key of a devnet signer: the admin, the registry or a
// user wallet.
func DevKeyOf(addr ledger.Address) (ed25519.PrivateKey, bool) {
	key, ok := devSigners()[addr]
	return key, ok
}

// DevUser is a pre-funded devnet user.
type DevUser struct {
	Name    string
	Wallet  ledger.Address
	Rewards ledger.Address // reward token account
	Assets  []DevAsset
}

// DevAsset is an NFT held by a devnet user.
type DevAsset struct {
	Mint    ledger.Address
	Custody ledger.Address // token account holding the single unit
}

// DevPlatform is the devnet staking platform. The registry account does not
// exist until the admin initializes it.
type DevPlatform struct {
	Admin       ledger.Address
	AdminSource ledger.Address // admin reward token account
	Registry    ledger.Address
	Pool        ledger.Address // escrow reward token account
	RewardMint  ledger.Address
}

var devnet = sync.OnceValues(func() (*DevPlatform, []DevUser) {
	p := &DevPlatform{
		Admin:       DevAddress("admin"),
		AdminSource: DevAddress("admin/rewards"),
		Registry:    DevAddress("registry"),
		Pool:        DevAddress("registry/pool"),
		RewardMint:  DevAddress("mint/reward"),
	}
	var users []DevUser
	for _, name := range []string{"alice", "bob", "carol"} {
		u := DevUser{
			Name:    name,
			Wallet:  DevAddress(name),
			Rewards: DevAddress(name + "/rewards"),
		}
		for _, nft := range []string{"nft-1", "nft-2"} {
			u.Assets = append(u.Assets, DevAsset{
				Mint:    DevAddress("mint/" + name + "/" + nft),
				Custody: DevAddress(name + "/" + nft),
			})
		}
		users = append(users, u)
	}
	return p, users
})

// DevPlatformAccounts returns the devnet platform accounts.
func DevPlatformAccounts() *DevPlatform {
	p, _ := devnet()
	return p
}

// DevUsers returns the pre-funded devnet users.
func DevUsers() []DevUser {
	_, users := devnet()
	return users
}

// DevConfig returns the config of the devnet.
func DevConfig() *Config {
	p := DevPlatformAccounts()
	cfg := &Config{
		LaunchTime: devLaunchTime,
		Accounts: []Account{
			{Address: p.Admin, Lamports: DevLamports},
		},
		TokenAccounts: []TokenAccount{
			{Address: p.AdminSource, Mint: p.RewardMint, Authority: &p.Admin, Amount: DevAdminRewards},
			{Address: p.Pool, Mint: p.RewardMint, EscrowOf: &p.Registry, Amount: DevPoolPrefund},
		},
	}
	for _, u := range DevUsers() {
		wallet := u.Wallet
		cfg.Accounts = append(cfg.Accounts, Account{Address: wallet, Lamports: DevLamports})
		cfg.TokenAccounts = append(cfg.TokenAccounts, TokenAccount{Address: u.Rewards, Mint: p.RewardMint, Authority: &wallet})
		for _, a := range u.Assets {
			cfg.TokenAccounts = append(cfg.TokenAccounts, TokenAccount{Address: a.Custody, Mint: a.Mint, Authority: &wallet, Amount: 1})
		}
	}
	return cfg
}

// NewDevnet create genesis for solo mode.
func NewDevnet() *Genesis {
	g, err := New("devnet", DevConfig())
	if err != nil {
		panic(err)
	}
	return g
}
