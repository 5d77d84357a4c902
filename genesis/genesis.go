// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"fmt"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/nftstake/builtin/staker"
	"github.com/vechain/nftstake/builtin/staker/platform"
	"github.com/vechain/nftstake/builtin/system"
	"github.com/vechain/nftstake/builtin/token"
	"github.com/vechain/nftstake/kv"
	"github.com/vechain/nftstake/ledger"
	"github.com/vechain/nftstake/state"
)

// Genesis describes the initial ledger state.
type Genesis struct {
	config   *Config
	id       ledger.Bytes32
	name     string
	tokenID  ledger.Address
	stakerID ledger.Address
}

// New validates the config and creates a genesis.
func New(name string, cfg *Config) (*Genesis, error) {
	g := &Genesis{
		config:   cfg,
		name:     name,
		tokenID:  token.DefaultProgramID,
		stakerID: staker.DefaultProgramID,
	}
	if cfg.Programs.Token != nil {
		g.tokenID = *cfg.Programs.Token
	}
	if cfg.Programs.Staker != nil {
		g.stakerID = *cfg.Programs.Staker
	}

	programs := map[ledger.Address]string{system.ProgramID: "system"}
	for _, p := range []struct {
		name string
		id   ledger.Address
	}{{"token", g.tokenID}, {"staker", g.stakerID}} {
		if other, ok := programs[p.id]; ok {
			return nil, fmt.Errorf("program %s: address %v taken by %s", p.name, p.id, other)
		}
		programs[p.id] = p.name
	}

	seen := make(map[ledger.Address]bool)
	check := func(addr ledger.Address) error {
		if _, ok := programs[addr]; ok {
			return fmt.Errorf("%v: address taken by a program", addr)
		}
		if seen[addr] {
			return fmt.Errorf("%v: duplicated account", addr)
		}
		seen[addr] = true
		return nil
	}
	for _, a := range cfg.Accounts {
		if err := check(a.Address); err != nil {
			return nil, err
		}
		if a.Lamports == 0 {
			return nil, fmt.Errorf("%v: lamports must be a non-zero integer", a.Address)
		}
	}
	for _, ta := range cfg.TokenAccounts {
		if err := check(ta.Address); err != nil {
			return nil, err
		}
		if (ta.Authority == nil) == (ta.EscrowOf == nil) {
			return nil, fmt.Errorf("%v: exactly one of authority and escrowOf must be set", ta.Address)
		}
	}

	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "encode genesis")
	}
	g.id = ledger.Blake2b([]byte(name), raw)
	return g, nil
}

// ID returns the genesis id, which identifies the data dir it was built into.
func (g *Genesis) ID() ledger.Bytes32 {
	return g.id
}

// Name returns network name.
func (g *Genesis) Name() string {
	return g.name
}

// LaunchTime returns the initial ledger time.
func (g *Genesis) LaunchTime() uint64 {
	return g.config.LaunchTime
}

// TokenProgramID returns the token program address.
func (g *Genesis) TokenProgramID() ledger.Address {
	return g.tokenID
}

// StakerProgramID returns the staking program address.
func (g *Genesis) StakerProgramID() ledger.Address {
	return g.stakerID
}

// Config returns the config the genesis was created from.
func (g *Genesis) Config() *Config {
	return g.config
}

// Build writes the initial accounts into the store.
func (g *Genesis) Build(store kv.GetPutter) error {
	st := state.NewStater(store).NewState()
	tok := token.New(g.tokenID)

	for _, a := range g.config.Accounts {
		st.SetAccount(a.Address, &state.Account{Owner: system.ProgramID, Lamports: a.Lamports})
	}
	for _, ta := range g.config.TokenAccounts {
		authority, err := g.authorityOf(&ta)
		if err != nil {
			return err
		}
		st.SetAccount(ta.Address, tok.NewLedgerAccount(&token.Account{
			Mint:      ta.Mint,
			Authority: authority,
			Amount:    ta.Amount,
		}))
	}
	return st.Stage().Commit(store)
}

func (g *Genesis) authorityOf(ta *TokenAccount) (ledger.Address, error) {
	if ta.Authority != nil {
		return *ta.Authority, nil
	}
	escrow, err := platform.DeriveEscrow(*ta.EscrowOf, g.stakerID)
	if err != nil {
		return ledger.Address{}, errors.Wrapf(err, "%v: derive escrow", ta.Address)
	}
	return escrow.Address, nil
}
