// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/nftstake/ledger"
)

// Config is the user customized genesis, usually loaded from a yaml file.
type Config struct {
	LaunchTime    uint64         `yaml:"launchTime"`
	Programs      Programs       `yaml:"programs,omitempty"`
	Accounts      []Account      `yaml:"accounts,omitempty"`
	TokenAccounts []TokenAccount `yaml:"tokenAccounts,omitempty"`
}

// Programs overrides the program IDs. Unset IDs take the defaults.
type Programs struct {
	Token  *ledger.Address `yaml:"token,omitempty"`
	Staker *ledger.Address `yaml:"staker,omitempty"`
}

// Account is a funded wallet owned by the system program.
type Account struct {
	Address  ledger.Address `yaml:"address"`
	Lamports uint64         `yaml:"lamports"`
}

// TokenAccount is a rent exempt token account owned by the token program.
type TokenAccount struct {
	Address   ledger.Address  `yaml:"address"`
	Mint      ledger.Address  `yaml:"mint"`
	Authority *ledger.Address `yaml:"authority,omitempty"`
	// EscrowOf sets the authority to the escrow authority of the given
	// platform registry.
	EscrowOf *ledger.Address `yaml:"escrowOf,omitempty"`
	Amount   uint64          `yaml:"amount"`
}

// LoadConfig reads a yaml genesis config. Unknown fields are rejected.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis file")
	}
	return ParseConfig(raw)
}

// ParseConfig decodes a yaml genesis config.
func ParseConfig(raw []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode genesis")
	}
	return &cfg, nil
}
