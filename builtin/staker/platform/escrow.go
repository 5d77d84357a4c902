// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package platform

import "github.com/vechain/nftstake/ledger"

// EscrowSalt prefixes the escrow authority seeds.
const EscrowSalt = "platform-escrow"

// EscrowSeeds returns the seeds of the escrow authority of a registry.
func EscrowSeeds(registry ledger.Address) [][]byte {
	return [][]byte{[]byte(EscrowSalt), registry.Bytes()}
}

// Escrow is a derived escrow authority together with its signing proof.
type Escrow struct {
	Address ledger.Address
	Bump    uint8
}

// DeriveEscrow finds the escrow authority of a registry.
func DeriveEscrow(registry ledger.Address, programID ledger.Address) (*Escrow, error) {
	addr, bump, err := ledger.FindProgramAddress(EscrowSeeds(registry), programID)
	if err != nil {
		return nil, err
	}
	return &Escrow{Address: addr, Bump: bump}, nil
}

// SignerSeeds returns the seeds, bump included, that authorize the escrow in
// calls made by the program.
func (e *Escrow) SignerSeeds(registry ledger.Address) [][]byte {
	return append(EscrowSeeds(registry), []byte{e.Bump})
}
