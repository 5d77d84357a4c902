// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/nftstake/ledger"
)

// Account is the ledger's unit of storage. Its data is an opaque byte buffer
// sized at creation and interpreted only by the owning program.
type Account struct {
	Owner    ledger.Address // program which may write the data
	Lamports uint64
	Data     []byte
}

// IsEmpty returns if an account is empty.
// An empty account is never persisted.
func (a *Account) IsEmpty() bool {
	return a.Owner.IsZero() && a.Lamports == 0 && len(a.Data) == 0
}

// Copy returns a deep copy of the account.
func (a *Account) Copy() *Account {
	cpy := *a
	if a.Data != nil {
		cpy.Data = append([]byte(nil), a.Data...)
	}
	return &cpy
}

func decodeAccount(raw []byte) (*Account, error) {
	var a Account
	if err := rlp.DecodeBytes(raw, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func encodeAccount(a *Account) ([]byte, error) {
	return rlp.EncodeToBytes(a)
}
