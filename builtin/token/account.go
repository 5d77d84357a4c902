// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"encoding/binary"

	"github.com/vechain/nftstake/builtin/reverts"
	"github.com/vechain/nftstake/ledger"
)

// AccountLen is the encoded size of a token account.
const AccountLen = 72

// Account holds an amount of a single mint on behalf of its authority.
type Account struct {
	Mint      ledger.Address `json:"mint"`
	Authority ledger.Address `json:"authority"`
	Amount    uint64         `json:"amount"`
}

// IsInitialized reports whether the account has been bound to a mint.
func (a *Account) IsInitialized() bool {
	return !a.Mint.IsZero()
}

// Encode packs the account as mint(32) | authority(32) | amount(u64 LE).
func (a *Account) Encode() []byte {
	data := make([]byte, AccountLen)
	copy(data[0:32], a.Mint[:])
	copy(data[32:64], a.Authority[:])
	binary.LittleEndian.PutUint64(data[64:72], a.Amount)
	return data
}

// DecodeAccount unpacks a token account.
func DecodeAccount(data []byte) (*Account, error) {
	if len(data) != AccountLen {
		return nil, reverts.ErrInvalidRecordData
	}
	var a Account
	copy(a.Mint[:], data[0:32])
	copy(a.Authority[:], data[32:64])
	a.Amount = binary.LittleEndian.Uint64(data[64:72])
	return &a, nil
}
