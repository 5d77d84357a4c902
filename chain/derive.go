// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chain

import (
	"github.com/qianbin/directcache"

	"github.com/vechain/nftstake/builtin/staker/platform"
	"github.com/vechain/nftstake/builtin/staker/position"
	"github.com/vechain/nftstake/ledger"
)

const (
	derivedCacheSize = 4 * 1024 * 1024 // bytes
	derivedValueLen  = ledger.AddressLength + 1
)

// key prefixes of the derived address cache
const (
	positionPrefix byte = 'p'
	escrowPrefix   byte = 'e'
)

// derivedCache memoizes program address derivations, which may take up to
// 255 hash rounds each. Values are address || bump.
type derivedCache struct {
	programID ledger.Address
	c         *directcache.Cache
}

func newDerivedCache(programID ledger.Address) *derivedCache {
	return &derivedCache{programID, directcache.New(derivedCacheSize)}
}

func (d *derivedCache) get(key []byte) (ledger.Address, uint8, bool) {
	var (
		addr ledger.Address
		bump uint8
	)
	found := d.c.AdvGet(key, func(val []byte) {
		if len(val) == derivedValueLen {
			copy(addr[:], val)
			bump = val[ledger.AddressLength]
		}
	}, false)
	return addr, bump, found && !addr.IsZero()
}

func (d *derivedCache) set(key []byte, addr ledger.Address, bump uint8) {
	val := make([]byte, 0, derivedValueLen)
	_ = d.c.Set(key, append(append(val, addr.Bytes()...), bump))
}

// Position returns the position address of owner's asset.
func (d *derivedCache) Position(owner, asset ledger.Address) (ledger.Address, uint8, error) {
	key := make([]byte, 0, 1+2*ledger.AddressLength)
	key = append(append(append(key, positionPrefix), owner.Bytes()...), asset.Bytes()...)
	if addr, bump, ok := d.get(key); ok {
		return addr, bump, nil
	}
	addr, bump, err := position.Derive(owner, asset, d.programID)
	if err != nil {
		return ledger.Address{}, 0, err
	}
	d.set(key, addr, bump)
	return addr, bump, nil
}

// Escrow returns the escrow authority of a registry.
func (d *derivedCache) Escrow(registry ledger.Address) (*platform.Escrow, error) {
	key := append([]byte{escrowPrefix}, registry.Bytes()...)
	if addr, bump, ok := d.get(key); ok {
		return &platform.Escrow{Address: addr, Bump: bump}, nil
	}
	escrow, err := platform.DeriveEscrow(registry, d.programID)
	if err != nil {
		return nil, err
	}
	d.set(key, escrow.Address, escrow.Bump)
	return escrow, nil
}
