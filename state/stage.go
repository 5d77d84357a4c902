// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/vechain/nftstake/cache"
	"github.com/vechain/nftstake/kv"
	"github.com/vechain/nftstake/ledger"
)

// Stage abstracts changes on the accounts.
type Stage struct {
	changes map[ledger.Address]*Account
	cache   *cache.LRU
}

// Changed returns the addresses of changed accounts in a stable order.
func (s *Stage) Changed() []ledger.Address {
	addrs := make([]ledger.Address, 0, len(s.changes))
	for addr := range s.changes {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return string(addrs[i][:]) < string(addrs[j][:])
	})
	return addrs
}

// Commit writes the changes into the putter. Empty accounts are deleted.
func (s *Stage) Commit(putter kv.Putter) error {
	putter = AccountBucket.NewPutter(putter)
	for _, addr := range s.Changed() {
		acc := s.changes[addr]
		if s.cache != nil {
			s.cache.Remove(addr)
		}
		if acc.IsEmpty() {
			if err := putter.Delete(addr.Bytes()); err != nil {
				return errors.Wrap(err, "delete account")
			}
			continue
		}
		raw, err := encodeAccount(acc)
		if err != nil {
			return errors.Wrap(err, "encode account")
		}
		if err := putter.Put(addr.Bytes(), raw); err != nil {
			return errors.Wrap(err, "put account")
		}
	}
	return nil
}
