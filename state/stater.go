// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/vechain/nftstake/cache"
	"github.com/vechain/nftstake/kv"
)

const defaultCacheSize = 4096

// Stater is the state creator.
type Stater struct {
	db    kv.Getter
	cache *cache.LRU
}

// NewStater create a new stater.
func NewStater(db kv.Getter) *Stater {
	c, _ := cache.NewLRU(defaultCacheSize)
	return &Stater{db, c}
}

// NewState create a new state object over the latest committed accounts.
func (s *Stater) NewState() *State {
	return newState(s.db, s.cache)
}

// CacheStats returns hit/miss counters of the shared account cache.
func (s *Stater) CacheStats() (int64, int64) {
	return s.cache.Stats()
}
