// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"

	"github.com/vechain/nftstake/cache"
	"github.com/vechain/nftstake/kv"
	"github.com/vechain/nftstake/ledger"
	"github.com/vechain/nftstake/stackedmap"
)

// AccountBucket is the kv bucket holding encoded accounts.
const AccountBucket = kv.Bucket("a")

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// State manages the ledger accounts of one unit of work.
// All writes are kept in memory until staged and committed.
type State struct {
	getter kv.Getter
	cache  *cache.LRU
	sm     *stackedmap.StackedMap[ledger.Address, *Account]
}

func newState(getter kv.Getter, cache *cache.LRU) *State {
	s := &State{
		getter: AccountBucket.NewGetter(getter),
		cache:  cache,
	}
	s.sm = stackedmap.New(s.load)
	return s
}

// load reads an account from the underlying store. Missing accounts load as
// empty ones.
func (s *State) load(addr ledger.Address) (*Account, bool, error) {
	loader := func(any) (any, error) {
		raw, err := s.getter.Get(addr.Bytes())
		if err != nil {
			if s.getter.IsNotFound(err) {
				return &Account{}, nil
			}
			return nil, err
		}
		return decodeAccount(raw)
	}

	var (
		v   any
		err error
	)
	if s.cache != nil {
		v, err = s.cache.GetOrLoad(addr, loader)
	} else {
		v, err = loader(addr)
	}
	if err != nil {
		return nil, false, err
	}
	return v.(*Account), true, nil
}

// GetAccount returns a copy of the account at the given address.
// The caller may modify the copy freely and write it back via SetAccount.
func (s *State) GetAccount(addr ledger.Address) (*Account, error) {
	acc, _, err := s.sm.Get(addr)
	if err != nil {
		return nil, &Error{err}
	}
	return acc.Copy(), nil
}

// SetAccount replaces the account at the given address.
func (s *State) SetAccount(addr ledger.Address, acc *Account) {
	s.sm.Put(addr, acc.Copy())
}

// Exists returns whether an account is not empty.
func (s *State) Exists(addr ledger.Address) (bool, error) {
	acc, err := s.GetAccount(addr)
	if err != nil {
		return false, err
	}
	return !acc.IsEmpty(), nil
}

// GetData returns the data of the account owned by the given program.
// An account owned by another program yields nil data.
func (s *State) GetData(addr ledger.Address, owner ledger.Address) ([]byte, error) {
	acc, err := s.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	if acc.Owner != owner {
		return nil, nil
	}
	return acc.Data, nil
}

// SetData overwrites the data of an existing account in place.
// The length of the data is fixed at creation and may not change.
func (s *State) SetData(addr ledger.Address, data []byte) error {
	acc, err := s.GetAccount(addr)
	if err != nil {
		return err
	}
	if len(acc.Data) != len(data) {
		return &Error{fmt.Errorf("data length mismatch for %v: want %d, got %d", addr, len(acc.Data), len(data))}
	}
	acc.Data = data
	s.SetAccount(addr, acc)
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	if revision < 1 || revision >= s.sm.Depth() {
		panic(fmt.Errorf("invalid revision %d", revision))
	}
	s.sm.PopTo(revision)
}

// Stage makes a stage object to commit changes.
func (s *State) Stage() *Stage {
	changes := make(map[ledger.Address]*Account)
	for _, entry := range s.sm.Journal() {
		changes[entry.Key] = entry.Value
	}
	return &Stage{changes: changes, cache: s.cache}
}
