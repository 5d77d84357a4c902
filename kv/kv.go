// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package kv declares the key/value surface the ledger persists through.
// Accounts, the clock and the genesis id all live in one store, split by
// Bucket prefixes.
package kv

// Getter reads keys.
type Getter interface {
	// Get fails for a missing key; check the error with IsNotFound.
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	IsNotFound(err error) bool
}

// Putter writes keys.
type Putter interface {
	Put(key, value []byte) error
	Delete(key []byte) error
}

type GetPutter interface {
	Getter
	Putter
}

// Batch collects writes that become visible together on Write. An
// invocation's account changes and the advanced clock share one batch.
type Batch interface {
	Putter
	Len() int
	Write() error
}

// Store is a durable key/value store.
type Store interface {
	GetPutter
	NewBatch() Batch
	Close() error
}
