// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chain

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/nftstake/kv"
	"github.com/vechain/nftstake/ledger"
)

const (
	// metaBucket holds ledger properties next to the account bucket.
	metaBucket = kv.Bucket("m")
	// invocationBucket marks the ids of committed invocations.
	invocationBucket = kv.Bucket("i")
)

var (
	genesisIDKey = []byte("genesis-id")
	clockKey     = []byte("clock")
)

// Clock is the ledger clock. Number counts committed invocations.
type Clock struct {
	Number uint32 `json:"number"`
	Time   uint64 `json:"time"`
}

func saveRLP(w kv.Putter, key []byte, val any) error {
	data, err := rlp.EncodeToBytes(val)
	if err != nil {
		return err
	}
	return w.Put(key, data)
}

func loadRLP(r kv.Getter, key []byte, val any) error {
	data, err := r.Get(key)
	if err != nil {
		return err
	}
	return rlp.DecodeBytes(data, val)
}

func saveClock(w kv.Putter, clock *Clock) error {
	return saveRLP(metaBucket.NewPutter(w), clockKey, clock)
}

func loadClock(r kv.Getter) (*Clock, error) {
	var clock Clock
	if err := loadRLP(metaBucket.NewGetter(r), clockKey, &clock); err != nil {
		return nil, err
	}
	return &clock, nil
}

func saveGenesisID(w kv.Putter, id ledger.Bytes32) error {
	return metaBucket.NewPutter(w).Put(genesisIDKey, id.Bytes())
}

func loadGenesisID(r kv.Getter) (ledger.Bytes32, error) {
	data, err := metaBucket.NewGetter(r).Get(genesisIDKey)
	if err != nil {
		return ledger.Bytes32{}, err
	}
	var id ledger.Bytes32
	copy(id[:], data)
	return id, nil
}

func saveInvocation(w kv.Putter, id ledger.Bytes32) error {
	return invocationBucket.NewPutter(w).Put(id.Bytes(), []byte{1})
}

func hasInvocation(r kv.Getter, id ledger.Bytes32) (bool, error) {
	return invocationBucket.NewGetter(r).Has(id.Bytes())
}
