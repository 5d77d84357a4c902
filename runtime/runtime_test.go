// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"crypto/ed25519"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/nftstake/builtin/reverts"
	"github.com/vechain/nftstake/ledger"
	"github.com/vechain/nftstake/lvldb"
	"github.com/vechain/nftstake/state"
	"github.com/vechain/nftstake/xenv"
)

var (
	programID = ledger.BytesToAddress([]byte("program"))
	target    = ledger.BytesToAddress([]byte("target"))
)

// counter adds the first data byte to the lamports of the first account,
// then fails with the error selected by the second data byte.
type counter struct{}

func (c *counter) Address() ledger.Address { return programID }

func (c *counter) Process(env *xenv.Environment, accounts []xenv.AccountMeta, data []byte) error {
	acc, err := env.State().GetAccount(accounts[0].Address)
	if err != nil {
		return err
	}
	acc.Lamports += uint64(data[0])
	env.State().SetAccount(accounts[0].Address, acc)
	env.Log(&xenv.Event{Name: "Counted", Subject: accounts[0].Address, Amount: acc.Lamports})

	if len(data) > 1 {
		switch data[1] {
		case 1:
			return errors.WithMessage(reverts.ErrInvalidInput, "asked to fail")
		case 2:
			return errors.New("disk on fire")
		}
	}
	return nil
}

func newRuntime(t *testing.T) *Runtime {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.NewStater(db).NewState()
	return New(st, &xenv.BlockContext{Number: 1, Time: 100}, &counter{})
}

func execute(t *testing.T, rt *Runtime, data ...byte) (*Output, error) {
	inv, err := ResolveInvocation(&Invocation{
		Program:  programID,
		Accounts: []xenv.AccountMeta{{Address: target, IsWritable: true}},
		Data:     data,
	})
	require.NoError(t, err)
	return rt.Execute(inv)
}

func lamports(t *testing.T, rt *Runtime) uint64 {
	acc, err := rt.State().GetAccount(target)
	require.NoError(t, err)
	return acc.Lamports
}

func TestExecute(t *testing.T) {
	rt := newRuntime(t)

	out, err := execute(t, rt, 5)
	require.NoError(t, err)
	assert.NoError(t, out.Revert)
	require.Len(t, out.Events, 1)
	assert.Equal(t, programID, out.Events[0].Program)
	assert.Equal(t, uint64(5), lamports(t, rt))
}

func TestExecuteRevert(t *testing.T) {
	rt := newRuntime(t)
	_, err := execute(t, rt, 5)
	require.NoError(t, err)

	out, err := execute(t, rt, 7, 1)
	require.NoError(t, err)
	assert.True(t, errors.Is(out.Revert, reverts.ErrInvalidInput))
	assert.Empty(t, out.Events)
	assert.Equal(t, uint64(5), lamports(t, rt), "reverted write is discarded")

	_, err = execute(t, rt, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), lamports(t, rt))
}

func TestExecuteLedgerFailure(t *testing.T) {
	rt := newRuntime(t)

	out, err := execute(t, rt, 5, 2)
	assert.Error(t, err)
	assert.Nil(t, out)
	assert.Zero(t, lamports(t, rt))
}

func TestExecuteUnknownProgram(t *testing.T) {
	rt := newRuntime(t)
	_, err := rt.Execute(&ResolvedInvocation{Program: target, Data: []byte{1}})
	assert.Error(t, err)
}

func testKey(name string) ed25519.PrivateKey {
	seed := ledger.Blake2b([]byte(name))
	return ed25519.NewKeyFromSeed(seed[:])
}

func addressOf(key ed25519.PrivateKey) ledger.Address {
	return ledger.BytesToAddress(key.Public().(ed25519.PublicKey))
}

func TestResolveInvocation(t *testing.T) {
	_, err := ResolveInvocation(&Invocation{Program: programID})
	assert.Error(t, err, "empty data")

	_, err = ResolveInvocation(&Invocation{
		Program:  programID,
		Accounts: make([]xenv.AccountMeta, MaxAccounts+1),
		Data:     []byte{1},
	})
	assert.Error(t, err)

	key := testKey("a")
	a := addressOf(key)
	b := ledger.BytesToAddress([]byte("b"))
	inv := &Invocation{
		Program: programID,
		Accounts: []xenv.AccountMeta{
			{Address: a, IsSigner: true},
			{Address: b},
			{Address: a, IsSigner: true},
		},
		Data: []byte{1},
	}
	inv.Sign(key)
	resolved, err := ResolveInvocation(inv)
	require.NoError(t, err)
	assert.Equal(t, []ledger.Address{a}, resolved.Signers)
	assert.Equal(t, inv.SigningHash(), resolved.ID)
	assert.Len(t, resolved.Accounts, 3)
}

func TestResolveInvocationSignatures(t *testing.T) {
	alice, bob := testKey("alice"), testKey("bob")
	newInv := func() *Invocation {
		return &Invocation{
			Program:  programID,
			Accounts: []xenv.AccountMeta{{Address: addressOf(alice), IsSigner: true}, {Address: target, IsWritable: true}},
			Data:     []byte{1},
		}
	}

	t.Run("missing", func(t *testing.T) {
		_, err := ResolveInvocation(newInv())
		assert.ErrorContains(t, err, "missing signature")
	})

	t.Run("wrong key", func(t *testing.T) {
		inv := newInv()
		inv.Sign(bob)
		inv.Signatures[0].Signer = addressOf(alice)
		_, err := ResolveInvocation(inv)
		assert.ErrorContains(t, err, "invalid signature")
	})

	t.Run("tampered", func(t *testing.T) {
		inv := newInv()
		inv.Sign(alice)
		inv.Data = []byte{2}
		_, err := ResolveInvocation(inv)
		assert.ErrorContains(t, err, "invalid signature")

		inv = newInv()
		inv.Sign(alice)
		inv.Nonce = 1
		_, err = ResolveInvocation(inv)
		assert.ErrorContains(t, err, "invalid signature")
	})

	t.Run("extra signer", func(t *testing.T) {
		inv := newInv()
		inv.Sign(alice)
		inv.Sign(bob)
		_, err := ResolveInvocation(inv)
		assert.ErrorContains(t, err, "non-signer")
	})

	t.Run("duplicated", func(t *testing.T) {
		inv := newInv()
		inv.Sign(alice)
		inv.Sign(alice)
		_, err := ResolveInvocation(inv)
		assert.ErrorContains(t, err, "duplicated")
	})

	t.Run("sign all", func(t *testing.T) {
		inv := newInv()
		keys := map[ledger.Address]ed25519.PrivateKey{addressOf(alice): alice}
		require.NoError(t, inv.SignAll(func(addr ledger.Address) (ed25519.PrivateKey, bool) {
			key, ok := keys[addr]
			return key, ok
		}))
		_, err := ResolveInvocation(inv)
		assert.NoError(t, err)

		assert.Error(t, newInv().SignAll(func(ledger.Address) (ed25519.PrivateKey, bool) { return nil, false }))
	})
}

func TestResolveInvocationDerivedSigner(t *testing.T) {
	derived, _, err := ledger.FindProgramAddress([][]byte{[]byte("escrow")}, programID)
	require.NoError(t, err)

	inv := &Invocation{
		Program:  programID,
		Accounts: []xenv.AccountMeta{{Address: target, IsWritable: true}, {Address: derived, IsSigner: true}},
		Data:     []byte{1},
	}
	inv.Signatures = []Signature{{Signer: derived, Sig: make([]byte, ed25519.SignatureSize)}}
	_, err = ResolveInvocation(inv)
	assert.ErrorContains(t, err, "cannot sign")
}
