// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"crypto/ed25519"
	"io"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/nftstake/ledger"
	"github.com/vechain/nftstake/xenv"
)

// MaxAccounts limits the account list of an invocation.
const MaxAccounts = 64

// Invocation is an external call of a program. Every account flagged as
// signer must be an ed25519 public key with a matching signature over
// SigningHash. Nonce makes otherwise equal invocations distinct.
type Invocation struct {
	Program    ledger.Address     `json:"program"`
	Accounts   []xenv.AccountMeta `json:"accounts"`
	Data       hexutil.Bytes      `json:"data"`
	Nonce      uint64             `json:"nonce"`
	Signatures []Signature        `json:"signatures"`
}

// Signature is the ed25519 signature of one signer account.
type Signature struct {
	Signer ledger.Address `json:"signer"`
	Sig    hexutil.Bytes  `json:"sig"`
}

// SigningHash returns the hash the signers sign. It also identifies the
// invocation.
func (inv *Invocation) SigningHash() ledger.Bytes32 {
	return ledger.Blake2bFn(func(w io.Writer) {
		rlp.Encode(w, []any{
			inv.Program,
			inv.Accounts,
			[]byte(inv.Data),
			inv.Nonce,
		})
	})
}

// Sign appends the signature made with key. Sign after the other fields are
// final.
func (inv *Invocation) Sign(key ed25519.PrivateKey) {
	hash := inv.SigningHash()
	inv.Signatures = append(inv.Signatures, Signature{
		Signer: ledger.BytesToAddress(key.Public().(ed25519.PublicKey)),
		Sig:    ed25519.Sign(key, hash[:]),
	})
}

// SignAll signs for every signer account with the key returned by keyOf.
func (inv *Invocation) SignAll(keyOf func(ledger.Address) (ed25519.PrivateKey, bool)) error {
	for _, addr := range signersOf(inv.Accounts) {
		key, ok := keyOf(addr)
		if !ok {
			return errors.Errorf("no key for signer %v", addr)
		}
		inv.Sign(key)
	}
	return nil
}

// ResolvedInvocation is an invocation that passed basic validation and
// signature checks.
type ResolvedInvocation struct {
	ID       ledger.Bytes32
	Program  ledger.Address
	Accounts []xenv.AccountMeta
	Data     []byte
	Signers  []ledger.Address
}

// ResolveInvocation performs basic validation and verifies the signatures.
// The signer of an account listed more than once is the union of its
// entries. A program derived address never signs; its program authorizes
// it while running.
func ResolveInvocation(inv *Invocation) (*ResolvedInvocation, error) {
	if len(inv.Data) == 0 {
		return nil, errors.New("empty instruction data")
	}
	if len(inv.Accounts) > MaxAccounts {
		return nil, errors.Errorf("too many accounts: %d > %d", len(inv.Accounts), MaxAccounts)
	}

	sigs := make(map[ledger.Address][]byte, len(inv.Signatures))
	for _, s := range inv.Signatures {
		if _, dup := sigs[s.Signer]; dup {
			return nil, errors.Errorf("duplicated signature of %v", s.Signer)
		}
		sigs[s.Signer] = s.Sig
	}

	hash := inv.SigningHash()
	signers := signersOf(inv.Accounts)
	for _, addr := range signers {
		if !ledger.IsOnCurve(addr[:]) {
			return nil, errors.Errorf("derived address %v cannot sign", addr)
		}
		sig, ok := sigs[addr]
		if !ok {
			return nil, errors.Errorf("missing signature of %v", addr)
		}
		if len(sig) != ed25519.SignatureSize || !ed25519.Verify(ed25519.PublicKey(addr[:]), hash[:], sig) {
			return nil, errors.Errorf("invalid signature of %v", addr)
		}
	}
	if len(sigs) != len(signers) {
		return nil, errors.New("signature of a non-signer account")
	}

	return &ResolvedInvocation{
		ID:       hash,
		Program:  inv.Program,
		Accounts: append([]xenv.AccountMeta(nil), inv.Accounts...),
		Data:     append([]byte(nil), inv.Data...),
		Signers:  signers,
	}, nil
}

func signersOf(metas []xenv.AccountMeta) []ledger.Address {
	seen := make(map[ledger.Address]bool)
	var signers []ledger.Address
	for _, acc := range metas {
		if acc.IsSigner && !seen[acc.Address] {
			seen[acc.Address] = true
			signers = append(signers, acc.Address)
		}
	}
	return signers
}
