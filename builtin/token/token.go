// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/vechain/nftstake/builtin/reverts"
	"github.com/vechain/nftstake/builtin/system"
	"github.com/vechain/nftstake/ledger"
	"github.com/vechain/nftstake/log"
	"github.com/vechain/nftstake/state"
	"github.com/vechain/nftstake/xenv"
)

var logger = log.WithContext("pkg", "token")

// DefaultProgramID is the address of the token-transfer service unless
// genesis names another one.
var DefaultProgramID = ledger.Address(ledger.Blake2b([]byte("nftstake/token")))

// AuthorityType selects which authority SetAuthority replaces.
type AuthorityType uint8

const (
	MintTokens AuthorityType = iota
	FreezeAccount
	AccountOwner
	CloseAccount
)

// instruction tags accepted by Process
const (
	InstructionTransfer     uint8 = 3
	InstructionSetAuthority uint8 = 6
)

// Program is the token-transfer service.
type Program struct {
	id ledger.Address
}

func New(id ledger.Address) *Program {
	return &Program{id: id}
}

func (p *Program) Address() ledger.Address {
	return p.id
}

// LoadAccount reads and decodes the token account at addr.
func (p *Program) LoadAccount(st *state.State, addr ledger.Address) (*Account, error) {
	acc, err := st.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	if acc.Owner != p.id {
		return nil, errors.WithMessagef(reverts.ErrInvalidRecordData, "%v is not a token account", addr)
	}
	tokenAcc, err := DecodeAccount(acc.Data)
	if err != nil {
		return nil, errors.WithMessagef(err, "token account %v", addr)
	}
	if !tokenAcc.IsInitialized() {
		return nil, errors.WithMessagef(reverts.ErrInvalidRecordData, "token account %v is not initialized", addr)
	}
	return tokenAcc, nil
}

func (p *Program) storeAccount(st *state.State, addr ledger.Address, acc *Account) error {
	return st.SetData(addr, acc.Encode())
}

// NewLedgerAccount returns a rent exempt ledger account holding acc, for
// seeding a ledger at genesis.
func (p *Program) NewLedgerAccount(acc *Account) *state.Account {
	return &state.Account{
		Owner:    p.id,
		Lamports: system.MinimumBalance(AccountLen),
		Data:     acc.Encode(),
	}
}

// Transfer moves amount from source to destination. The authority must be
// the authority of source and must be authorized, either as a signer or by
// one of the signer seed sets of the invoking program.
func (p *Program) Transfer(
	env *xenv.Environment,
	source ledger.Address,
	destination ledger.Address,
	authority ledger.Address,
	amount uint64,
	signerSeeds ...[][]byte,
) error {
	st := env.State()
	src, err := p.LoadAccount(st, source)
	if err != nil {
		return err
	}
	dst, err := p.LoadAccount(st, destination)
	if err != nil {
		return err
	}
	if src.Authority != authority || !env.Authorized(authority, signerSeeds...) {
		return errors.WithMessagef(reverts.ErrUnauthorized, "authority %v of %v", authority, source)
	}
	if src.Mint != dst.Mint {
		return reverts.ErrMintMismatch
	}
	if src.Amount < amount {
		return errors.WithMessagef(reverts.ErrInsufficientBalance, "need %d, have %d", amount, src.Amount)
	}
	if source == destination {
		return nil
	}
	if dst.Amount+amount < dst.Amount {
		return reverts.ErrArithmeticOverflow
	}
	src.Amount -= amount
	dst.Amount += amount
	if err := p.storeAccount(st, source, src); err != nil {
		return err
	}
	if err := p.storeAccount(st, destination, dst); err != nil {
		return err
	}
	logger.Debug("transferred", "from", source, "to", destination, "amount", amount)
	return nil
}

// SetAuthority reassigns the authority of account from currentAuthority to
// newAuthority. Only the AccountOwner kind is supported.
func (p *Program) SetAuthority(
	env *xenv.Environment,
	account ledger.Address,
	newAuthority ledger.Address,
	kind AuthorityType,
	currentAuthority ledger.Address,
	signerSeeds ...[][]byte,
) error {
	if kind != AccountOwner {
		return errors.WithMessagef(reverts.ErrInvalidInput, "authority type %d", kind)
	}
	st := env.State()
	acc, err := p.LoadAccount(st, account)
	if err != nil {
		return err
	}
	if acc.Authority != currentAuthority || !env.Authorized(currentAuthority, signerSeeds...) {
		return errors.WithMessagef(reverts.ErrUnauthorized, "authority %v of %v", currentAuthority, account)
	}
	acc.Authority = newAuthority
	if err := p.storeAccount(st, account, acc); err != nil {
		return err
	}
	logger.Debug("authority changed", "account", account, "authority", newAuthority)
	return nil
}

// EncodeTransfer encodes a Transfer instruction.
func EncodeTransfer(amount uint64) []byte {
	data := make([]byte, 9)
	data[0] = InstructionTransfer
	binary.LittleEndian.PutUint64(data[1:], amount)
	return data
}

// EncodeSetAuthority encodes a SetAuthority instruction.
func EncodeSetAuthority(kind AuthorityType, newAuthority ledger.Address) []byte {
	data := make([]byte, 0, 34)
	data = append(data, InstructionSetAuthority, byte(kind))
	return append(data, newAuthority[:]...)
}

// Process executes an instruction addressed to the service.
//
//	Transfer:     [source, destination, authority(signer)]
//	SetAuthority: [account, current-authority(signer)]
func (p *Program) Process(env *xenv.Environment, accounts []xenv.AccountMeta, data []byte) error {
	if len(data) == 0 {
		return reverts.ErrInvalidInput
	}
	switch data[0] {
	case InstructionTransfer:
		if len(data) != 9 || len(accounts) < 3 {
			return reverts.ErrInvalidInput
		}
		amount := binary.LittleEndian.Uint64(data[1:])
		return p.Transfer(env, accounts[0].Address, accounts[1].Address, accounts[2].Address, amount)
	case InstructionSetAuthority:
		if len(data) != 34 || len(accounts) < 2 {
			return reverts.ErrInvalidInput
		}
		newAuthority := ledger.BytesToAddress(data[2:])
		return p.SetAuthority(env, accounts[0].Address, newAuthority, AuthorityType(data[1]), accounts[1].Address)
	default:
		return reverts.ErrInvalidInput
	}
}
