// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package system

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/vechain/nftstake/builtin/reverts"
	"github.com/vechain/nftstake/ledger"
	"github.com/vechain/nftstake/log"
	"github.com/vechain/nftstake/state"
	"github.com/vechain/nftstake/xenv"
)

var logger = log.WithContext("pkg", "system")

// ProgramID is the address of the account-creation service. Wallets are
// owned by it.
var ProgramID = ledger.Address{}

const (
	// rent parameters
	AccountStorageOverhead = 128
	LamportsPerByteYear    = 3480
	ExemptionThreshold     = 2

	MaxDataSize = 10 * 1024 * 1024
)

// MinimumBalance returns the lamports an account of the given data size
// must hold to be exempt from rent.
func MinimumBalance(size uint64) uint64 {
	return (AccountStorageOverhead + size) * LamportsPerByteYear * ExemptionThreshold
}

// Program is the account-creation service.
type Program struct {
	id ledger.Address
}

func New() *Program {
	return &Program{id: ProgramID}
}

func (p *Program) Address() ledger.Address {
	return p.id
}

// CreateAccount funds a new account at address with the rent minimum for
// size bytes from payer, allocates zeroed data and assigns it to owner.
// Both payer and address must be authorized; address may be authorized by
// one of the signer seed sets of the invoking program.
func (p *Program) CreateAccount(
	env *xenv.Environment,
	payer ledger.Address,
	address ledger.Address,
	size uint64,
	owner ledger.Address,
	signerSeeds ...[][]byte,
) error {
	if size > MaxDataSize {
		return reverts.ErrInvalidInput
	}
	if !env.Authorized(payer) {
		return errors.WithMessagef(reverts.ErrUnauthorized, "payer %v", payer)
	}
	if !env.Authorized(address, signerSeeds...) {
		return errors.WithMessagef(reverts.ErrUnauthorized, "new account %v", address)
	}

	st := env.State()
	acc, err := st.GetAccount(address)
	if err != nil {
		return err
	}
	if !acc.IsEmpty() {
		return errors.WithMessagef(reverts.ErrAlreadyExists, "account %v", address)
	}

	rent := MinimumBalance(size)
	from, err := st.GetAccount(payer)
	if err != nil {
		return err
	}
	if from.Lamports < rent {
		return errors.WithMessagef(reverts.ErrInsufficientFunds, "need %d lamports, have %d", rent, from.Lamports)
	}
	from.Lamports -= rent
	st.SetAccount(payer, from)
	st.SetAccount(address, &state.Account{
		Owner:    owner,
		Lamports: rent,
		Data:     make([]byte, size),
	})

	logger.Debug("account created", "address", address, "owner", owner, "size", size, "rent", rent)
	return nil
}

// Transfer moves lamports between wallets owned by this service.
func (p *Program) Transfer(env *xenv.Environment, from, to ledger.Address, lamports uint64) error {
	if !env.Authorized(from) {
		return errors.WithMessagef(reverts.ErrUnauthorized, "source %v", from)
	}
	st := env.State()
	src, err := st.GetAccount(from)
	if err != nil {
		return err
	}
	if src.Owner != p.id || len(src.Data) != 0 {
		return errors.WithMessagef(reverts.ErrUnauthorized, "source %v is not a wallet", from)
	}
	if src.Lamports < lamports {
		return errors.WithMessagef(reverts.ErrInsufficientFunds, "need %d lamports, have %d", lamports, src.Lamports)
	}
	if from == to {
		return nil
	}
	dst, err := st.GetAccount(to)
	if err != nil {
		return err
	}
	if dst.Lamports+lamports < dst.Lamports {
		return reverts.ErrArithmeticOverflow
	}
	src.Lamports -= lamports
	dst.Lamports += lamports
	st.SetAccount(from, src)
	st.SetAccount(to, dst)
	return nil
}

// InstructionTransfer is the only instruction accepted from outside callers:
// u32 LE index followed by u64 LE lamports.
const InstructionTransfer uint32 = 2

// EncodeTransfer encodes a Transfer instruction.
func EncodeTransfer(lamports uint64) []byte {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data, InstructionTransfer)
	binary.LittleEndian.PutUint64(data[4:], lamports)
	return data
}

// Process executes an instruction addressed to the service.
// Accounts: [source(signer), destination].
func (p *Program) Process(env *xenv.Environment, accounts []xenv.AccountMeta, data []byte) error {
	if len(data) != 12 || binary.LittleEndian.Uint32(data) != InstructionTransfer || len(accounts) < 2 {
		return reverts.ErrInvalidInput
	}
	return p.Transfer(env, accounts[0].Address, accounts[1].Address, binary.LittleEndian.Uint64(data[4:]))
}
