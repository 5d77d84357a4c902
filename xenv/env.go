// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"github.com/vechain/nftstake/ledger"
	"github.com/vechain/nftstake/state"
)

// BlockContext block context.
type BlockContext struct {
	Number uint32
	Time   uint64 // ledger time, unix seconds
}

// AccountMeta is an account reference supplied to an invocation.
type AccountMeta struct {
	Address    ledger.Address `json:"address"`
	IsSigner   bool           `json:"isSigner"`
	IsWritable bool           `json:"isWritable"`
}

// Event is emitted by a program during an invocation. Events of a reverted
// invocation are dropped.
type Event struct {
	Program ledger.Address `json:"program"`
	Name    string         `json:"name"`
	Subject ledger.Address `json:"subject"`
	Object  ledger.Address `json:"object"`
	Amount  uint64         `json:"amount"`
}

// Environment an env to execute a program invocation.
type Environment struct {
	state     *state.State
	blockCtx  *BlockContext
	programID ledger.Address
	signers   map[ledger.Address]bool
	events    []*Event
}

// New create a new env.
func New(
	state *state.State,
	blockCtx *BlockContext,
	programID ledger.Address,
	accounts []AccountMeta,
) *Environment {
	signers := make(map[ledger.Address]bool)
	for _, acc := range accounts {
		if acc.IsSigner {
			signers[acc.Address] = true
		}
	}
	return &Environment{
		state:     state,
		blockCtx:  blockCtx,
		programID: programID,
		signers:   signers,
	}
}

func (env *Environment) State() *state.State          { return env.state }
func (env *Environment) BlockContext() *BlockContext { return env.blockCtx }
func (env *Environment) ProgramID() ledger.Address    { return env.programID }
func (env *Environment) Events() []*Event            { return env.events }

// IsSigner returns whether the address signed the invocation.
func (env *Environment) IsSigner(addr ledger.Address) bool {
	return env.signers[addr]
}

// Authorized returns whether the address signed the invocation, or is the
// address derived by the invoking program from one of the seed sets.
// Each seed set must include its bump seed.
func (env *Environment) Authorized(addr ledger.Address, signerSeeds ...[][]byte) bool {
	if env.signers[addr] {
		return true
	}
	for _, seeds := range signerSeeds {
		derived, err := ledger.CreateProgramAddress(seeds, env.programID)
		if err == nil && derived == addr {
			return true
		}
	}
	return false
}

// Log records an event emitted by the invoking program.
func (env *Environment) Log(ev *Event) {
	ev.Program = env.programID
	env.events = append(env.events, ev)
}
