// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"github.com/pkg/errors"

	"github.com/vechain/nftstake/builtin/reverts"
	"github.com/vechain/nftstake/ledger"
	"github.com/vechain/nftstake/log"
	"github.com/vechain/nftstake/state"
	"github.com/vechain/nftstake/xenv"
)

var logger = log.WithContext("pkg", "runtime")

// Program is a ledger program reachable by invocations.
type Program interface {
	Address() ledger.Address
	Process(env *xenv.Environment, accounts []xenv.AccountMeta, data []byte) error
}

// Output is the result of one invocation.
type Output struct {
	Events []*xenv.Event
	// Revert is set when the program aborted. No state change of the
	// invocation survives and Events is empty.
	Revert error
}

// Runtime is to support invocation execution.
type Runtime struct {
	state    *state.State
	blockCtx *xenv.BlockContext
	programs map[ledger.Address]Program
}

// New create a Runtime object.
func New(state *state.State, blockCtx *xenv.BlockContext, programs ...Program) *Runtime {
	m := make(map[ledger.Address]Program, len(programs))
	for _, p := range programs {
		m[p.Address()] = p
	}
	return &Runtime{
		state:    state,
		blockCtx: blockCtx,
		programs: m,
	}
}

func (rt *Runtime) State() *state.State              { return rt.state }
func (rt *Runtime) BlockContext() *xenv.BlockContext { return rt.blockCtx }

// Execute runs the invocation as one atomic unit. A program error reverts
// every change made by the invocation and is reported in Output.Revert; a
// returned error means the ledger itself failed and the state must be
// discarded.
func (rt *Runtime) Execute(inv *ResolvedInvocation) (*Output, error) {
	program, ok := rt.programs[inv.Program]
	if !ok {
		return nil, errors.Errorf("unknown program %v", inv.Program)
	}

	checkpoint := rt.state.NewCheckpoint()
	env := xenv.New(rt.state, rt.blockCtx, inv.Program, inv.Accounts)

	if err := program.Process(env, inv.Accounts, inv.Data); err != nil {
		rt.state.RevertTo(checkpoint)
		if !reverts.IsRevertErr(err) {
			return nil, err
		}
		logger.Debug("invocation reverted", "program", inv.Program, "error", err)
		return &Output{Revert: err}, nil
	}
	return &Output{Events: env.Events()}, nil
}
