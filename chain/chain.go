// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package chain runs a solo ledger: one committed invocation per block, with
// a clock advanced on demand.
package chain

import (
	"context"
	"math"
	"sync"

	"github.com/pkg/errors"

	"github.com/vechain/nftstake/builtin/staker"
	"github.com/vechain/nftstake/builtin/staker/instruction"
	"github.com/vechain/nftstake/builtin/staker/platform"
	"github.com/vechain/nftstake/builtin/staker/position"
	"github.com/vechain/nftstake/builtin/system"
	"github.com/vechain/nftstake/builtin/token"
	"github.com/vechain/nftstake/genesis"
	"github.com/vechain/nftstake/kv"
	"github.com/vechain/nftstake/ledger"
	"github.com/vechain/nftstake/log"
	"github.com/vechain/nftstake/logdb"
	"github.com/vechain/nftstake/runtime"
	"github.com/vechain/nftstake/state"
	"github.com/vechain/nftstake/xenv"
)

var (
	logger = log.WithContext("pkg", "chain")

	errGenesisMismatch = errors.New("genesis mismatch")

	// ErrBadInvocation is returned for invocations rejected before execution.
	ErrBadInvocation = errors.New("bad invocation")
)

// Receipt is the outcome of one invocation.
type Receipt struct {
	ID ledger.Bytes32 `json:"id"`

	// BlockNumber and BlockTime are the context the invocation ran in. The
	// block is committed only if the invocation did not revert.
	BlockNumber uint32        `json:"blockNumber"`
	BlockTime   uint64        `json:"blockTime"`
	Reverted    bool          `json:"reverted"`
	Error       string        `json:"error,omitempty"`
	Events      []*xenv.Event `json:"events"`
}

// Ledger is the solo ledger. It's thread-safe.
type Ledger struct {
	db       kv.Store
	logDB    *logdb.LogDB
	genesis  *genesis.Genesis
	stater   *state.Stater
	token    *token.Program
	staker   *staker.Staker
	programs []runtime.Program
	derived  *derivedCache

	lock  sync.RWMutex
	clock Clock
	tick  chan struct{} // closed and replaced on every commit
}

// New opens the ledger in db, building the genesis into an empty db. logDB
// is optional.
func New(db kv.Store, logDB *logdb.LogDB, gene *genesis.Genesis) (*Ledger, error) {
	sys := system.New()
	tok := token.New(gene.TokenProgramID())
	stk := staker.New(gene.StakerProgramID(), sys, tok)

	l := &Ledger{
		db:       db,
		logDB:    logDB,
		genesis:  gene,
		stater:   state.NewStater(db),
		token:    tok,
		staker:   stk,
		programs: []runtime.Program{sys, tok, stk},
		derived:  newDerivedCache(stk.Address()),
		tick:     make(chan struct{}),
	}

	id, err := loadGenesisID(db)
	switch {
	case err == nil:
		if id != gene.ID() {
			return nil, errors.WithMessagef(errGenesisMismatch, "want %v, got %v", gene.ID(), id)
		}
		clock, err := loadClock(db)
		if err != nil {
			return nil, errors.Wrap(err, "load clock")
		}
		l.clock = *clock
	case db.IsNotFound(err):
		if err := l.build(); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Wrap(err, "load genesis id")
	}

	if logDB != nil {
		// events committed ahead of an interrupted kv write
		if err := logDB.Truncate(l.clock.Number + 1); err != nil {
			return nil, errors.Wrap(err, "truncate log db")
		}
	}
	metricBlockNumber().Set(int64(l.clock.Number))
	logger.Info("ledger opened", "genesis", gene.Name(), "number", l.clock.Number, "time", l.clock.Time)
	return l, nil
}

func (l *Ledger) build() error {
	batch := l.db.NewBatch()
	if err := l.genesis.Build(&batchGetPutter{l.db, batch}); err != nil {
		return errors.Wrap(err, "build genesis")
	}
	l.clock = Clock{Number: 0, Time: l.genesis.LaunchTime()}
	if err := saveClock(batch, &l.clock); err != nil {
		return err
	}
	if err := saveGenesisID(batch, l.genesis.ID()); err != nil {
		return err
	}
	return batch.Write()
}

// batchGetPutter reads from the store and writes to a pending batch.
type batchGetPutter struct {
	kv.Getter
	kv.Putter
}

// Genesis returns the genesis the ledger was built from.
func (l *Ledger) Genesis() *genesis.Genesis {
	return l.genesis
}

// StakerProgramID returns the address of the staking program.
func (l *Ledger) StakerProgramID() ledger.Address {
	return l.staker.Address()
}

// TokenProgramID returns the address of the token program.
func (l *Ledger) TokenProgramID() ledger.Address {
	return l.token.Address()
}

// Clock returns the current clock.
func (l *Ledger) Clock() Clock {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.clock
}

// Advance moves the ledger time forward.
func (l *Ledger) Advance(seconds uint64) (Clock, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.clock.Time > math.MaxUint64-seconds {
		return l.clock, errors.New("clock overflow")
	}
	next := Clock{Number: l.clock.Number, Time: l.clock.Time + seconds}
	if err := saveClock(l.db, &next); err != nil {
		return l.clock, errors.Wrap(err, "save clock")
	}
	l.clock = next
	logger.Debug("clock advanced", "time", next.Time, "seconds", seconds)
	return next, nil
}

// Invoke executes the invocation at the current clock. A reverted
// invocation is reported in the receipt and leaves the ledger untouched.
// A returned error means the invocation was malformed, badly signed or
// already committed, or that the ledger failed.
func (l *Ledger) Invoke(inv *runtime.Invocation) (*Receipt, error) {
	resolved, err := runtime.ResolveInvocation(inv)
	if err != nil {
		return nil, errors.WithMessage(ErrBadInvocation, err.Error())
	}
	op := l.opOf(resolved)
	if op == "" {
		return nil, errors.WithMessagef(ErrBadInvocation, "unknown program %v", inv.Program)
	}

	l.lock.Lock()
	defer l.lock.Unlock()

	seen, err := hasInvocation(l.db, resolved.ID)
	if err != nil {
		return nil, errors.Wrap(err, "lookup invocation")
	}
	if seen {
		return nil, errors.WithMessagef(ErrBadInvocation, "invocation %v already committed", resolved.ID)
	}

	blockCtx := &xenv.BlockContext{Number: l.clock.Number + 1, Time: l.clock.Time}
	st := l.stater.NewState()
	out, err := runtime.New(st, blockCtx, l.programs...).Execute(resolved)
	if err != nil {
		metricsHandleInvocation(op, "error", nil)
		return nil, errors.Wrap(err, "execute")
	}

	receipt := &Receipt{
		ID:          resolved.ID,
		BlockNumber: blockCtx.Number,
		BlockTime:   blockCtx.Time,
		Events:      out.Events,
	}
	if out.Revert != nil {
		receipt.Reverted = true
		receipt.Error = out.Revert.Error()
		metricsHandleInvocation(op, "reverted", nil)
		logger.Debug("invocation reverted", "op", op, "error", out.Revert)
		return receipt, nil
	}

	if err := l.commit(resolved.ID, st, blockCtx, out.Events); err != nil {
		metricsHandleInvocation(op, "error", nil)
		return nil, err
	}
	metricsHandleInvocation(op, "ok", out.Events)
	logger.Debug("invocation committed", "op", op, "number", blockCtx.Number, "events", len(out.Events))
	return receipt, nil
}

// commit writes events first, so that the log db may only run ahead of the
// kv store, which New repairs. The invocation id is kept so the same signed
// invocation never commits twice.
func (l *Ledger) commit(id ledger.Bytes32, st *state.State, blockCtx *xenv.BlockContext, events []*xenv.Event) error {
	if l.logDB != nil {
		if err := l.logDB.Prepare(blockCtx).Insert(events).Commit(); err != nil {
			return errors.Wrap(err, "commit events")
		}
	}

	batch := l.db.NewBatch()
	if err := st.Stage().Commit(batch); err != nil {
		return errors.Wrap(err, "stage state")
	}
	next := Clock{Number: blockCtx.Number, Time: blockCtx.Time}
	if err := saveClock(batch, &next); err != nil {
		return err
	}
	if err := saveInvocation(batch, id); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "write batch")
	}
	l.clock = next
	close(l.tick)
	l.tick = make(chan struct{})
	metricBlockNumber().Set(int64(next.Number))
	return nil
}

// Ticker returns a channel closed when the next block is committed.
func (l *Ledger) Ticker() <-chan struct{} {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.tick
}

func (l *Ledger) opOf(inv *runtime.ResolvedInvocation) string {
	switch inv.Program {
	case l.staker.Address():
		return instruction.Opcode(inv.Data[0]).String()
	case l.token.Address():
		return "token"
	case system.ProgramID:
		return "system"
	}
	return ""
}

// Account returns the ledger account at addr. Absent accounts are empty.
func (l *Ledger) Account(addr ledger.Address) (*state.Account, error) {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.stater.NewState().GetAccount(addr)
}

// TokenAccount returns the token account at addr.
func (l *Ledger) TokenAccount(addr ledger.Address) (*token.Account, error) {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.token.LoadAccount(l.stater.NewState(), addr)
}

// Registry returns the platform registry at addr, or nil if there is none.
func (l *Ledger) Registry(addr ledger.Address) (*platform.Registry, error) {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return platform.New(l.stater.NewState(), l.staker.Address()).Get(addr)
}

// Position derives the position of owner's asset and returns it, or nil if
// it was never created.
func (l *Ledger) Position(owner, asset ledger.Address) (ledger.Address, *position.Position, error) {
	addr, _, err := l.derived.Position(owner, asset)
	if err != nil {
		return ledger.Address{}, nil, err
	}
	l.lock.RLock()
	defer l.lock.RUnlock()
	pos, err := position.New(l.stater.NewState(), l.staker.Address()).Get(addr)
	if err != nil {
		return ledger.Address{}, nil, err
	}
	return addr, pos, nil
}

// Escrow derives the escrow authority of a registry.
func (l *Ledger) Escrow(registry ledger.Address) (*platform.Escrow, error) {
	return l.derived.Escrow(registry)
}

// FilterEvents queries committed events.
func (l *Ledger) FilterEvents(ctx context.Context, filter *logdb.EventFilter) ([]*logdb.Event, error) {
	if l.logDB == nil {
		return nil, errors.New("event log disabled")
	}
	return l.logDB.FilterEvents(ctx, filter)
}
