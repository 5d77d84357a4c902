// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/pkg/errors"

	"github.com/vechain/nftstake/builtin/reverts"
	"github.com/vechain/nftstake/builtin/staker/instruction"
	"github.com/vechain/nftstake/builtin/staker/platform"
	"github.com/vechain/nftstake/builtin/staker/position"
	"github.com/vechain/nftstake/builtin/staker/rewards"
	"github.com/vechain/nftstake/builtin/token"
	"github.com/vechain/nftstake/ledger"
	"github.com/vechain/nftstake/log"
	"github.com/vechain/nftstake/state"
	"github.com/vechain/nftstake/xenv"
)

var (
	logger = log.WithContext("pkg", "staker")

	// DefaultProgramID is the address of the staking program unless genesis
	// names another one.
	DefaultProgramID = ledger.Address(ledger.Blake2b([]byte("nftstake/staker")))
)

func SetLogger(l log.Logger) {
	logger = l
}

// Event names. Subject is the user (the owner for Initialized) and Object
// the asset (the registry for Initialized).
const (
	EventInitialized = "Initialized" // Amount: reward seed
	EventStaked      = "Staked"      // Amount: registry total after the stake
	EventUnstaked    = "Unstaked"    // Amount: registry total after the unstake
	EventRewardPaid  = "RewardPaid"  // Amount: reward
)

// AccountCreator creates and funds program owned accounts.
type AccountCreator interface {
	Address() ledger.Address
	CreateAccount(
		env *xenv.Environment,
		payer ledger.Address,
		address ledger.Address,
		size uint64,
		owner ledger.Address,
		signerSeeds ...[][]byte,
	) error
}

// TokenService moves token balances and custody.
type TokenService interface {
	Address() ledger.Address
	LoadAccount(st *state.State, addr ledger.Address) (*token.Account, error)
	Transfer(
		env *xenv.Environment,
		source ledger.Address,
		destination ledger.Address,
		authority ledger.Address,
		amount uint64,
		signerSeeds ...[][]byte,
	) error
	SetAuthority(
		env *xenv.Environment,
		account ledger.Address,
		newAuthority ledger.Address,
		kind token.AuthorityType,
		currentAuthority ledger.Address,
		signerSeeds ...[][]byte,
	) error
}

// Staker is the NFT staking program.
type Staker struct {
	id      ledger.Address
	creator AccountCreator
	tokens  TokenService
}

// New create a new instance.
func New(id ledger.Address, creator AccountCreator, tokens TokenService) *Staker {
	return &Staker{
		id:      id,
		creator: creator,
		tokens:  tokens,
	}
}

func (s *Staker) Address() ledger.Address {
	return s.id
}

// Process decodes an instruction and runs the matching operation. Any
// returned error must abort the invocation.
func (s *Staker) Process(env *xenv.Environment, accounts []xenv.AccountMeta, data []byte) error {
	ins, err := instruction.Decode(data)
	if err != nil {
		return err
	}
	switch ins.Op {
	case instruction.Initialize:
		accs, err := ParseInitializeAccounts(accounts)
		if err != nil {
			return err
		}
		return s.Initialize(env, accs, ins.Amount)
	case instruction.Stake:
		accs, err := ParseStakeAccounts(accounts)
		if err != nil {
			return err
		}
		return s.Stake(env, accs)
	case instruction.Unstake:
		accs, err := ParseUnstakeAccounts(accounts)
		if err != nil {
			return err
		}
		return s.Unstake(env, accs)
	case instruction.Harvest:
		accs, err := ParseHarvestAccounts(accounts)
		if err != nil {
			return err
		}
		return s.Harvest(env, accs)
	default:
		return reverts.ErrInvalidInput
	}
}

//
// Checks - every caller supplied address is re-derived before it is trusted
//

func (s *Staker) checkServices(creator *ledger.Address, tokens *ledger.Address) error {
	if creator != nil && *creator != s.creator.Address() {
		return errors.WithMessagef(reverts.ErrAddressMismatch, "account-creation service %v", *creator)
	}
	if tokens != nil && *tokens != s.tokens.Address() {
		return errors.WithMessagef(reverts.ErrAddressMismatch, "token service %v", *tokens)
	}
	return nil
}

func (s *Staker) checkEscrow(registry, supplied ledger.Address) (*platform.Escrow, error) {
	escrow, err := platform.DeriveEscrow(registry, s.id)
	if err != nil {
		return nil, err
	}
	if escrow.Address != supplied {
		return nil, errors.WithMessagef(reverts.ErrAddressMismatch, "escrow authority %v", supplied)
	}
	return escrow, nil
}

func (s *Staker) checkPosition(user, asset, supplied ledger.Address) (uint8, error) {
	addr, bump, err := position.Derive(user, asset, s.id)
	if err != nil {
		return 0, err
	}
	if addr != supplied {
		return 0, errors.WithMessagef(reverts.ErrAddressMismatch, "position %v", supplied)
	}
	return bump, nil
}

// checkCustody ensures the token account holds the named asset.
func (s *Staker) checkCustody(env *xenv.Environment, custody, asset ledger.Address) error {
	acc, err := s.tokens.LoadAccount(env.State(), custody)
	if err != nil {
		return err
	}
	if acc.Mint != asset || acc.Amount == 0 {
		return errors.WithMessagef(reverts.ErrAddressMismatch, "custody %v does not hold %v", custody, asset)
	}
	return nil
}

func checkSigner(env *xenv.Environment, user ledger.Address) error {
	if !env.IsSigner(user) {
		return errors.WithMessagef(reverts.ErrUnauthorized, "user %v", user)
	}
	return nil
}

//
// Operations
//

// Initialize creates the registry and seeds the reward pool held by the
// escrow authority with amount from the admin reward source.
func (s *Staker) Initialize(env *xenv.Environment, accs *InitializeAccounts, amount uint64) error {
	logger.Debug("initializing platform", "registry", accs.Registry, "owner", accs.Owner, "amount", amount)

	if err := s.initialize(env, accs, amount); err != nil {
		logger.Info("initialize failed", "registry", accs.Registry, "error", err)
		return err
	}

	env.Log(&xenv.Event{
		Name:    EventInitialized,
		Subject: accs.Owner,
		Object:  accs.Registry,
		Amount:  amount,
	})
	logger.Info("initialized platform", "registry", accs.Registry)
	return nil
}

func (s *Staker) initialize(env *xenv.Environment, accs *InitializeAccounts, amount uint64) error {
	if err := s.checkServices(&accs.AccountCreationService, &accs.TokenService); err != nil {
		return err
	}
	if _, err := s.checkEscrow(accs.Registry, accs.EscrowAuthority); err != nil {
		return err
	}

	registries := platform.New(env.State(), s.id)
	reg, err := registries.Get(accs.Registry)
	if err != nil {
		return err
	}
	if reg != nil && reg.Initialized {
		return reverts.ErrAlreadyInitialized
	}
	if reg == nil {
		if err := s.creator.CreateAccount(env, accs.Owner, accs.Registry, platform.RecordLen, s.id); err != nil {
			return err
		}
	}

	reg = &platform.Registry{
		Initialized: true,
		Owner:       accs.Owner,
	}
	if err := s.tokens.Transfer(env, accs.AdminRewardSource, accs.EscrowRewardDestination, accs.Owner, amount); err != nil {
		return err
	}
	return registries.Set(accs.Registry, reg)
}

// Stake hands custody of the asset to the escrow authority and starts the
// reward timer of the (user, asset) position, creating it on first use.
func (s *Staker) Stake(env *xenv.Environment, accs *StakeAccounts) error {
	logger.Debug("staking", "user", accs.User, "asset", accs.Asset, "registry", accs.Registry)

	total, err := s.stake(env, accs)
	if err != nil {
		logger.Info("stake failed", "user", accs.User, "asset", accs.Asset, "error", err)
		return err
	}

	env.Log(&xenv.Event{
		Name:    EventStaked,
		Subject: accs.User,
		Object:  accs.Asset,
		Amount:  total,
	})
	logger.Info("staked", "user", accs.User, "asset", accs.Asset, "total", total)
	return nil
}

func (s *Staker) stake(env *xenv.Environment, accs *StakeAccounts) (uint64, error) {
	if err := checkSigner(env, accs.User); err != nil {
		return 0, err
	}
	if err := s.checkServices(&accs.AccountCreationService, &accs.TokenService); err != nil {
		return 0, err
	}
	bump, err := s.checkPosition(accs.User, accs.Asset, accs.Position)
	if err != nil {
		return 0, err
	}
	if err := s.checkCustody(env, accs.AssetCustody, accs.Asset); err != nil {
		return 0, err
	}

	posService := position.New(env.State(), s.id)
	pos, err := posService.Get(accs.Position)
	if err != nil {
		return 0, err
	}
	if pos == nil {
		signer := append(position.Seeds(accs.User, accs.Asset), []byte{bump})
		if err := s.creator.CreateAccount(env, accs.User, accs.Position, position.RecordLen, s.id, signer); err != nil {
			return 0, err
		}
		pos = &position.Position{
			Initialized: true,
			Owner:       accs.User,
		}
	}

	escrow, err := s.checkEscrow(accs.Registry, accs.EscrowAuthority)
	if err != nil {
		return 0, err
	}
	if err := s.tokens.SetAuthority(env, accs.AssetCustody, escrow.Address, token.AccountOwner, accs.User); err != nil {
		return 0, err
	}

	if err := pos.AddStaked(); err != nil {
		return 0, err
	}
	pos.LastStakeTimestamp = env.BlockContext().Time

	registries := platform.New(env.State(), s.id)
	reg, err := registries.Load(accs.Registry)
	if err != nil {
		return 0, err
	}
	if err := reg.AddStaked(); err != nil {
		return 0, err
	}

	if err := posService.Set(accs.Position, pos); err != nil {
		return 0, err
	}
	if err := registries.Set(accs.Registry, reg); err != nil {
		return 0, err
	}
	return reg.TotalStaked, nil
}

// Unstake returns custody of the asset to the user and pays the accrued
// reward when the position has been staked longer than one interval.
func (s *Staker) Unstake(env *xenv.Environment, accs *UnstakeAccounts) error {
	logger.Debug("unstaking", "user", accs.User, "asset", accs.Asset, "registry", accs.Registry)

	total, err := s.unstake(env, accs)
	if err != nil {
		logger.Info("unstake failed", "user", accs.User, "asset", accs.Asset, "error", err)
		return err
	}

	env.Log(&xenv.Event{
		Name:    EventUnstaked,
		Subject: accs.User,
		Object:  accs.Asset,
		Amount:  total,
	})
	logger.Info("unstaked", "user", accs.User, "asset", accs.Asset, "total", total)
	return nil
}

func (s *Staker) unstake(env *xenv.Environment, accs *UnstakeAccounts) (uint64, error) {
	if err := checkSigner(env, accs.User); err != nil {
		return 0, err
	}
	if err := s.checkServices(&accs.AccountCreationService, &accs.TokenService); err != nil {
		return 0, err
	}
	if _, err := s.checkPosition(accs.User, accs.Asset, accs.Position); err != nil {
		return 0, err
	}
	escrow, err := s.checkEscrow(accs.Registry, accs.EscrowAuthority)
	if err != nil {
		return 0, err
	}
	if err := s.checkCustody(env, accs.EscrowCustody, accs.Asset); err != nil {
		return 0, err
	}

	positions := position.New(env.State(), s.id)
	pos, err := positions.Load(accs.Position)
	if err != nil {
		return 0, err
	}
	if err := pos.SubStaked(); err != nil {
		return 0, errors.WithMessagef(err, "position %v holds no staked asset", accs.Position)
	}
	// the payout below reloads the position
	if err := positions.Set(accs.Position, pos); err != nil {
		return 0, err
	}

	if err := s.tokens.SetAuthority(
		env,
		accs.EscrowCustody,
		accs.User,
		token.AccountOwner,
		escrow.Address,
		escrow.SignerSeeds(accs.Registry),
	); err != nil {
		return 0, err
	}

	elapsed, err := rewards.Elapsed(env.BlockContext().Time, pos.LastStakeTimestamp)
	if err != nil {
		return 0, err
	}

	registries := platform.New(env.State(), s.id)
	reg, err := registries.Load(accs.Registry)
	if err != nil {
		return 0, err
	}
	if err := reg.SubStaked(); err != nil {
		return 0, err
	}

	if rewards.Eligible(elapsed) {
		asset := accs.Asset
		if err := s.harvest(env, &HarvestAccounts{
			User:                  accs.User,
			Position:              accs.Position,
			Registry:              accs.Registry,
			UserRewardDestination: accs.UserRewardDestination,
			EscrowRewardSource:    accs.EscrowRewardSource,
			EscrowAuthority:       accs.EscrowAuthority,
			TokenService:          accs.TokenService,
			Asset:                 &asset,
		}); err != nil {
			return 0, err
		}
	}

	if err := registries.Set(accs.Registry, reg); err != nil {
		return 0, err
	}
	return reg.TotalStaked, nil
}

// Harvest pays the accrued reward of a position without unstaking. The
// reward timer is left untouched.
func (s *Staker) Harvest(env *xenv.Environment, accs *HarvestAccounts) error {
	logger.Debug("harvesting", "user", accs.User, "position", accs.Position)

	if err := checkSigner(env, accs.User); err != nil {
		logger.Info("harvest failed", "user", accs.User, "error", err)
		return err
	}
	if err := s.harvest(env, accs); err != nil {
		logger.Info("harvest failed", "user", accs.User, "error", err)
		return err
	}
	return nil
}

func (s *Staker) harvest(env *xenv.Environment, accs *HarvestAccounts) error {
	if err := s.checkServices(nil, &accs.TokenService); err != nil {
		return err
	}
	if accs.Asset != nil {
		if _, err := s.checkPosition(accs.User, *accs.Asset, accs.Position); err != nil {
			return err
		}
	}
	escrow, err := s.checkEscrow(accs.Registry, accs.EscrowAuthority)
	if err != nil {
		return err
	}

	positions := position.New(env.State(), s.id)
	pos, err := positions.Load(accs.Position)
	if err != nil {
		return err
	}
	if pos.Owner != accs.User {
		return errors.WithMessagef(reverts.ErrAddressMismatch, "position %v is not owned by %v", accs.Position, accs.User)
	}

	reward, eligible, err := rewards.Payout(env.BlockContext().Time, pos.LastStakeTimestamp)
	if err != nil {
		return err
	}
	if eligible {
		if err := s.tokens.Transfer(
			env,
			accs.EscrowRewardSource,
			accs.UserRewardDestination,
			escrow.Address,
			reward,
			escrow.SignerSeeds(accs.Registry),
		); err != nil {
			return err
		}
		env.Log(&xenv.Event{
			Name:    EventRewardPaid,
			Subject: accs.User,
			Object:  assetOf(accs),
			Amount:  reward,
		})
		logger.Info("reward paid", "user", accs.User, "reward", reward)
	}
	return positions.Set(accs.Position, pos)
}

func assetOf(accs *HarvestAccounts) ledger.Address {
	if accs.Asset != nil {
		return *accs.Asset
	}
	return ledger.Address{}
}
