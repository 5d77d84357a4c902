// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"github.com/holiman/uint256"

	"github.com/vechain/nftstake/builtin/reverts"
)

const (
	// RewardPerInterval is paid for every full interval staked.
	RewardPerInterval uint64 = 10
	// IntervalSeconds is the reward interval. A position must be staked
	// strictly longer than one interval to be paid.
	IntervalSeconds uint64 = 86400

	// RateScale and RewardDivisor are the fixed point truncation points:
	// rate = floor(RewardPerInterval * RateScale / IntervalSeconds) and
	// reward = floor(elapsed * rate / RewardDivisor).
	RateScale     uint64 = 10_000_000
	RewardDivisor uint64 = 1000
)

// RatePerSecond is the truncated per second reward rate, 1157.
const RatePerSecond = RewardPerInterval * RateScale / IntervalSeconds

// Elapsed returns the seconds between the last stake and now.
func Elapsed(now, lastStake uint64) (uint64, error) {
	if now < lastStake {
		return 0, reverts.ErrArithmeticUnderflow
	}
	return now - lastStake, nil
}

// Eligible reports whether a position staked for elapsed seconds is paid.
func Eligible(elapsed uint64) bool {
	return elapsed > IntervalSeconds
}

// Calculate returns floor(elapsed * RatePerSecond / RewardDivisor). The
// product is computed in 256 bits; a reward that does not fit in 64 bits
// fails with ErrArithmeticOverflow.
func Calculate(elapsed uint64) (uint64, error) {
	reward := new(uint256.Int).Mul(uint256.NewInt(elapsed), uint256.NewInt(RatePerSecond))
	reward.Div(reward, uint256.NewInt(RewardDivisor))
	if !reward.IsUint64() {
		return 0, reverts.ErrArithmeticOverflow
	}
	return reward.Uint64(), nil
}

// Payout returns the reward owed for a position last staked at lastStake,
// and whether it is owed at all.
func Payout(now, lastStake uint64) (reward uint64, eligible bool, err error) {
	elapsed, err := Elapsed(now, lastStake)
	if err != nil {
		return 0, false, err
	}
	reward, err = Calculate(elapsed)
	if err != nil {
		return 0, false, err
	}
	return reward, Eligible(elapsed), nil
}
