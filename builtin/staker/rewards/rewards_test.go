// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/nftstake/builtin/reverts"
)

func TestRate(t *testing.T) {
	assert.Equal(t, uint64(1157), RatePerSecond)
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		elapsed uint64
		want    uint64
	}{
		{0, 0},
		{1, 1},
		{999, 1155},
		{86400, 99964},
		{86401, 99965},
		{90000, 104130},
		// product exceeds 64 bits, reward does not
		{math.MaxUint64 / 1157 * 10, 184467440737095510},
	}
	for _, tt := range tests {
		got, err := Calculate(tt.elapsed)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "elapsed %d", tt.elapsed)
	}
}

func TestCalculateOverflow(t *testing.T) {
	_, err := Calculate(math.MaxUint64)
	assert.Equal(t, reverts.ErrArithmeticOverflow, err)
}

func TestEligible(t *testing.T) {
	assert.False(t, Eligible(0))
	assert.False(t, Eligible(86400))
	assert.True(t, Eligible(86401))
}

func TestPayout(t *testing.T) {
	reward, ok, err := Payout(1_000_000+86400, 1_000_000)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, uint64(99964), reward)

	reward, ok, err = Payout(1_000_000+86401, 1_000_000)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(99965), reward)

	_, _, err = Payout(10, 11)
	assert.Equal(t, reverts.ErrArithmeticUnderflow, err)
}
