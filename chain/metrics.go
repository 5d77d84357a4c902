// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chain

import (
	"github.com/vechain/nftstake/builtin/staker"
	"github.com/vechain/nftstake/metrics"
	"github.com/vechain/nftstake/xenv"
)

var (
	metricInvocations = metrics.LazyLoadCounterVec("staker_invocations_count", []string{"op", "status"})
	metricRewardPaid  = metrics.LazyLoadCounter("staker_reward_paid_total")
	metricTotalStaked = metrics.LazyLoadGauge("staker_total_staked")
	metricBlockNumber = metrics.LazyLoadGauge("ledger_block_number")
)

func metricsHandleInvocation(op, status string, events []*xenv.Event) {
	metricInvocations().AddWithLabel(1, map[string]string{"op": op, "status": status})
	for _, ev := range events {
		switch ev.Name {
		case staker.EventStaked:
			metricTotalStaked().Add(1)
		case staker.EventUnstaked:
			metricTotalStaked().Add(-1)
		case staker.EventRewardPaid:
			metricRewardPaid().Add(clampInt64(ev.Amount))
		}
	}
}

func clampInt64(v uint64) int64 {
	if v > 1<<63-1 {
		return 1<<63 - 1
	}
	return int64(v)
}
