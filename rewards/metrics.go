// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import "github.com/buck-labs/buck-v1-sub000/metrics"

var (
	metricsDistributionCount = metrics.LazyLoadCounter("rewards_distribution_count")
	metricsClaimCount        = metrics.LazyLoadCounter("rewards_claim_count")
	metricsExclusionCount    = metrics.LazyLoadCounter("rewards_exclusion_count")
	metricsHookCount         = metrics.LazyLoadCounterVec("rewards_hook_count", []string{"kind"})
	metricsRevertCount       = metrics.LazyLoadCounterVec("rewards_revert_count", []string{"code"})
)
