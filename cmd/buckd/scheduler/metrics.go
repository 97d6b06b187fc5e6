// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package scheduler

import "github.com/buck-labs/buck-v1-sub000/metrics"

var metricsDistributionTriggers = metrics.LazyLoadCounter("scheduler_distribution_triggers_count")
