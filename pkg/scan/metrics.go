/*
	Copyright 2023 Google Inc.

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

		https://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package scan

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var blocksScanned = promauto.NewCounter(prometheus.CounterOpts{
	Name: "lpmatch_scan_blocks_total",
	Help: "Blocks whose matches have been collected",
})

var blockCacheHits = promauto.NewCounter(prometheus.CounterOpts{
	Name: "lpmatch_scan_block_cache_hits_total",
	Help: "Blocks answered from the block cache instead of a fresh build",
})

var positionsMatched = promauto.NewCounter(prometheus.CounterOpts{
	Name: "lpmatch_scan_positions_matched_total",
	Help: "Positions with an earlier occurrence",
})

var blockBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "lpmatch_scan_block_build_seconds",
	Help:    "Time to build and query one block",
	Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
})

var arenaNodes = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "lpmatch_scan_arena_nodes",
	Help: "Tree nodes held for reuse by the most recently built engine",
})
