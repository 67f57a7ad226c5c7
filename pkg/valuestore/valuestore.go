// Package valuestore implements the tiered, per-source inverted index
// described by the ValueStore component: a map of severity to an
// append-only list of index blocks, routing puts to the mutable tail block
// and servicing searches and cluster refreshes across whichever blocks a
// severity filter and offset lock leave visible.
package valuestore

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/atomic"

	"github.com/grafana/nexlog/pkg/drain"
	"github.com/grafana/nexlog/pkg/logrecord"
	"github.com/grafana/nexlog/pkg/mergeiter"
)

var (
	metricIndexedLines = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "nexlog",
		Name:      "indexed_lines",
		Help:      "Process-wide count of records currently held across all ValueStores.",
	})
	metricBlocksTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "nexlog",
		Name:      "index_blocks",
		Help:      "Process-wide count of index blocks currently allocated across all ValueStores.",
	})
)

// ValueStore owns one source's (one pod's, one topic-group's) records,
// grouped by severity into append-only block lists.
type ValueStore struct {
	sourceID string
	cfg      Config
	drainCfg drain.Config

	blocks map[logrecord.Level][]*Block
	size   atomic.Uint64
}

// New returns an empty ValueStore for sourceID.
func New(cfg Config, drainCfg drain.Config, sourceID string) *ValueStore {
	return &ValueStore{
		sourceID: sourceID,
		cfg:      cfg,
		drainCfg: drainCfg,
		blocks:   make(map[logrecord.Level][]*Block),
	}
}

// SourceID returns the source this store belongs to.
func (vs *ValueStore) SourceID() string { return vs.sourceID }

// Size is the number of records currently stored.
func (vs *ValueStore) Size() uint64 { return vs.size.Load() }

// Put inserts record into the (possibly newly created) tail block for its
// level, rolling the tail over first if it is already full.
func (vs *ValueStore) Put(record *logrecord.Record) {
	level := record.Level
	tail := vs.tailBlock(level)

	if tail.Full(vs.cfg.BlockCapacity) {
		tail.Finalize()
		tail = newBlock(vs.drainCfg, vs.sourceID)
		vs.blocks[level] = append(vs.blocks[level], tail)
		metricBlocksTotal.Inc()
	}

	tail.insert(record)
	vs.size.Inc()
	metricIndexedLines.Inc()
}

func (vs *ValueStore) tailBlock(level logrecord.Level) *Block {
	list := vs.blocks[level]
	if len(list) == 0 {
		b := newBlock(vs.drainCfg, vs.sourceID)
		vs.blocks[level] = append(vs.blocks[level], b)
		metricBlocksTotal.Inc()
		return b
	}
	return list[len(list)-1]
}

// Close subtracts this store's records and blocks from the process-wide
// indexed_lines and index_blocks gauges, for use on ClearSource, and
// returns the number of records removed.
func (vs *ValueStore) Close() uint64 {
	n := vs.size.Load()
	metricIndexedLines.Sub(float64(n))
	for _, list := range vs.blocks {
		metricBlocksTotal.Sub(float64(len(list)))
	}
	return n
}

// Search returns a stream of this store's records satisfying pos/neg and
// seq <= offsetLock, restricted to levels, newest-first. Per spec.md's
// §9 Open Question decision, a block is skipped whenever its maxSeq
// exceeds offsetLock (the stricter of the two documented filters), not
// merely when it contains no visible record.
func (vs *ValueStore) Search(pos, neg []string, offsetLock uint64, levels []logrecord.Level) mergeiter.Stream[*logrecord.Record] {
	streams := make([]mergeiter.Stream[*logrecord.Record], 0, len(levels))
	for _, level := range levels {
		list := vs.blocks[level]
		var levelResults []*logrecord.Record
		for i := len(list) - 1; i >= 0; i-- {
			block := list[i]
			if block.maxSeq > offsetLock {
				continue
			}
			levelResults = append(levelResults, block.search(pos, neg, offsetLock)...)
		}
		if len(levelResults) > 0 {
			streams = append(streams, mergeiter.NewSliceStream(levelResults))
		}
	}
	if len(streams) == 0 {
		return mergeiter.NewSliceStream[*logrecord.Record](nil)
	}
	return mergeiter.Merge(streams, RecordLess)
}

// RecordLess orders records descending by (timestamp, seq), the ordering
// every query result must satisfy per the spec's testable properties. It is
// exported so callers merging streams from multiple ValueStores (the
// scheduler's cross-source fan-out) order them identically.
func RecordLess(a, b *logrecord.Record) bool {
	if a.Timestamp != b.Timestamp {
		return a.Timestamp > b.Timestamp
	}
	return a.Seq > b.Seq
}

// ClusterEntry is one aggregated (level, template) cluster for this store.
type ClusterEntry struct {
	Level    logrecord.Level
	Template string
	Count    uint64
}

// LogClusters flattens every enabled severity's drain trees across every
// block (finalized and tail alike), grouping by (level, template) and
// summing counts, per spec.md §4.4.
func (vs *ValueStore) LogClusters(levels []logrecord.Level) []ClusterEntry {
	type key struct {
		level    logrecord.Level
		template string
	}
	totals := make(map[key]uint64)

	for _, level := range levels {
		for _, block := range vs.blocks[level] {
			for _, snap := range block.drainTree.LogClusters() {
				totals[key{level: snap.Level, template: snap.Template}] += snap.Count
			}
		}
	}

	out := make([]ClusterEntry, 0, len(totals))
	for k, count := range totals {
		out = append(out, ClusterEntry{Level: k.level, Template: k.template, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Template < out[j].Template
	})
	return out
}
