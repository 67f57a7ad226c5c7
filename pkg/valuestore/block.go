package valuestore

import (
	"strings"

	"github.com/grafana/nexlog/pkg/drain"
	"github.com/grafana/nexlog/pkg/logrecord"
	"github.com/grafana/nexlog/pkg/tokenindex"
)

// Block pairs a token posting list with a drain-tree pattern sink, the
// unit that rolls over on fill and is finalized into a read-optimized,
// immutable form. Grounded on friggdb/block_meta.go's blockMeta
// (min/max id tracking, objectAdded) generalized from trace IDs to
// sequence numbers.
type Block struct {
	tokenIndex *tokenindex.Index[*logrecord.Record]
	drainTree  *drain.Tree

	minSeq, maxSeq uint64
	hasRecords     bool
	finalized      bool
}

func newBlock(drainCfg drain.Config, sourceID string) *Block {
	return &Block{
		tokenIndex: tokenindex.New[*logrecord.Record](),
		drainTree:  drain.New(drainCfg, sourceID),
	}
}

// Size is the number of records held by this block's token index.
func (b *Block) Size() int {
	return b.tokenIndex.Size()
}

// Full reports whether the block has reached capacity and must be rolled
// over before another insert.
func (b *Block) Full(capacity int) bool {
	return b.tokenIndex.Size() >= capacity
}

// Finalized reports whether this block is read-only.
func (b *Block) Finalized() bool {
	return b.finalized
}

// Finalize seals the block: converts the token index to its higher rank
// (read-only, compaction-eligible) representation and seals the drain
// tree. Idempotent.
func (b *Block) Finalize() {
	if b.finalized {
		return
	}
	b.tokenIndex.ConvertToHigherRank()
	b.drainTree.Final()
	b.finalized = true
}

// insert appends record to the block's token index (keyed on the
// canonical searchable string) and, for LogRecord-variant records, feeds
// the drain tree. min/maxSeq are updated per the §3 invariant.
func (b *Block) insert(record *logrecord.Record) {
	if record.Kind == logrecord.KindLog {
		b.drainTree.Add(record)
	}
	b.tokenIndex.Add(record, record.Canonical())

	if !b.hasRecords {
		b.minSeq = record.Seq
		b.hasRecords = true
	}
	b.maxSeq = record.Seq
}

// search returns every record in this block with seq <= offsetLock that
// satisfies pos/neg, newest-first (insertion order reversed).
func (b *Block) search(pos, neg []string, offsetLock uint64) []*logrecord.Record {
	// A non-empty pos narrows candidates to records whose token index
	// carries at least one word of the pos entries (a phrase contributes
	// each of its words), then r.Contains does the exact substring check
	// below. A pos entry that occurs in a record only inside a longer
	// token is therefore not matched. An empty pos has no group to narrow
	// by: passing [][]string{nil} would hand SearchMustInclude a single
	// empty group, which is an AND-of-nothing-matches, not "no
	// constraint" -- so leave groups nil and let it fall into its
	// match-all branch instead.
	var groups [][]string
	if len(pos) > 0 {
		var words []string
		for _, p := range pos {
			words = append(words, strings.Fields(p)...)
		}
		groups = [][]string{words}
	}
	return b.tokenIndex.SearchMustInclude(groups, func(r *logrecord.Record) bool {
		return r.Seq <= offsetLock && r.Contains(pos, neg)
	})
}
