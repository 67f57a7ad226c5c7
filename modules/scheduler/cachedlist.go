package scheduler

import "github.com/grafana/nexlog/pkg/logrecord"

// cachedList materializes a scrolling query's window, so that small offset
// changes reuse already-fetched results instead of re-running the merged
// search, per spec.md §4.6.
type cachedList struct {
	queryText   string
	levels      []logrecord.Level
	startOffset int
	records     []*logrecord.Record // newest-first, window [startOffset, startOffset+len(records))
	complete    bool
}

// needsRebuild reports whether the cache must be recomputed before serving a
// scrolling query for text at offset, given the scheduler's current severity
// filter. Mirrors §4.6's three rebuild conditions plus §9's decision to
// treat a severity-filter change like a query-text change.
func (c *cachedList) needsRebuild(text string, offset, cacheBefore int, levels []logrecord.Level) bool {
	if c == nil {
		return true
	}
	if c.queryText != text {
		return true
	}
	if !sameLevels(c.levels, levels) {
		return true
	}
	if offset < c.startOffset {
		return true
	}
	if !c.complete && offset-c.startOffset+cacheBefore > len(c.records) {
		return true
	}
	return false
}

// page returns the length-sized, newest-first slice of the cached window
// starting at offset. It may be shorter than length if the underlying
// stream was exhausted.
func (c *cachedList) page(offset, length int) []*logrecord.Record {
	start := offset - c.startOffset
	if start < 0 || start >= len(c.records) {
		return nil
	}
	end := start + length
	if end > len(c.records) {
		end = len(c.records)
	}
	return c.records[start:end]
}

func sameLevels(a, b []logrecord.Level) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
