// Package tokenindex implements the inverted posting-list index described
// by the token index component: token -> ordered payload list, in
// insertion order, with grouped AND/OR search and a one-way
// finalize-to-read-optimized-form transition.
package tokenindex

import (
	"sort"
	"strings"
)

// Index is an inverted posting-list index over payloads of type T, keyed by
// whitespace token. It has a single writer (the scheduler); readers only
// ever observe a prefix of what has been written, which is safe without
// locking as long as no reader runs concurrently with ConvertToHigherRank.
type Index[T any] struct {
	postings     map[string][]entry[T]
	size         int
	nextSeq      int
	rankPromoted bool
}

type entry[T any] struct {
	payload T
	seq     int
}

// New returns an empty, mutable Index.
func New[T any]() *Index[T] {
	return &Index[T]{postings: make(map[string][]entry[T])}
}

// Size returns the number of payloads added so far.
func (idx *Index[T]) Size() int {
	return idx.size
}

// RankPromoted reports whether ConvertToHigherRank has been called.
func (idx *Index[T]) RankPromoted() bool {
	return idx.rankPromoted
}

// Add tokenizes text by whitespace (lowercase, non-empty tokens only) and
// appends payload to every token's posting list. Appends are sequence
// ordered, so each posting list is newest-last by construction.
func (idx *Index[T]) Add(payload T, text string) {
	seq := idx.nextSeq
	idx.nextSeq++
	for _, tok := range tokenize(text) {
		idx.postings[tok] = append(idx.postings[tok], entry[T]{payload: payload, seq: seq})
	}
	idx.size++
}

func tokenize(text string) []string {
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ToLower(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// SearchMustInclude yields payloads that appear in the posting list of at
// least one token from every group in groups (groups AND, tokens within a
// group OR), and for which predicate returns true, newest-first. An empty
// groups slice matches every payload added so far with at least one token,
// filtered by predicate; a payload added with empty text is not returned.
//
// Algorithm: reduce each group to the deduplicated union of its tokens'
// postings, ordered by insertion sequence. Sort the groups by union size
// ascending, then walk the smallest union in reverse (newest-first),
// probing membership of its sequence number in every other group's union.
// This keeps the inner membership tests bounded by the smallest group.
func (idx *Index[T]) SearchMustInclude(groups [][]string, predicate func(T) bool) []T {
	if len(groups) == 0 {
		return idx.allMatching(predicate)
	}

	unions := make([]*group[T], 0, len(groups))
	for _, g := range groups {
		u := idx.unionGroup(g)
		if u.empty() {
			// An AND of groups where one group is empty can never match.
			return nil
		}
		unions = append(unions, u)
	}

	sort.Slice(unions, func(i, j int) bool { return unions[i].len() < unions[j].len() })
	smallest := unions[0]
	rest := unions[1:]

	var out []T
	smallest.iterateReverse(func(e entry[T]) {
		for _, u := range rest {
			if !u.containsSeq(e.seq) {
				return
			}
		}
		if predicate == nil || predicate(e.payload) {
			out = append(out, e.payload)
		}
	})
	return out
}

func (idx *Index[T]) allMatching(predicate func(T) bool) []T {
	seen := make(map[int]entry[T])
	for _, postings := range idx.postings {
		for _, e := range postings {
			seen[e.seq] = e
		}
	}
	ordered := make([]entry[T], 0, len(seen))
	for _, e := range seen {
		ordered = append(ordered, e)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].seq > ordered[j].seq })

	var out []T
	for _, e := range ordered {
		if predicate == nil || predicate(e.payload) {
			out = append(out, e.payload)
		}
	}
	return out
}

// ConvertToHigherRank marks the index read-only. A finalized block's token
// set no longer changes, so this is the hook a denser read-optimized
// representation (e.g. sorted token keys for binary search) would compact
// into; nexlog's in-memory posting lists are already cheap enough to scan
// that the only observable effect today is the read-only flag.
func (idx *Index[T]) ConvertToHigherRank() {
	idx.rankPromoted = true
}

// group is the deduplicated union of postings for every token in one query
// group, ordered by insertion sequence so iterateReverse yields
// newest-first.
type group[T any] struct {
	entries []entry[T]
	bySeq   map[int]struct{}
}

func (idx *Index[T]) unionGroup(tokens []string) *group[T] {
	g := &group[T]{bySeq: make(map[int]struct{})}
	for _, rawTok := range tokens {
		tok := strings.ToLower(rawTok)
		postings, ok := idx.postings[tok]
		if !ok {
			continue
		}
		for _, e := range postings {
			if _, dup := g.bySeq[e.seq]; dup {
				continue
			}
			g.bySeq[e.seq] = struct{}{}
			g.entries = append(g.entries, e)
		}
	}
	sort.Slice(g.entries, func(i, j int) bool { return g.entries[i].seq < g.entries[j].seq })
	return g
}

func (g *group[T]) empty() bool { return len(g.entries) == 0 }
func (g *group[T]) len() int    { return len(g.entries) }

func (g *group[T]) containsSeq(seq int) bool {
	_, ok := g.bySeq[seq]
	return ok
}

func (g *group[T]) iterateReverse(fn func(entry[T])) {
	for i := len(g.entries) - 1; i >= 0; i-- {
		fn(g.entries[i])
	}
}
