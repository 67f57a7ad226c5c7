// Package drain implements the online log templatizer described by the
// Drain Tree component: records are folded into a bounded tree of
// templates (a sequence of literal tokens and wildcards), each leaf
// tracking a count. Adapted from the teacher pack's own drain algorithm
// (tempo's pkg/drain, forked into Loki's pkg/pattern/drain) for nexlog's
// per-source, per-severity clustering and one-way seal semantics.
package drain

import (
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/grafana/nexlog/pkg/logrecord"
)

// Config bounds the tree's memory footprint and tunes matching behavior.
type Config struct {
	MaxNodeDepth int     // branching depth before falling back to fastMatch over leaf clusters
	SimTh        float64 // fraction of equal-token positions required to join a cluster
	MaxChildren  int     // fan-out limit per node before a wildcard child is introduced
	MaxClusters  int     // LRU capacity for the cluster cache, 0 = unbounded
	ParamString  string  // wildcard token rendered in templates
}

// DefaultConfig mirrors the teacher pack's drain defaults, tuned down for
// log-line rather than trace-span clustering.
func DefaultConfig() Config {
	return Config{
		MaxNodeDepth: 4,
		SimTh:        0.5,
		MaxChildren:  100,
		MaxClusters:  0,
		ParamString:  "<*>",
	}
}

// Cluster is one equivalence class of log messages: a token template with
// wildcards, tagged with the level most recently observed for it, and a
// monotone non-decreasing count.
type Cluster struct {
	id      int
	Level   logrecord.Level
	Tokens  []string
	Count   uint64
}

// Template renders the cluster's token sequence back into a single string.
func (c *Cluster) Template() string {
	return strings.Join(c.Tokens, " ")
}

type node struct {
	children   map[string]*node
	clusterIDs []int
}

func newNode() *node {
	return &node{children: make(map[string]*node)}
}

// Tree is one drain tree, owned by a single IndexBlock for one
// (source, severity) pair.
type Tree struct {
	cfg      Config
	sourceID string

	root       *node
	clusters   *lru.LRU[int, *Cluster]
	nextID     int
	sealed     bool
}

// New returns an empty, mutable Tree for sourceID.
func New(cfg Config, sourceID string) *Tree {
	size := cfg.MaxClusters
	if size <= 0 {
		size = 1 << 30 // effectively unbounded; simplelru requires a positive size
	}
	cache, _ := lru.NewLRU[int, *Cluster](size, nil)
	return &Tree{
		cfg:      cfg,
		sourceID: sourceID,
		root:     newNode(),
		clusters: cache,
	}
}

// Add folds record's message into the tree, returning the cluster it
// joined. It creates a new cluster when no existing template matches
// within the similarity threshold, unless the tree has been sealed, in
// which case it returns nil rather than fabricate a new template. A new
// cluster's template holds a wildcard at every position whose token
// contains a digit.
func (t *Tree) Add(record *logrecord.Record) *Cluster {
	tokens := strings.Fields(record.Message)

	match := t.treeSearch(tokens)
	if match != nil {
		match.Tokens = mergeTemplate(tokens, match.Tokens, t.cfg.ParamString)
		match.Level = record.Level
		match.Count++
		t.clusters.Get(match.id) // touch for LRU recency
		return match
	}

	if t.sealed {
		return nil
	}

	template := make([]string, len(tokens))
	for i, tok := range tokens {
		if strings.ContainsAny(tok, "0123456789") {
			template[i] = t.cfg.ParamString
		} else {
			template[i] = tok
		}
	}

	t.nextID++
	c := &Cluster{
		id:     t.nextID,
		Level:  record.Level,
		Tokens: template,
		Count:  1,
	}
	t.clusters.Add(c.id, c)
	t.addToTree(c)
	return c
}

// Final seals the tree: treeSearch may still match and increment existing
// clusters, but Add will never create a new one again. Idempotent.
func (t *Tree) Final() {
	t.sealed = true
}

// Sealed reports whether Final has been called.
func (t *Tree) Sealed() bool {
	return t.sealed
}

// ClusterSnapshot is one immutable, tagged entry in a LogClusters() result.
type ClusterSnapshot struct {
	SourceID string
	Level    logrecord.Level
	Template string
	Count    uint64
}

// LogClusters returns an immutable snapshot of every current cluster,
// tagged with the tree's source id.
func (t *Tree) LogClusters() []ClusterSnapshot {
	out := make([]ClusterSnapshot, 0, t.clusters.Len())
	for _, id := range t.clusters.Keys() {
		c, ok := t.clusters.Peek(id)
		if !ok {
			continue
		}
		out = append(out, ClusterSnapshot{
			SourceID: t.sourceID,
			Level:    c.Level,
			Template: c.Template(),
			Count:    c.Count,
		})
	}
	return out
}

// treeSearch finds the best existing cluster for tokens, or nil if none is
// within the similarity threshold. First-level bucketing is by token
// count; subsequent levels branch on token identity from the head of the
// message, falling back to the wildcard child when a token has no literal
// child, and stop descending once MaxNodeDepth is reached.
func (t *Tree) treeSearch(tokens []string) *Cluster {
	bucketKey := strconv.Itoa(len(tokens))
	cur, ok := t.root.children[bucketKey]
	if !ok {
		return nil
	}

	depth := 1
	for _, tok := range tokens {
		if depth >= t.cfg.MaxNodeDepth || depth >= len(tokens) {
			break
		}
		next, ok := cur.children[tok]
		if !ok {
			next, ok = cur.children[t.cfg.ParamString]
			if !ok {
				return nil
			}
		}
		cur = next
		depth++
	}

	return t.fastMatch(cur.clusterIDs, tokens)
}

// fastMatch scores every candidate cluster at a leaf against tokens,
// returning the best one at or above the similarity threshold.
func (t *Tree) fastMatch(clusterIDs []int, tokens []string) *Cluster {
	var best *Cluster
	bestSim := -1.0

	for _, id := range clusterIDs {
		c, ok := t.clusters.Peek(id)
		if !ok || len(c.Tokens) != len(tokens) {
			continue
		}
		sim := similarity(c.Tokens, tokens, t.cfg.ParamString)
		if sim > bestSim {
			bestSim = sim
			best = c
		}
	}
	if bestSim >= t.cfg.SimTh {
		return best
	}
	return nil
}

// similarity is the fraction of positions where the cluster's template and
// the incoming tokens are equal (a wildcard position never counts as
// equal, matching the spec's "fraction of positions with equal tokens").
func similarity(template, tokens []string, wildcard string) float64 {
	if len(template) == 0 {
		return 1.0
	}
	equal := 0
	for i := range template {
		if template[i] != wildcard && template[i] == tokens[i] {
			equal++
		}
	}
	return float64(equal) / float64(len(template))
}

// mergeTemplate widens a matched cluster's template: any position where
// the incoming tokens disagree with the stored template becomes a
// wildcard.
func mergeTemplate(tokens, template []string, wildcard string) []string {
	out := make([]string, len(template))
	copy(out, template)
	for i := range tokens {
		if out[i] != tokens[i] {
			out[i] = wildcard
		}
	}
	return out
}

// addToTree inserts a freshly created cluster into the prefix tree,
// bucketing first by token count, then branching on literal tokens up to
// MaxNodeDepth, introducing a wildcard child once a node's fan-out would
// exceed MaxChildren.
func (t *Tree) addToTree(c *Cluster) {
	bucketKey := strconv.Itoa(len(c.Tokens))
	cur, ok := t.root.children[bucketKey]
	if !ok {
		cur = newNode()
		t.root.children[bucketKey] = cur
	}

	depth := 1
	for _, tok := range c.Tokens {
		if depth >= t.cfg.MaxNodeDepth || depth >= len(c.Tokens) {
			cur.clusterIDs = append(cur.clusterIDs, c.id)
			return
		}

		next, ok := cur.children[tok]
		if !ok {
			if len(cur.children) >= t.cfg.MaxChildren {
				next, ok = cur.children[t.cfg.ParamString]
				if !ok {
					next = newNode()
					cur.children[t.cfg.ParamString] = next
				}
			} else {
				next = newNode()
				cur.children[tok] = next
			}
		}
		cur = next
		depth++
	}
	cur.clusterIDs = append(cur.clusterIDs, c.id)
}
