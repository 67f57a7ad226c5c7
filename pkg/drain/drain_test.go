package drain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grafana/nexlog/pkg/logrecord"
)

func rec(msg string) *logrecord.Record {
	return logrecord.NewLogRecord(logrecord.LevelInfo, 0, msg, "s1", logrecord.LogFields{})
}

func TestSimilarMessagesJoinOneCluster(t *testing.T) {
	tree := New(DefaultConfig(), "s1")

	var last *Cluster
	for i := 0; i < 1000; i++ {
		last = tree.Add(rec(fmt.Sprintf("user %d logged in", i)))
	}

	require.Len(t, tree.LogClusters(), 1)
	require.Equal(t, uint64(1000), last.Count)
	require.Contains(t, last.Template(), DefaultConfig().ParamString)
}

func TestDissimilarMessagesCreateSeparateClusters(t *testing.T) {
	tree := New(DefaultConfig(), "s1")

	tree.Add(rec("connection established"))
	tree.Add(rec("disk quota exceeded"))

	require.Len(t, tree.LogClusters(), 2)
}

func TestFinalSealsAgainstNewClustersButAllowsIncrement(t *testing.T) {
	tree := New(DefaultConfig(), "s1")
	tree.Add(rec("hello world"))
	tree.Final()
	require.True(t, tree.Sealed())

	// matches existing cluster: counter still increments after seal.
	c := tree.Add(rec("hello world"))
	require.NotNil(t, c)
	require.Equal(t, uint64(2), c.Count)

	// no matching cluster and tree sealed: no new cluster is created.
	c2 := tree.Add(rec("totally different shape of message here"))
	require.Nil(t, c2)
	require.Len(t, tree.LogClusters(), 1)
}

func TestFinalIsIdempotent(t *testing.T) {
	tree := New(DefaultConfig(), "s1")
	tree.Final()
	tree.Final()
	require.True(t, tree.Sealed())
}

func TestLogClustersTaggedWithSourceID(t *testing.T) {
	tree := New(DefaultConfig(), "pod-xyz")
	tree.Add(rec("boot sequence complete"))

	snaps := tree.LogClusters()
	require.Len(t, snaps, 1)
	require.Equal(t, "pod-xyz", snaps[0].SourceID)
	require.Equal(t, logrecord.LevelInfo, snaps[0].Level)
}
