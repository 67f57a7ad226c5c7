package valuestore

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grafana/nexlog/pkg/drain"
	"github.com/grafana/nexlog/pkg/logrecord"
	"github.com/grafana/nexlog/pkg/mergeiter"
)

func testConfig(cap int) Config { return Config{BlockCapacity: cap} }

func withSeq(r *logrecord.Record, seq uint64) *logrecord.Record {
	r.Seq = seq
	return r
}

func TestBasicIngestAndSearch(t *testing.T) {
	vs := New(testConfig(8192), drain.DefaultConfig(), "s1")

	vs.Put(withSeq(logrecord.NewLogRecord(logrecord.LevelInfo, 1000, "foo bar", "s1", logrecord.LogFields{}), 1))
	vs.Put(withSeq(logrecord.NewLogRecord(logrecord.LevelInfo, 2000, "bar baz", "s1", logrecord.LogFields{}), 2))
	vs.Put(withSeq(logrecord.NewLogRecord(logrecord.LevelInfo, 3000, "qux", "s1", logrecord.LogFields{}), 3))

	got := mergeiter.Drain(vs.Search([]string{"bar"}, nil, ^uint64(0), []logrecord.Level{logrecord.LevelInfo}))
	require.Len(t, got, 2)
	require.Equal(t, int64(2000), got[0].Timestamp)
	require.Equal(t, int64(1000), got[1].Timestamp)
}

func TestNegation(t *testing.T) {
	vs := New(testConfig(8192), drain.DefaultConfig(), "s1")
	vs.Put(withSeq(logrecord.NewLogRecord(logrecord.LevelInfo, 1000, "foo bar", "s1", logrecord.LogFields{}), 1))
	vs.Put(withSeq(logrecord.NewLogRecord(logrecord.LevelInfo, 2000, "bar baz", "s1", logrecord.LogFields{}), 2))

	got := mergeiter.Drain(vs.Search([]string{"bar"}, []string{"baz"}, ^uint64(0), []logrecord.Level{logrecord.LevelInfo}))
	require.Len(t, got, 1)
	require.Equal(t, int64(1000), got[0].Timestamp)
}

func TestBlockRolloverAtCapacity(t *testing.T) {
	vs := New(testConfig(4), drain.DefaultConfig(), "s1")
	for i := 0; i < 9; i++ {
		vs.Put(withSeq(logrecord.NewLogRecord(logrecord.LevelInfo, int64(i), fmt.Sprintf("line %d", i), "s1", logrecord.LogFields{}), uint64(i+1)))
	}

	list := vs.blocks[logrecord.LevelInfo]
	require.Len(t, list, 3)
	require.Equal(t, 4, list[0].Size())
	require.Equal(t, 4, list[1].Size())
	require.Equal(t, 1, list[2].Size())
	require.True(t, list[0].Finalized())
	require.True(t, list[1].Finalized())
	require.False(t, list[2].Finalized())

	got := mergeiter.Drain(vs.Search(nil, nil, ^uint64(0), []logrecord.Level{logrecord.LevelInfo}))
	require.Len(t, got, 9)
	for i := 0; i < len(got)-1; i++ {
		require.GreaterOrEqual(t, got[i].Timestamp, got[i+1].Timestamp)
	}
}

func TestOffsetLockExcludesLaterBlocks(t *testing.T) {
	vs := New(testConfig(4), drain.DefaultConfig(), "s1")
	for i := 0; i < 5; i++ {
		vs.Put(withSeq(logrecord.NewLogRecord(logrecord.LevelInfo, int64(i), "x", "s1", logrecord.LogFields{}), uint64(i+1)))
	}
	// First block (seqs 1-4) is finalized with maxSeq=4; second block has
	// only seq 5. Locking at 4 must exclude the second (tail) block
	// entirely, per the maxSeq <= offsetLock policy.
	got := mergeiter.Drain(vs.Search(nil, nil, 4, []logrecord.Level{logrecord.LevelInfo}))
	require.Len(t, got, 4)
}

func TestClearReturnsSizeForCounterDecrement(t *testing.T) {
	vs := New(testConfig(8192), drain.DefaultConfig(), "s1")
	vs.Put(withSeq(logrecord.NewLogRecord(logrecord.LevelInfo, 1000, "a", "s1", logrecord.LogFields{}), 1))
	vs.Put(withSeq(logrecord.NewLogRecord(logrecord.LevelInfo, 2000, "b", "s1", logrecord.LogFields{}), 2))

	require.Equal(t, uint64(2), vs.Close())
}

func TestLogClustersGroupsAcrossBlocks(t *testing.T) {
	vs := New(testConfig(4), drain.DefaultConfig(), "s1")
	for i := 0; i < 9; i++ {
		vs.Put(withSeq(logrecord.NewLogRecord(logrecord.LevelInfo, int64(i), fmt.Sprintf("user %d logged in", i), "s1", logrecord.LogFields{}), uint64(i+1)))
	}

	clusters := vs.LogClusters([]logrecord.Level{logrecord.LevelInfo})
	require.Len(t, clusters, 1)
	require.Equal(t, uint64(9), clusters[0].Count)
}
