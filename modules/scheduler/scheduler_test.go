package scheduler

import (
	"context"
	"flag"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/grafana/nexlog/pkg/logrecord"
)

func testScheduler(t *testing.T) *Scheduler {
	t.Helper()
	var cfg Config
	cfg.RegisterFlagsAndApplyDefaults("scheduler", flag.NewFlagSet("test", flag.ContinueOnError))
	cfg.OutputSendTimeout = 100 * time.Millisecond

	s := New(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = s.running(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return s
}

func awaitResult(t *testing.T, s *Scheduler) ResultChanged {
	t.Helper()
	select {
	case rc := <-s.Results():
		return rc
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ResultChanged")
		return ResultChanged{}
	}
}

func awaitClusters(t *testing.T, s *Scheduler) ClusterList {
	t.Helper()
	select {
	case cl := <-s.Clusters():
		return cl
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ClusterList")
		return ClusterList{}
	}
}

// TestBasicIngestAndSearch mirrors spec.md §8 scenario 1.
func TestBasicIngestAndSearch(t *testing.T) {
	s := testScheduler(t)

	s.PushAddRecord(logrecord.NewLogRecord(logrecord.LevelInfo, 1000, "foo bar", "s1", logrecord.LogFields{}))
	s.PushAddRecord(logrecord.NewLogRecord(logrecord.LevelInfo, 2000, "bar baz", "s1", logrecord.LogFields{}))
	s.PushAddRecord(logrecord.NewLogRecord(logrecord.LevelInfo, 3000, "qux", "s1", logrecord.LogFields{}))

	s.PushQuery(Query{Text: "bar", Length: 10, Offset: 0})
	rc := awaitResult(t, s)

	require.Len(t, rc.Page, 2)
	require.Equal(t, int64(1000), rc.Page[0].Timestamp)
	require.Equal(t, int64(2000), rc.Page[1].Timestamp)
}

// TestNegation mirrors spec.md §8 scenario 2.
func TestNegation(t *testing.T) {
	s := testScheduler(t)

	s.PushAddRecord(logrecord.NewLogRecord(logrecord.LevelInfo, 1000, "foo bar", "s1", logrecord.LogFields{}))
	s.PushAddRecord(logrecord.NewLogRecord(logrecord.LevelInfo, 2000, "bar baz", "s1", logrecord.LogFields{}))

	s.PushQuery(Query{Text: "bar !baz", Length: 10, Offset: 0})
	rc := awaitResult(t, s)

	require.Len(t, rc.Page, 1)
	require.Equal(t, int64(1000), rc.Page[0].Timestamp)
}

// TestOffsetLockStableUnderConcurrentIngest mirrors spec.md §8 scenario 4.
func TestOffsetLockStableUnderConcurrentIngest(t *testing.T) {
	s := testScheduler(t)

	for i := 0; i < 100; i++ {
		s.PushAddRecord(logrecord.NewLogRecord(logrecord.LevelInfo, int64(i), fmt.Sprintf("line %d", i), "s1", logrecord.LogFields{}))
	}

	s.PushQuery(Query{Text: "", Length: 10, Offset: 50})
	first := awaitResult(t, s)

	for i := 100; i < 110; i++ {
		s.PushAddRecord(logrecord.NewLogRecord(logrecord.LevelInfo, int64(i), fmt.Sprintf("line %d", i), "s1", logrecord.LogFields{}))
	}

	s.PushQuery(Query{Text: "", Length: 10, Offset: 50})
	second := awaitResult(t, s)
	require.Equal(t, first.Page, second.Page)

	s.PushQuery(Query{Text: "", Length: 10, Offset: 0})
	live := awaitResult(t, s)
	require.NotEqual(t, first.Page, live.Page)
}

// TestClusterRefresh mirrors spec.md §8 scenario 6.
func TestClusterRefresh(t *testing.T) {
	s := testScheduler(t)

	for i := 0; i < 1000; i++ {
		s.PushAddRecord(logrecord.NewLogRecord(logrecord.LevelInfo, int64(i), fmt.Sprintf("user %d logged in", i), "s1", logrecord.LogFields{}))
	}

	s.PushRefreshClusters()
	cl := awaitClusters(t, s)

	require.Len(t, cl.Clusters, 1)
	require.InDelta(t, 1000, cl.Clusters[0].Count, 1)
	require.Contains(t, cl.Clusters[0].Template, "<*>")
}

func TestClearSourceEmptiesResults(t *testing.T) {
	s := testScheduler(t)

	s.PushAddRecord(logrecord.NewLogRecord(logrecord.LevelInfo, 1000, "foo", "s1", logrecord.LogFields{}))
	s.PushQuery(Query{Text: "foo", Length: 10, Offset: 0})
	rc := awaitResult(t, s)
	require.Len(t, rc.Page, 1)

	s.PushClearSource("s1")
	s.PushQuery(Query{Text: "foo", Length: 10, Offset: 0})
	rc = awaitResult(t, s)
	require.Empty(t, rc.Page)
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
