// Package scheduler implements the Coordinator described by spec.md §4.6:
// the single logical worker multiplexing ingest, clear, search, and
// cluster-refresh commands over conflated/buffered input queues, owning the
// sequence counter and offset lock and publishing results to capacity-1
// output queues. Grounded directly on
// modules/backendscheduler/backendscheduler.go's services.Service
// lifecycle, its ctx.Done()/ticker select-loop shape, and its go-kit
// leveled logging idiom.
package scheduler

import (
	"context"
	"math"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/grafana/dskit/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/grafana/nexlog/pkg/conflated"
	"github.com/grafana/nexlog/pkg/logrecord"
	"github.com/grafana/nexlog/pkg/mergeiter"
	"github.com/grafana/nexlog/pkg/queryparser"
	utillog "github.com/grafana/nexlog/pkg/util/log"
	"github.com/grafana/nexlog/pkg/valuestore"
)

const noLock = math.MaxUint64

var (
	metricQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "nexlog",
		Name:      "scheduler_queue_depth",
		Help:      "Depth of the scheduler's ingest queue.",
	}, []string{"queue"})
	metricSearchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "nexlog",
		Name:      "scheduler_search_duration_seconds",
		Help:      "Latency of a merged search across all sources.",
		Buckets:   prometheus.DefBuckets,
	})
	metricFramesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nexlog",
		Name:      "scheduler_output_frames_dropped_total",
		Help:      "Output frames dropped because a consumer did not drain in time.",
	}, []string{"queue"})
)

// Scheduler is the Coordinator. It owns every ValueStore and is the sole
// mutator of seqCounter, offsetLock, and the results cache; all of that
// state is touched only from the running() goroutine.
type Scheduler struct {
	services.Service

	cfg    Config
	logger log.Logger

	ingestCh    chan ingestCommand
	searchCell  *conflated.Cell[Query]
	refreshCell *conflated.Cell[struct{}]

	resultsCh  chan ResultChanged
	clustersCh chan ClusterList

	sources    map[string]*valuestore.ValueStore
	seqCounter atomic.Uint64
	offsetLock atomic.Uint64
	cache      *cachedList
}

// New returns a Scheduler wired with dskit's standard
// starting/running/stopping lifecycle.
func New(cfg Config) *Scheduler {
	s := &Scheduler{
		cfg:         cfg,
		logger:      utillog.Logger,
		ingestCh:    make(chan ingestCommand, cfg.IngestQueueSize),
		searchCell:  conflated.NewCell[Query](),
		refreshCell: conflated.NewCell[struct{}](),
		resultsCh:   make(chan ResultChanged, 1),
		clustersCh:  make(chan ClusterList, 1),
		sources:     make(map[string]*valuestore.ValueStore),
	}
	s.offsetLock.Store(noLock)
	s.Service = services.NewBasicService(nil, s.running, nil)
	return s
}

// PushAddRecord enqueues an AddRecord command. Blocks if the ingest queue is
// full (genuine backpressure on the "buffered, unbounded-ish" queue).
func (s *Scheduler) PushAddRecord(r *logrecord.Record) {
	s.ingestCh <- AddRecord(r)
	metricQueueDepth.WithLabelValues("ingest").Set(float64(len(s.ingestCh)))
}

// PushClearSource enqueues a ClearSource command.
func (s *Scheduler) PushClearSource(sourceID string) {
	s.ingestCh <- ClearSource(sourceID)
	metricQueueDepth.WithLabelValues("ingest").Set(float64(len(s.ingestCh)))
}

// PushQuery conflates q onto the search queue, superseding any
// not-yet-started prior query.
func (s *Scheduler) PushQuery(q Query) {
	s.searchCell.Put(q)
}

// PushRefreshClusters conflates a cluster-refresh request.
func (s *Scheduler) PushRefreshClusters() {
	s.refreshCell.Put(struct{}{})
}

// Results returns the channel external adapters read ResultChanged frames
// from.
func (s *Scheduler) Results() <-chan ResultChanged { return s.resultsCh }

// Clusters returns the channel external adapters read ClusterList frames
// from.
func (s *Scheduler) Clusters() <-chan ClusterList { return s.clustersCh }

// running is the single-threaded cooperative loop: it drains the three
// input queues in whatever order is ready (no fairness guarantee, per
// §4.6), serializing every mutation of sources/seqCounter/offsetLock/cache.
func (s *Scheduler) running(ctx context.Context) error {
	level.Info(s.logger).Log("msg", "scheduler running")

	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-s.ingestCh:
			s.handleIngest(cmd)
		case <-s.searchCell.Notify():
			if q, ok := s.searchCell.TakeAndClear(); ok {
				s.handleQuery(q)
			}
		case <-s.refreshCell.Notify():
			if _, ok := s.refreshCell.TakeAndClear(); ok {
				s.handleRefresh()
			}
		}
	}
}

func (s *Scheduler) handleIngest(cmd ingestCommand) {
	if cmd.Record != nil {
		s.handleAddRecord(cmd.Record)
		return
	}
	s.handleClearSource(cmd.ClearSourceID)
}

// handleAddRecord implements §4.6's AddRecord handling under §9's
// open-question decision: the scheduler is the sole, authoritative
// sequencer. Adapters never pre-assign seq; it is always overwritten here.
func (s *Scheduler) handleAddRecord(r *logrecord.Record) {
	r.Seq = s.seqCounter.Add(1)

	store, ok := s.sources[r.SourceID]
	if !ok {
		store = valuestore.New(s.cfg.ValueStore, s.cfg.Drain, r.SourceID)
		s.sources[r.SourceID] = store
	}
	store.Put(r)
}

func (s *Scheduler) handleClearSource(sourceID string) {
	store, ok := s.sources[sourceID]
	if !ok {
		return
	}
	store.Close()
	delete(s.sources, sourceID)
	if s.cache != nil {
		s.cache = nil
	}
}

// handleQuery implements §4.6's Query handling: offset-lock snapshotting,
// then either a CachedList-served scroll or a fresh live search.
func (s *Scheduler) handleQuery(q Query) {
	if q.Offset > 0 {
		if s.offsetLock.Load() == noLock {
			s.offsetLock.Store(s.seqCounter.Load())
		}
	} else {
		s.offsetLock.Store(noLock)
	}
	lock := s.offsetLock.Load()

	var page, chart []*logrecord.Record
	if q.Offset > 0 {
		page, chart = s.scrollingQuery(q, lock)
	} else {
		s.cache = nil
		stream := s.mergedSearch(q.Text, lock)
		page = takeN(stream, 0, q.Length)
		chart = page
	}

	s.publishResults(ResultChanged{Page: reversed(page), ChartPage: chart})
}

func (s *Scheduler) scrollingQuery(q Query, lock uint64) (page, chart []*logrecord.Record) {
	levels := s.cfg.Levels
	if s.cache.needsRebuild(q.Text, q.Offset, s.cfg.CacheBefore, levels) {
		start := q.Offset - s.cfg.CacheBefore
		if start < 0 {
			start = 0
		}
		stream := s.mergedSearch(q.Text, lock)
		want := q.Length + s.cfg.CacheAfter
		records := takeN(stream, start, want)
		s.cache = &cachedList{
			queryText:   q.Text,
			levels:      append([]logrecord.Level(nil), levels...),
			startOffset: start,
			records:     records,
			complete:    len(records) < want,
		}
	}
	return s.cache.page(q.Offset, q.Length), s.cache.records
}

// handleRefresh implements §4.6's RefreshClusters handling.
func (s *Scheduler) handleRefresh() {
	var out []Cluster
	for sourceID, store := range s.sources {
		for _, e := range store.LogClusters(s.cfg.Levels) {
			out = append(out, Cluster{SourceID: sourceID, Level: e.Level, Template: e.Template, Count: e.Count})
		}
	}
	s.publishClusters(ClusterList{Clusters: out})
}

// mergedSearch parses text and fans the search out across every source
// store concurrently (the "Search bodies may internally parallelize across
// sources" allowance from §5), then lazily merges the per-source results in
// descending (timestamp, seq) order.
func (s *Scheduler) mergedSearch(text string, lock uint64) mergeiter.Stream[*logrecord.Record] {
	timer := prometheus.NewTimer(metricSearchLatency)
	defer timer.ObserveDuration()

	q := queryparser.Parse(text)

	stores := make([]*valuestore.ValueStore, 0, len(s.sources))
	for _, store := range s.sources {
		stores = append(stores, store)
	}

	perSource := make([][]*logrecord.Record, len(stores))
	g, _ := errgroup.WithContext(context.Background())
	for i, store := range stores {
		i, store := i, store
		g.Go(func() error {
			perSource[i] = mergeiter.Drain(store.Search(q.Pos, q.Neg, lock, s.cfg.Levels))
			return nil
		})
	}
	_ = g.Wait()

	streams := make([]mergeiter.Stream[*logrecord.Record], 0, len(perSource))
	for _, records := range perSource {
		if len(records) > 0 {
			streams = append(streams, mergeiter.NewSliceStream(records))
		}
	}
	if len(streams) == 0 {
		return mergeiter.NewSliceStream[*logrecord.Record](nil)
	}
	return mergeiter.Merge(streams, valuestore.RecordLess)
}

// takeN drops the first dropN elements of s, then collects up to takeN of
// what follows. It pulls lazily rather than materializing the whole stream,
// per the Merge Iterator's "pull on demand" design.
func takeN(s mergeiter.Stream[*logrecord.Record], dropN, takeN int) []*logrecord.Record {
	for i := 0; i < dropN; i++ {
		if _, ok := s.Next(); !ok {
			return nil
		}
	}
	out := make([]*logrecord.Record, 0, takeN)
	for i := 0; i < takeN; i++ {
		v, ok := s.Next()
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out
}

// reversed returns a new slice with page's elements in reverse order,
// turning the newest-first search order into the oldest-first display order
// §4.6's "Result shape" names.
func reversed(page []*logrecord.Record) []*logrecord.Record {
	out := make([]*logrecord.Record, len(page))
	for i, r := range page {
		out[len(page)-1-i] = r
	}
	return out
}

func (s *Scheduler) publishResults(rc ResultChanged) {
	select {
	case s.resultsCh <- rc:
	default:
		select {
		case s.resultsCh <- rc:
		case <-time.After(s.cfg.OutputSendTimeout):
			metricFramesDropped.WithLabelValues("results").Inc()
			level.Warn(s.logger).Log("msg", "dropping results frame, consumer too slow")
		}
	}
}

func (s *Scheduler) publishClusters(cl ClusterList) {
	select {
	case s.clustersCh <- cl:
	default:
		select {
		case s.clustersCh <- cl:
		case <-time.After(s.cfg.OutputSendTimeout):
			metricFramesDropped.WithLabelValues("clusters").Inc()
			level.Warn(s.logger).Log("msg", "dropping clusters frame, consumer too slow")
		}
	}
}
