package scheduler

import (
	"flag"
	"time"

	"github.com/grafana/nexlog/pkg/drain"
	"github.com/grafana/nexlog/pkg/logrecord"
	"github.com/grafana/nexlog/pkg/valuestore"
)

// Config holds the Coordinator's tunables: the value-store/drain defaults
// handed to every ValueStore it creates, the cache window widths named in
// spec.md §4.6, and the backpressure timeout for output-queue sends.
type Config struct {
	ValueStore valuestore.Config `yaml:"value_store"`
	Drain      drain.Config      `yaml:"drain"`

	// IngestQueueSize bounds the "buffered, unbounded-ish" ingest channel.
	IngestQueueSize int `yaml:"ingest_queue_size"`

	// CacheBefore/CacheAfter are the 5000/10000 constants from §4.6's
	// CachedList rebuild rule.
	CacheBefore int `yaml:"cache_before"`
	CacheAfter  int `yaml:"cache_after"`

	// OutputSendTimeout bounds how long a publish to a capacity-1 output
	// queue waits for a slow consumer before the frame is dropped, per
	// §5's "External adapters may impose send-timeouts" policy.
	OutputSendTimeout time.Duration `yaml:"output_send_timeout"`

	// Levels is the enabled severity filter applied to every search and
	// cluster refresh. Defaults to all levels.
	Levels []logrecord.Level `yaml:"-"`
}

// RegisterFlagsAndApplyDefaults registers cfg's flags under prefix,
// following the dskit/flagext convention the rest of the module uses.
func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	cfg.ValueStore.RegisterFlagsAndApplyDefaults(prefix+".value-store", f)

	f.IntVar(&cfg.IngestQueueSize, prefix+".ingest-queue-size", 10000, "Buffer size of the ingest input queue.")
	f.IntVar(&cfg.CacheBefore, prefix+".cache-before", 5000, "Records to include before a scrolling query's offset when rebuilding the results cache.")
	f.IntVar(&cfg.CacheAfter, prefix+".cache-after", 10000, "Records to include after a scrolling query's requested page when rebuilding the results cache.")
	f.DurationVar(&cfg.OutputSendTimeout, prefix+".output-send-timeout", time.Second, "How long a publish to a capacity-1 output queue waits before the frame is dropped.")

	cfg.Drain = drain.DefaultConfig()
	cfg.Levels = append([]logrecord.Level(nil), logrecord.Levels...)
}
