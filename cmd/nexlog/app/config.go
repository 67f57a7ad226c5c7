package app

import (
	"flag"

	"github.com/grafana/nexlog/modules/scheduler"
	"github.com/grafana/nexlog/pkg/api"
	"github.com/grafana/nexlog/pkg/ingest/busconsumer"
	"github.com/grafana/nexlog/pkg/ingest/containerreader"
)

// WatchedSource names one container log file nexlog tails, per spec.md §6's
// container runtime log reader.
type WatchedSource struct {
	SourceID string `yaml:"source_id"`
	Path     string `yaml:"path"`
}

// Config is nexlog's top-level, single-binary configuration: a Scheduler,
// the HTTP query/cluster surface, and nexlog's two input adapters. There is
// no per-target module selection (unlike the teacher's multi-component
// `-target` flag) because the whole point of the Coordinator in spec.md §4.6
// is that it is the one and only worker; nexlog always runs every
// configured adapter feeding it.
type Config struct {
	LogLevel string `yaml:"log_level"`

	Scheduler scheduler.Config `yaml:"scheduler"`
	Server    api.Config       `yaml:"server"`

	ContainerReader containerreader.Config `yaml:"container_reader"`
	WatchedSources  []WatchedSource        `yaml:"watched_sources"`

	BusConsumerEnabled bool               `yaml:"bus_consumer_enabled"`
	BusConsumer        busconsumer.Config `yaml:"bus_consumer"`
}

// RegisterFlagsAndApplyDefaults registers every sub-config's flags under
// its own prefix, mirroring cmd/tempo/app.Config's top-level registration
// fan-out.
func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.LogLevel, prefix+"log-level", "info", "Minimum level logged (trace, debug, info, warn, error).")
	f.BoolVar(&cfg.BusConsumerEnabled, prefix+"bus-consumer.enabled", false, "Enable the Kafka message-bus consumer input adapter.")

	cfg.Scheduler.RegisterFlagsAndApplyDefaults(prefix+"scheduler", f)
	cfg.Server.RegisterFlagsAndApplyDefaults(prefix+"server", f)
	cfg.ContainerReader.RegisterFlagsAndApplyDefaults(prefix+"container-reader", f)
	cfg.BusConsumer.RegisterFlagsAndApplyDefaults(prefix+"bus-consumer", f)
}
