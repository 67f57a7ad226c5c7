package containerreader

import (
	"flag"
	"time"
)

// Config configures the container runtime log reader input adapter
// described by spec.md §6.
type Config struct {
	// PollInterval is how often a watched file is checked for new bytes.
	// The teacher pack has no filesystem-tailing library in its dependency
	// surface (no hpcloud/tail, no fsnotify), so this adapter polls rather
	// than watches, mirroring the docker-log-viewer example's read-loop
	// shape instead.
	PollInterval time.Duration `yaml:"poll_interval"`
}

// RegisterFlagsAndApplyDefaults registers cfg's flags under prefix.
func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.DurationVar(&cfg.PollInterval, prefix+".poll-interval", 250*time.Millisecond, "How often a watched container log file is polled for new lines.")
}
