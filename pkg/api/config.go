package api

import (
	"flag"
	"time"
)

// Config configures the thin HTTP query/cluster surface described in
// SPEC_FULL.md's supplemented features.
type Config struct {
	ListenAddress string        `yaml:"listen_address"`
	QueryTimeout  time.Duration `yaml:"query_timeout"`
}

// RegisterFlagsAndApplyDefaults registers cfg's flags under prefix.
func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.ListenAddress, prefix+".listen-address", ":3100", "Address the query/cluster HTTP surface listens on.")
	f.DurationVar(&cfg.QueryTimeout, prefix+".query-timeout", 5*time.Second, "How long a /query or /clusters request waits for a scheduler response.")
}
