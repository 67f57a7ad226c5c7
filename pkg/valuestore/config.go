package valuestore

import "flag"

// Config bounds a ValueStore's index blocks and drain trees.
type Config struct {
	// BlockCapacity is CAP from the spec: the number of records a single
	// IndexBlock holds before it is finalized and rolled over.
	BlockCapacity int `yaml:"block_capacity"`
}

// RegisterFlagsAndApplyDefaults registers Config's flags under prefix,
// mirroring the teacher's RegisterFlagsAndApplyDefaults convention
// (cmd/tempo/app/config.go).
func (c *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.IntVar(&c.BlockCapacity, prefix+".block-capacity", 8192, "Number of records an index block holds before it is finalized and rolled over.")
}
