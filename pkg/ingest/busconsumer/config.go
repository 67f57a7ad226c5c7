package busconsumer

import "flag"

// Config configures the message-bus (Kafka) consumer adapter described by
// spec.md §6's "Message-bus consumer".
type Config struct {
	Brokers       []string `yaml:"brokers"`
	Topics        []string `yaml:"topics"`
	ConsumerGroup string   `yaml:"consumer_group"`
	ClientID      string   `yaml:"client_id"`
}

// RegisterFlagsAndApplyDefaults registers cfg's flags under prefix.
func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.Var(newStringSliceValue(&cfg.Brokers, []string{"localhost:9092"}), prefix+".brokers", "Comma-separated Kafka seed broker addresses.")
	f.Var(newStringSliceValue(&cfg.Topics, nil), prefix+".topics", "Comma-separated Kafka topics to consume.")
	f.StringVar(&cfg.ConsumerGroup, prefix+".consumer-group", "nexlog", "Kafka consumer group name.")
	f.StringVar(&cfg.ClientID, prefix+".client-id", "nexlog-busconsumer", "Kafka client id reported to brokers.")
}
