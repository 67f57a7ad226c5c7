package busconsumer

import "strings"

// stringSliceValue adapts a comma-separated flag into a []string, the same
// shape cfg.Brokers/cfg.Topics need for kgo.SeedBrokers/ConsumeTopics.
type stringSliceValue struct {
	target *[]string
}

func newStringSliceValue(target *[]string, defaults []string) *stringSliceValue {
	*target = defaults
	return &stringSliceValue{target: target}
}

func (v *stringSliceValue) String() string {
	if v.target == nil {
		return ""
	}
	return strings.Join(*v.target, ",")
}

func (v *stringSliceValue) Set(s string) error {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	*v.target = out
	return nil
}
