package scheduler

import "github.com/grafana/nexlog/pkg/logrecord"

// ingestCommand is the sum type carried on the ingest queue: exactly one of
// Record (AddRecord) or ClearSourceID (ClearSource) is set.
type ingestCommand struct {
	Record        *logrecord.Record
	ClearSourceID string
}

// AddRecord builds an ingest command that routes record to its source's
// ValueStore.
func AddRecord(record *logrecord.Record) ingestCommand {
	return ingestCommand{Record: record}
}

// ClearSource builds an ingest command that removes sourceID's ValueStore
// entirely.
func ClearSource(sourceID string) ingestCommand {
	return ingestCommand{ClearSourceID: sourceID}
}

// Query is the conflated search request: text is parsed by queryparser,
// length is the page size, offset is the scroll position (0 means "live
// tail").
type Query struct {
	Text   string
	Length int
	Offset int
}

// ResultChanged is the page/chart payload published on the results output
// queue, per spec.md §4.6's "Result shape".
type ResultChanged struct {
	Page      []*logrecord.Record
	ChartPage []*logrecord.Record
}

// Cluster is one aggregated (source, level, template) cluster entry, tagged
// with the source it was collected from.
type Cluster struct {
	SourceID string
	Level    logrecord.Level
	Template string
	Count    uint64
}

// ClusterList is the payload published on the clusters output queue.
type ClusterList struct {
	Clusters []Cluster
}
