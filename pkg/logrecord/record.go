// Package logrecord defines the polymorphic record carrier ingested by
// nexlog: a common envelope (sequence, level, timestamp, message, source)
// shared by two variants, LogRecord fields (container runtime log lines)
// and BusRecord fields (message-bus records), plus the canonical,
// lowercased searchable string used for literal substring matching.
package logrecord

import "strings"

// Kind tags which variant's fields are populated on a Record.
type Kind uint8

const (
	KindLog Kind = iota
	KindBus
)

// LogFields holds the fields unique to a container-runtime log line.
type LogFields struct {
	Thread         string
	ServiceName    string
	ServiceVersion string
	Logger         string
	CorrelationID  string
	RequestID      string
	ErrorMessage   string
	Stacktrace     string
}

// BusFields holds the fields unique to a message-bus record.
type BusFields struct {
	Topic            string
	Key              string
	Offset           int64
	Partition        int32
	Headers          map[string]string
	CorrelationID    string
	RequestID        string
	CompositeEventID string
}

// Record is the common carrier for both variants. The canonical string is
// cached by NewLogRecord/NewBusRecord and never recomputed; Seq is not part
// of it and is assigned afterwards by the scheduler on ingest.
type Record struct {
	Seq       uint64
	Level     Level
	Timestamp int64 // epoch milliseconds
	Message   string
	SourceID  string

	Kind Kind
	Log  LogFields
	Bus  BusFields

	canonical string
}

// NewLogRecord builds an immutable LogRecord-variant Record, caching its
// canonical searchable string.
func NewLogRecord(level Level, ts int64, message, sourceID string, fields LogFields) *Record {
	r := &Record{
		Level:     level,
		Timestamp: ts,
		Message:   message,
		SourceID:  sourceID,
		Kind:      KindLog,
		Log:       fields,
	}
	r.canonical = r.buildCanonical()
	return r
}

// NewBusRecord builds an immutable BusRecord-variant Record, caching its
// canonical searchable string.
func NewBusRecord(level Level, ts int64, message, sourceID string, fields BusFields) *Record {
	r := &Record{
		Level:     level,
		Timestamp: ts,
		Message:   message,
		SourceID:  sourceID,
		Kind:      KindBus,
		Bus:       fields,
	}
	r.canonical = r.buildCanonical()
	return r
}

// Canonical returns the cached, lowercased, space-joined concatenation of
// every non-empty string-coerced field.
func (r *Record) Canonical() string {
	return r.canonical
}

func (r *Record) buildCanonical() string {
	var b strings.Builder

	appendField := func(s string) {
		if s == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strings.ToLower(s))
	}

	appendField(r.Level.String())
	appendField(r.Message)
	appendField(r.SourceID)

	switch r.Kind {
	case KindLog:
		appendField(r.Log.Thread)
		appendField(r.Log.ServiceName)
		appendField(r.Log.ServiceVersion)
		appendField(r.Log.Logger)
		appendField(r.Log.CorrelationID)
		appendField(r.Log.RequestID)
		appendField(r.Log.ErrorMessage)
		appendField(r.Log.Stacktrace)
	case KindBus:
		appendField(r.Bus.Topic)
		appendField(r.Bus.Key)
		for k, v := range r.Bus.Headers {
			appendField(k)
			appendField(v)
		}
		appendField(r.Bus.CorrelationID)
		appendField(r.Bus.RequestID)
		appendField(r.Bus.CompositeEventID)
	}

	return b.String()
}

// Contains reports whether every string in pos is a (case-insensitive)
// substring of the canonical string, and no string in neg is. An empty pos
// and neg returns true.
func (r *Record) Contains(pos, neg []string) bool {
	for _, p := range pos {
		if !strings.Contains(r.canonical, strings.ToLower(p)) {
			return false
		}
	}
	for _, n := range neg {
		if strings.Contains(r.canonical, strings.ToLower(n)) {
			return false
		}
	}
	return true
}
