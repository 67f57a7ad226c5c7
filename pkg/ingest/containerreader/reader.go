// Package containerreader implements the container runtime log reader input
// adapter from spec.md §6: for each watched source (pod) it tails a log
// stream, parses "<rfc3339-timestamp> <json-or-text-payload>" lines, and
// pushes the resulting Records onto a scheduler's ingest queue. Grounded on
// other_examples/d3abdda4_jmelloy-docker-log-viewer's streaming read loop
// (a ctx.Done()-vs-read select, buffering and flushing complete lines) for
// the tail shape, generalized from a Docker exec stream to a plain file
// since the pack has no container-runtime client dependency to reuse.
package containerreader

import (
	"bytes"
	"context"
	"io"
	"os"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/grafana/nexlog/pkg/logrecord"
	utillog "github.com/grafana/nexlog/pkg/util/log"
)

// Sink is the subset of *scheduler.Scheduler this adapter needs.
type Sink interface {
	PushAddRecord(r *logrecord.Record)
	PushClearSource(sourceID string)
}

// Reader tails one source's log file, following rotation/truncation the way
// a container runtime log driver does (reopen when the file shrinks).
type Reader struct {
	cfg      Config
	path     string
	sourceID string
	sink     Sink

	// dropLogger rate-limits the unparseable-line debug message below: a source
	// emitting a steady stream of garbage must not be able to flood
	// output the way an unbounded per-line log would.
	dropLogger log.Logger
}

// New returns a Reader that tails path and attributes every parsed record
// to sourceID.
func New(cfg Config, path, sourceID string, sink Sink) *Reader {
	return &Reader{
		cfg:        cfg,
		path:       path,
		sourceID:   sourceID,
		sink:       sink,
		dropLogger: utillog.NewRateLimitedLogger(1, utillog.Logger),
	}
}

// Run tails the file until ctx is cancelled, at which point it issues a
// ClearSource for its sourceID so the scheduler drops the now-gone pod's
// state. A failed open is retried silently on the next poll tick, and a
// read error is logged and the file reopened on the next tick, rather than
// treated as fatal, since a log file briefly disappearing during a pod
// restart is expected, not exceptional. Lines that fail to parse are
// dropped.
func (r *Reader) Run(ctx context.Context) error {
	defer r.sink.PushClearSource(r.sourceID)

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	var (
		f        *os.File
		offset   int64
		leftover []byte
		buf      = make([]byte, 64*1024)
	)
	defer func() {
		if f != nil {
			_ = f.Close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if f == nil {
			var err error
			f, err = os.Open(r.path)
			if err != nil {
				continue
			}
			offset, leftover = 0, nil
		}

		if fi, err := f.Stat(); err == nil && fi.Size() < offset {
			// Truncated or rotated out from under us; reopen from the start.
			_ = f.Close()
			f = nil
			continue
		}

		for {
			n, err := f.ReadAt(buf, offset)
			if n > 0 {
				offset += int64(n)
				leftover = r.consume(append(leftover, buf[:n]...))
			}
			if err != nil {
				if err != io.EOF {
					level.Warn(utillog.Logger).Log("msg", "error tailing source log", "source", r.sourceID, "err", err)
					_ = f.Close()
					f = nil
				}
				break
			}
		}
	}
}

// consume splits data on newlines, parsing and pushing every complete line,
// and returns whatever trailing bytes don't yet end in a newline so the
// next read can complete them.
func (r *Reader) consume(data []byte) []byte {
	for {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			return data
		}
		line := string(bytes.TrimRight(data[:idx], "\r"))
		data = data[idx+1:]

		if line == "" {
			continue
		}
		record, ok := parseLine(r.sourceID, line)
		if !ok {
			level.Debug(r.dropLogger).Log("msg", "dropping unparseable log line", "source", r.sourceID)
			continue
		}
		r.sink.PushAddRecord(record)
	}
}
