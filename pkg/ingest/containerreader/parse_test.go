package containerreader

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grafana/nexlog/pkg/logrecord"
)

func TestParseFlatJSON(t *testing.T) {
	line := `2026-08-01T10:00:00Z {"@timestamp":"2026-08-01T10:00:00Z","log.level":"warn","log.logger":"auth","process.thread.name":"worker-1","service.name":"authsvc","service.version":"1.2.3","message":"token expired","correlation.id":"c-1","request.id":"r-1"}`
	r, ok := parseLine("pod-a", line)
	require.True(t, ok)
	require.Equal(t, logrecord.LevelWarn, r.Level)
	require.Equal(t, "token expired", r.Message)
	require.Equal(t, "auth", r.Log.Logger)
	require.Equal(t, "authsvc", r.Log.ServiceName)
	require.Equal(t, "c-1", r.Log.CorrelationID)
}

func TestParseNestedJSON(t *testing.T) {
	line := `2026-08-01T10:00:00Z {"@timestamp":"2026-08-01T10:00:00Z","log":{"level":"error","logger":"db"},"process":{"thread":{"name":"worker-2"}},"service":{"name":"dbsvc","version":"4.0"},"message":"connection refused","error":{"message":"dial tcp","stack_trace":"at x.go:1"}}`
	r, ok := parseLine("pod-a", line)
	require.True(t, ok)
	require.Equal(t, logrecord.LevelError, r.Level)
	require.Equal(t, "db", r.Log.Logger)
	require.Equal(t, "dial tcp", r.Log.ErrorMessage)
	require.Equal(t, "at x.go:1", r.Log.Stacktrace)
}

func TestParseNonJSONFallsBackToUnknown(t *testing.T) {
	line := `2026-08-01T10:00:00Z plain text log line, not json`
	r, ok := parseLine("pod-a", line)
	require.True(t, ok)
	require.Equal(t, logrecord.LevelUnknown, r.Level)
	require.Equal(t, "plain text log line, not json", r.Message)
}

func TestParseUnparseableTimestampIsDropped(t *testing.T) {
	_, ok := parseLine("pod-a", "not-a-timestamp some payload")
	require.False(t, ok)
}
