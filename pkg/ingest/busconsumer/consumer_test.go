package busconsumer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

func TestExtractCorrelationDerivesCompositeID(t *testing.T) {
	correlationID, requestID, composite := extractCorrelation([]byte(`{"correlation.id":"c-1","request.id":"r-1","other":"x"}`))
	require.Equal(t, "c-1", correlationID)
	require.Equal(t, "r-1", requestID)
	require.NotEmpty(t, composite)
}

func TestExtractCorrelationNoIdentifiers(t *testing.T) {
	correlationID, requestID, composite := extractCorrelation([]byte(`{"message":"no ids here"}`))
	require.Empty(t, correlationID)
	require.Empty(t, requestID)
	require.Empty(t, composite)
}

func TestExtractCorrelationNonJSON(t *testing.T) {
	correlationID, requestID, composite := extractCorrelation([]byte(`not json`))
	require.Empty(t, correlationID)
	require.Empty(t, requestID)
	require.Empty(t, composite)
}

func TestToBusRecordCapturesTopicKeyHeaders(t *testing.T) {
	rec := &kgo.Record{
		Topic:     "events",
		Key:       []byte("k1"),
		Value:     []byte(`{"message":"hi"}`),
		Partition: 3,
		Offset:    42,
		Timestamp: time.UnixMilli(1000),
		Headers:   []kgo.RecordHeader{{Key: "trace", Value: []byte("abc")}},
	}

	r := toBusRecord(rec, "kafka")
	require.Equal(t, "events", r.Bus.Topic)
	require.Equal(t, "k1", r.Bus.Key)
	require.Equal(t, int32(3), r.Bus.Partition)
	require.Equal(t, int64(42), r.Bus.Offset)
	require.Equal(t, "abc", r.Bus.Headers["trace"])
	require.Equal(t, int64(1000), r.Timestamp)
}
