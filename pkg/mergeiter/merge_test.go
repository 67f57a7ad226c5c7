package mergeiter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type item struct {
	ts  int64
	seq uint64
}

func lessByTsThenSeqDesc(a, b item) bool {
	if a.ts != b.ts {
		return a.ts > b.ts
	}
	return a.seq > b.seq
}

func TestMergeOrdersDescendingAcrossStreams(t *testing.T) {
	s1 := NewSliceStream([]item{{ts: 3000, seq: 3}, {ts: 1000, seq: 1}})
	s2 := NewSliceStream([]item{{ts: 2000, seq: 2}})

	merged := Merge[item]([]Stream[item]{s1, s2}, lessByTsThenSeqDesc)
	got := Drain(merged)

	require.Equal(t, []item{
		{ts: 3000, seq: 3},
		{ts: 2000, seq: 2},
		{ts: 1000, seq: 1},
	}, got)
}

func TestMergeBreaksTiesOnSeqDescending(t *testing.T) {
	s1 := NewSliceStream([]item{{ts: 1000, seq: 5}})
	s2 := NewSliceStream([]item{{ts: 1000, seq: 9}})

	merged := Merge[item]([]Stream[item]{s1, s2}, lessByTsThenSeqDesc)
	got := Drain(merged)

	require.Equal(t, []item{{ts: 1000, seq: 9}, {ts: 1000, seq: 5}}, got)
}

func TestMergeHandlesEmptyStreams(t *testing.T) {
	s1 := NewSliceStream[item](nil)
	s2 := NewSliceStream([]item{{ts: 1000, seq: 1}})

	merged := Merge[item]([]Stream[item]{s1, s2}, lessByTsThenSeqDesc)
	got := Drain(merged)

	require.Equal(t, []item{{ts: 1000, seq: 1}}, got)
}

func TestMergeOfNoStreamsIsEmpty(t *testing.T) {
	merged := Merge[item](nil, lessByTsThenSeqDesc)
	require.Empty(t, Drain(merged))
}
