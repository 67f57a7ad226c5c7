package tokenindex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddAndSearchNewestFirst(t *testing.T) {
	idx := New[string]()
	idx.Add("rec1", "foo bar")
	idx.Add("rec2", "bar baz")
	idx.Add("rec3", "qux")

	got := idx.SearchMustInclude([][]string{{"bar"}}, nil)
	require.Equal(t, []string{"rec2", "rec1"}, got)
}

func TestSearchGroupsAreAndedTokensAreOred(t *testing.T) {
	idx := New[string]()
	idx.Add("rec1", "alpha beta")
	idx.Add("rec2", "alpha gamma")
	idx.Add("rec3", "beta gamma")

	// group1: alpha OR gamma; group2: beta -- AND of groups
	got := idx.SearchMustInclude([][]string{{"alpha", "gamma"}, {"beta"}}, nil)
	require.ElementsMatch(t, []string{"rec1", "rec3"}, got)
}

func TestSearchPredicateFilters(t *testing.T) {
	idx := New[int]()
	idx.Add(1, "hello")
	idx.Add(2, "hello")
	idx.Add(3, "hello")

	got := idx.SearchMustInclude([][]string{{"hello"}}, func(v int) bool { return v != 2 })
	require.Equal(t, []int{3, 1}, got)
}

func TestEmptyGroupsMatchesEverything(t *testing.T) {
	idx := New[string]()
	idx.Add("rec1", "foo")
	idx.Add("rec2", "bar")

	got := idx.SearchMustInclude(nil, nil)
	require.Equal(t, []string{"rec2", "rec1"}, got)
}

func TestEmptyTextContributesNoTokens(t *testing.T) {
	idx := New[string]()
	idx.Add("rec1", "")
	require.Equal(t, 1, idx.Size())
	require.Empty(t, idx.SearchMustInclude([][]string{{"anything"}}, nil))
}

func TestConvertToHigherRankMarksReadOnly(t *testing.T) {
	idx := New[string]()
	require.False(t, idx.RankPromoted())
	idx.ConvertToHigherRank()
	require.True(t, idx.RankPromoted())
}
