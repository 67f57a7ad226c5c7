package queryparser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlainTokensArePositive(t *testing.T) {
	q := Parse("foo bar")
	require.Equal(t, []string{"foo", "bar"}, q.Pos)
	require.Empty(t, q.Neg)
}

func TestNegationToken(t *testing.T) {
	q := Parse("bar !baz")
	require.Equal(t, []string{"bar"}, q.Pos)
	require.Equal(t, []string{"baz"}, q.Neg)
}

func TestMultiWordPhrase(t *testing.T) {
	q := Parse(`"hello world"`)
	require.Equal(t, []string{"hello world"}, q.Pos)
}

func TestSingleWordPhrase(t *testing.T) {
	q := Parse(`"hello"`)
	require.Equal(t, []string{"hello"}, q.Pos)
}

func TestUnterminatedPhraseIsDiscarded(t *testing.T) {
	q := Parse(`foo "bar baz`)
	require.Equal(t, []string{"foo"}, q.Pos)
}

func TestBlankQueryIsEmpty(t *testing.T) {
	q := Parse("   ")
	require.Empty(t, q.Pos)
	require.Empty(t, q.Neg)
}

func TestCaseIsPreserved(t *testing.T) {
	q := Parse("FooBar")
	require.Equal(t, []string{"FooBar"}, q.Pos)
}
