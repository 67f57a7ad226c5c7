// Package queryparser splits a raw query string into positive tokens,
// negative tokens, and quoted phrases, per the Query Parser component.
// No teacher or pack file parses literal-substring queries (tempo's own
// query layer is the structured TraceQL language, a different domain), so
// this is built directly from spec.md §4.5's algorithm description.
package queryparser

import "strings"

// Query is the parsed result: Pos and Neg are ANDed/negated substrings to
// match against a record's canonical string; phrases are folded into Pos
// with their surrounding quotes stripped and internal spaces preserved.
type Query struct {
	Pos []string
	Neg []string
}

// Parse splits raw on spaces and classifies each token: a leading '!'
// (outside a phrase) marks Neg; a span opened by a token starting with '"'
// and closed by a token ending with '"' is a phrase, stripped of its
// quotes and added whole to Pos; everything else is Pos. Blanks are
// dropped. An unterminated phrase is discarded, not added to Pos. Case is
// preserved; lowercasing happens at match time (logrecord.Record.Contains).
func Parse(raw string) Query {
	fields := strings.Fields(raw)

	var q Query
	var phrase []string
	inPhrase := false

	flushPhrase := func() {
		if len(phrase) > 0 {
			q.Pos = append(q.Pos, strings.Join(phrase, " "))
		}
		phrase = nil
		inPhrase = false
	}

	for _, tok := range fields {
		if inPhrase {
			phrase = append(phrase, strings.TrimSuffix(tok, `"`))
			if strings.HasSuffix(tok, `"`) {
				flushPhrase()
			}
			continue
		}

		if strings.HasPrefix(tok, `"`) {
			rest := strings.TrimPrefix(tok, `"`)
			if strings.HasSuffix(rest, `"`) && len(rest) > 0 {
				// Single-token phrase: "word"
				if word := strings.TrimSuffix(rest, `"`); word != "" {
					q.Pos = append(q.Pos, word)
				}
				continue
			}
			inPhrase = true
			if rest != "" {
				phrase = append(phrase, rest)
			}
			continue
		}

		if strings.HasPrefix(tok, "!") {
			neg := strings.TrimPrefix(tok, "!")
			if neg != "" {
				q.Neg = append(q.Neg, neg)
			}
			continue
		}

		if tok != "" {
			q.Pos = append(q.Pos, tok)
		}
	}

	// An unterminated phrase (inPhrase still true at end of input) is left
	// dangling per spec.md §4.5: discard it, do not add to Pos.
	return q
}
