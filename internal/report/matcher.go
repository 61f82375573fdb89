package report

import (
	"iter"
	"strings"

	"github.com/nconklindev/jinreport/internal/types"

	"golang.org/x/text/cases"
)

// NameSeparator splits a template name cell into aliases.
const NameSeparator = "???"

// NameTokens splits a name field into trimmed, non-empty match tokens.
func NameTokens(field string) []string {
	var tokens []string
	for _, part := range strings.Split(field, NameSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			tokens = append(tokens, part)
		}
	}
	return tokens
}

// MatchRows yields the index of every row of t whose nameCol value contains
// at least one token, ignoring case. The sequence can be ranged over any
// number of times.
func MatchRows(tokens []string, t *types.SourceTable, nameCol int) iter.Seq[int] {
	folder := cases.Fold()
	folded := make([]string, len(tokens))
	for i, tok := range tokens {
		folded[i] = folder.String(tok)
	}

	return func(yield func(int) bool) {
		if len(folded) == 0 || nameCol < 0 {
			return
		}
		for i := range t.Rows {
			value := folder.String(t.Value(i, nameCol))
			if value == "" {
				continue
			}
			for _, tok := range folded {
				if strings.Contains(value, tok) {
					if !yield(i) {
						return
					}
					break
				}
			}
		}
	}
}
