package musicbrainz

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// caseFolder folds case for caseless comparison. Fold (not Lower) so
// that ß/ss, dotted/dotless I, and similar pairs compare equal.
var caseFolder = cases.Fold()

// FoldLabelName normalizes a label name for comparison: Unicode
// normalization form NFKC, case folding, and whitespace collapsing.
//
// The release editor's label autocomplete renders names that may differ
// from the seeded text only in case, composed/decomposed accents, or
// typographic spaces. Byte equality would reject matches a human would
// wave through instantly.
func FoldLabelName(name string) string {
	name = norm.NFKC.String(name)
	name = caseFolder.String(name)
	return strings.Join(strings.Fields(name), " ")
}

// LabelsMatch reports whether a seeded label name and an autocomplete
// result refer to the same label after normalization.
func LabelsMatch(seeded, candidate string) bool {
	s := FoldLabelName(seeded)
	if s == "" {
		// An empty seeded name can never be confirmed as a match.
		return false
	}
	return s == FoldLabelName(candidate)
}
