package library

import (
	"regexp"
	"strings"

	"github.com/menta2k/dermascan/pkg/types"
)

var (
	reSeparators = regexp.MustCompile(`[_-]`)
	reSpaces     = regexp.MustCompile(`\s+`)
)

// Normalize lowercases a name, turns '_' and '-' into spaces and collapses whitespace
func Normalize(name string) string {
	name = strings.ToLower(name)
	name = reSeparators.ReplaceAllString(name, " ")
	name = reSpaces.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// Match finds the catalog entry for a detected label. Candidates are tested in
// catalog order by name, then id, then synonyms; the first hit is returned,
// not the closest one.
func Match(label string) (*types.DiseaseInfo, bool) {
	detected := Normalize(label)
	if detected == "" {
		return nil, false
	}

	for i := range catalog {
		d := &catalog[i]
		if containsEither(Normalize(d.Name), detected) || containsEither(Normalize(d.ID), detected) {
			out := *d
			return &out, true
		}
		for _, alias := range synonyms[d.ID] {
			if containsEither(alias, detected) {
				out := *d
				return &out, true
			}
		}
	}
	return nil, false
}

func containsEither(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}
