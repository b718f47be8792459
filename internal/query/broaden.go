// Package query relaxes a marketplace search phrase into progressively
// broader variants so thin markets still return comparable listings.
package query

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Tier confidences.
const (
	ConfidenceExact      = 1.0
	ConfidenceSimplified = 0.85
	ConfidenceCore       = 0.70
)

// Minimum lengths (in characters) a broadened query must exceed to be kept.
const (
	minTier2Length = 5
	minTier3Length = 3
)

// Variant is one search phrase in the relaxation ladder.
type Variant struct {
	Query         string   `json:"query"`
	Tier          int      `json:"tier"`
	Confidence    float64  `json:"confidence"`
	StrippedTerms []string `json:"stripped_terms"`
}

type phrase struct {
	words []string
	text  string
}

var (
	tier2Phrases = compilePhrases(conditionTerms, colorTerms, subjectiveTerms)
	tier3Phrases = compilePhrases(materialTerms)
)

// compilePhrases folds every phrase and orders them longest first so
// "rose gold" is consumed before "gold".
func compilePhrases(lists ...[]string) []phrase {
	seen := make(map[string]bool)
	var out []phrase
	for _, list := range lists {
		for _, p := range list {
			text := fold(strings.TrimSpace(p))
			if text == "" || seen[text] {
				continue
			}
			seen[text] = true
			out = append(out, phrase{words: strings.Fields(text), text: text})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i].words) != len(out[j].words) {
			return len(out[i].words) > len(out[j].words)
		}
		return len(out[i].text) > len(out[j].text)
	})
	return out
}

// Broaden returns the relaxation ladder for a search phrase. Tier 1 is the
// original query; tiers 2 and 3 appear only when they actually differ and
// keep enough text to be searchable.
func Broaden(original string) []Variant {
	original = strings.Join(strings.Fields(original), " ")
	variants := []Variant{{
		Query:         original,
		Tier:          1,
		Confidence:    ConfidenceExact,
		StrippedTerms: []string{},
	}}
	if original == "" {
		return variants
	}

	tier2, stripped2 := stripPhrases(original, tier2Phrases)
	if tier2 != original && utf8.RuneCountInString(tier2) > minTier2Length {
		variants = append(variants, Variant{
			Query:         tier2,
			Tier:          2,
			Confidence:    ConfidenceSimplified,
			StrippedTerms: nonNil(stripped2),
		})
	}

	tier3, stripped3 := stripPhrases(tier2, tier3Phrases)
	tier3, patternHits := stripPatterns(tier3)
	stripped3 = append(append(append([]string{}, stripped2...), stripped3...), patternHits...)
	last := variants[len(variants)-1].Query
	if tier3 != tier2 && tier3 != last && utf8.RuneCountInString(tier3) > minTier3Length {
		variants = append(variants, Variant{
			Query:         tier3,
			Tier:          3,
			Confidence:    ConfidenceCore,
			StrippedTerms: stripped3,
		})
	}

	return variants
}

// stripPhrases removes whole-word, case-insensitive matches of the given
// phrases. Tokens keep their original spelling in the output.
func stripPhrases(q string, phrases []phrase) (string, []string) {
	tokens := strings.Fields(q)
	keys := make([]string, len(tokens))
	for i, tok := range tokens {
		keys[i] = fold(trimPunct(tok))
	}

	removed := make([]bool, len(tokens))
	var stripped []string
	for _, p := range phrases {
		n := len(p.words)
		hit := false
		for i := 0; i+n <= len(tokens); i++ {
			if !matchAt(keys, removed, i, p.words) {
				continue
			}
			for j := i; j < i+n; j++ {
				removed[j] = true
			}
			hit = true
		}
		if hit {
			stripped = append(stripped, p.text)
		}
	}

	var kept []string
	for i, tok := range tokens {
		if removed[i] || trimPunct(tok) == "" {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " "), stripped
}

func matchAt(keys []string, removed []bool, at int, words []string) bool {
	for j, w := range words {
		if removed[at+j] || keys[at+j] != w {
			return false
		}
	}
	return true
}

// stripPatterns removes size, dimension and count expressions.
func stripPatterns(q string) (string, []string) {
	var hits []string
	for _, re := range sizePatterns {
		for _, m := range re.FindAllString(q, -1) {
			hits = append(hits, fold(strings.TrimSpace(m)))
		}
		q = re.ReplaceAllString(q, " ")
	}
	var kept []string
	for _, tok := range strings.Fields(q) {
		if trimPunct(tok) != "" {
			kept = append(kept, tok)
		}
	}
	return strings.Join(kept, " "), hits
}

// fold case-folds s. Casers carry state, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func trimPunct(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '@'
	})
}
