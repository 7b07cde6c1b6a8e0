// Package search is a small, deterministic, dependency-free in-memory index
// over short documents (movie titles and synopses). The index is immutable
// once built, so concurrent reads need no locking, and ranking is fully
// deterministic: equal scores break on shorter text, then lexicographic ID.
//
// Scoring is Jaccard similarity between the query token set and each
// document's token set: |Q ∩ D| / |Q ∪ D|.
package search

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Document is one searchable item: an opaque ID plus the text to match on.
type Document struct {
	ID   string
	Text string
}

// Result pairs a document ID with its similarity score.
type Result struct {
	ID    string
	Score float64
}

// Index answers ranked queries over a fixed document set.
type Index interface {
	TopK(query string, k int) []Result
}

const defaultK = 10

// Option adjusts index construction.
type Option func(*settings)

type settings struct {
	stopwords map[string]struct{}
	maxDocs   int
}

// WithStopwords drops the given words from documents and queries before
// scoring. Case-insensitive.
func WithStopwords(words []string) Option {
	return func(s *settings) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			s.stopwords = m
		}
	}
}

// WithMaxDocs caps how many documents are indexed; the rest are silently
// dropped. Zero means no cap.
func WithMaxDocs(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxDocs = n
		}
	}
}

type entry struct {
	id     string
	tokens map[string]struct{}
	size   int // len(tokens), cached for the union term
	runes  int // text length in runes, first tie-breaker
}

type index struct {
	opts settings
	docs []entry
}

// NewIndex builds an Index over documents. Entries whose text yields no
// tokens (empty or punctuation-only) are skipped.
func NewIndex(documents []Document, opts ...Option) Index {
	var s settings
	for _, o := range opts {
		o(&s)
	}

	idx := &index{opts: s}
	for _, d := range documents {
		text := strings.TrimSpace(normalizeWhitespace(d.Text))
		toks := tokenize(text, s.stopwords)
		if len(toks) == 0 {
			continue
		}
		idx.docs = append(idx.docs, entry{
			id:     d.ID,
			tokens: toks,
			size:   len(toks),
			runes:  utf8.RuneCountInString(text),
		})
		if s.maxDocs > 0 && len(idx.docs) >= s.maxDocs {
			break
		}
	}
	return idx
}

// TopK returns up to k documents overlapping the query, best first. Blank
// or token-free queries return nil, never an error.
func (i *index) TopK(query string, k int) []Result {
	qTokens := tokenize(query, i.opts.stopwords)
	if len(qTokens) == 0 || len(i.docs) == 0 {
		return nil
	}
	if k <= 0 {
		k = defaultK
	}

	candidates := make([]entry, 0, len(i.docs))
	scores := make(map[string]float64, len(i.docs))
	for _, d := range i.docs {
		inter := intersection(qTokens, d.tokens)
		if inter == 0 {
			continue
		}
		union := len(qTokens) + d.size - inter
		candidates = append(candidates, d)
		scores[d.id] = float64(inter) / float64(union)
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		ca, cb := candidates[a], candidates[b]
		if scores[ca.id] != scores[cb.id] {
			return scores[ca.id] > scores[cb.id]
		}
		if ca.runes != cb.runes {
			return ca.runes < cb.runes
		}
		return ca.id < cb.id
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	out := make([]Result, k)
	for n := 0; n < k; n++ {
		out[n] = Result{ID: candidates[n].id, Score: scores[candidates[n].id]}
	}
	return out
}

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

// tokenize lowercases s and extracts its word set, minus stopwords.
func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(strings.ToLower(s), -1)
	if len(words) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, skip := stop[w]; skip {
			continue
		}
		set[w] = struct{}{}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}

func intersection(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

// normalizeWhitespace collapses runs of spaces, tabs and newlines into a
// single space.
func normalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\r', '\n':
			if !inSpace {
				b.WriteByte(' ')
				inSpace = true
			}
		default:
			inSpace = false
			b.WriteRune(r)
		}
	}
	return b.String()
}
