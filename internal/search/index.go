// Package search provides a deterministic, concurrency-safe in-memory index
// over a Markdown strategy playbook. Paragraphs are grouped under their
// nearest heading so results can say where a snippet came from.
//
// The library does no logging. The index is read-only after construction.
//
// Scoring is Jaccard similarity between the query token set and a
// paragraph's token set (which includes its heading's tokens):
// score = |Q ∩ P| / |Q ∪ P|.
package search

import (
	"bytes"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Result is a ranked snippet with its similarity score.
type Result struct {
	Section string
	Snippet string
	Score   float64
}

// Index is implemented by all search indices.
type Index interface {
	TopK(query string, k int) []Result
}

// Option customises index construction.
type Option func(*config)

type config struct {
	minParagraphRunes int
	stopwords         map[string]struct{}
	maxDocs           int
}

func defaultConfig() config {
	return config{minParagraphRunes: 30, stopwords: defaultStopwords}
}

// WithMinParagraphRunes drops paragraphs shorter than n runes.
func WithMinParagraphRunes(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.minParagraphRunes = n
		}
	}
}

// WithStopwords replaces the built-in English stop-word list. An empty list
// disables stop-word removal.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
				m[w] = struct{}{}
			}
		}
		c.stopwords = m
	}
}

// WithMaxDocs caps the number of indexed paragraphs.
func WithMaxDocs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDocs = n
		}
	}
}

type doc struct {
	section string
	text    string
	tokens  map[string]struct{}
}

type index struct {
	cfg  config
	docs []doc
}

// Section is a heading and the paragraphs beneath it.
type Section struct {
	Title      string
	Paragraphs []string
}

// NewIndexFromMarkdown reads, prepares and indexes the playbook at path.
func NewIndexFromMarkdown(path string, opts ...Option) (Index, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return &index{cfg: defaultConfig()}, err
	}
	return NewIndexFromReader(bytes.NewReader(b), opts...)
}

// NewIndexFromReader indexes Markdown read from r.
func NewIndexFromReader(r io.Reader, opts ...Option) (Index, error) {
	all, err := io.ReadAll(r)
	if err != nil {
		return &index{cfg: buildConfig(opts)}, err
	}
	return NewIndexFromSections(Sections(Prepare(all)), opts...), nil
}

// NewIndexFromStrings indexes bare paragraphs with no section titles.
func NewIndexFromStrings(paragraphs []string, opts ...Option) Index {
	return NewIndexFromSections([]Section{{Paragraphs: paragraphs}}, opts...)
}

// NewIndexFromSections indexes pre-split sections.
func NewIndexFromSections(sections []Section, opts ...Option) Index {
	cfg := buildConfig(opts)
	ix := &index{cfg: cfg}
	for _, s := range sections {
		headTokens := tokenize(s.Title, cfg.stopwords)
		for _, raw := range s.Paragraphs {
			t := strings.TrimSpace(normalizeWhitespace(raw))
			if t == "" || utf8.RuneCountInString(t) < cfg.minParagraphRunes {
				continue
			}
			toks := tokenize(t, cfg.stopwords)
			for k := range headTokens {
				if toks == nil {
					toks = map[string]struct{}{}
				}
				toks[k] = struct{}{}
			}
			if len(toks) == 0 {
				continue
			}
			ix.docs = append(ix.docs, doc{section: s.Title, text: t, tokens: toks})
			if cfg.maxDocs > 0 && len(ix.docs) >= cfg.maxDocs {
				return ix
			}
		}
	}
	return ix
}

func buildConfig(opts []Option) config {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// TopK returns up to k best-matching paragraphs (k<=0 means 3). Ties go to
// the shorter snippet, then lexical order.
func (ix *index) TopK(q string, k int) []Result {
	if len(ix.docs) == 0 || strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = 3
	}
	qt := tokenize(q, ix.cfg.stopwords)
	if len(qt) == 0 {
		return nil
	}

	var out []Result
	for _, d := range ix.docs {
		over := overlap(qt, d.tokens)
		if over == 0 {
			continue
		}
		union := len(qt) + len(d.tokens) - over
		out = append(out, Result{Section: d.section, Snippet: d.text, Score: float64(over) / float64(union)})
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		la, lb := utf8.RuneCountInString(out[a].Snippet), utf8.RuneCountInString(out[b].Snippet)
		if la != lb {
			return la < lb
		}
		return out[a].Snippet < out[b].Snippet
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*|\p{N}+`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(strings.ToLower(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, skip := stop[w]; skip {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
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

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var defaultStopwords = func() map[string]struct{} {
	m := map[string]struct{}{}
	for _, w := range strings.Fields(`a an and are as at be by can do for from give how i in is it me
		my of on or our should the to we what when which with you your`) {
		m[w] = struct{}{}
	}
	return m
}()
