// Package textnorm turns raw abstract markup into whitespace-separated stemmed
// tokens ready for vectorization.
package textnorm

import (
	"regexp"
	"strings"
)

const (
	// DefaultMathPlaceholder replaces each inline $...$ span.
	DefaultMathPlaceholder = "mathmod"
	// DefaultLinkPlaceholder replaces each <a href="...">...</a> element.
	DefaultLinkPlaceholder = "http"
)

var (
	whitespaceRun = regexp.MustCompile(`[\s\v\p{Z}\x{85}]+`)
	inlineMath    = regexp.MustCompile(`\$.*?\$`)
	anchor        = regexp.MustCompile(`<a href=".*?">.*?</a>`)
)

// Tokenizer splits text into word tokens.
type Tokenizer interface {
	Tokenize(text string) []string
}

// Stemmer reduces one token to its stem.
type Stemmer interface {
	Stem(token string) string
}

// Normalizer applies, in order: whitespace collapsing, math masking, link
// masking, word tokenization, stemming and rejoining. The zero value uses the
// default placeholders, the Treebank tokenizer and the English stemmer.
type Normalizer struct {
	MathPlaceholder string
	LinkPlaceholder string
	Tokenizer       Tokenizer
	Stemmer         Stemmer
}

// New returns a Normalizer with default settings.
func New() *Normalizer {
	return &Normalizer{
		MathPlaceholder: DefaultMathPlaceholder,
		LinkPlaceholder: DefaultLinkPlaceholder,
		Tokenizer:       defaultTreebank(),
		Stemmer:         PorterStemmer{},
	}
}

func (n *Normalizer) mathToken() string {
	if n == nil || n.MathPlaceholder == "" {
		return DefaultMathPlaceholder
	}
	return n.MathPlaceholder
}

func (n *Normalizer) linkToken() string {
	if n == nil || n.LinkPlaceholder == "" {
		return DefaultLinkPlaceholder
	}
	return n.LinkPlaceholder
}

func (n *Normalizer) tokenizer() Tokenizer {
	if n == nil || n.Tokenizer == nil {
		return defaultTreebank()
	}
	return n.Tokenizer
}

func (n *Normalizer) stemmer() Stemmer {
	if n == nil || n.Stemmer == nil {
		return PorterStemmer{}
	}
	return n.Stemmer
}

// Mask runs the three rewriting steps that precede tokenization.
func (n *Normalizer) Mask(text string) string {
	s := CollapseWhitespace(text)
	s = inlineMath.ReplaceAllLiteralString(s, n.mathToken())
	s = anchor.ReplaceAllLiteralString(s, n.linkToken())
	return s
}

// Normalize returns the stemmed tokens of text joined by single spaces, each
// followed by a space.
func (n *Normalizer) Normalize(text string) string {
	tokens := n.tokenizer().Tokenize(n.Mask(text))
	st := n.stemmer()
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(st.Stem(tok))
		b.WriteByte(' ')
	}
	return b.String()
}

// NormalizeAll normalizes a batch. Output index i depends only on input i.
func (n *Normalizer) NormalizeAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = n.Normalize(t)
	}
	return out
}

// CollapseWhitespace replaces each maximal whitespace run with one space.
func CollapseWhitespace(s string) string {
	return whitespaceRun.ReplaceAllLiteralString(s, " ")
}
