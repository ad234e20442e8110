package textnorm

import (
	"strings"
	"sync"

	"github.com/jdkato/prose/tokenize"
	"github.com/kljensen/snowball/english"
)

// TreebankTokenizer splits text into sentences with Punkt and each sentence
// into Penn Treebank word tokens. The Punkt model is loaded once per
// tokenizer; a zero value uses a shared default.
type TreebankTokenizer struct {
	sentences *tokenize.PunktSentenceTokenizer
	words     *tokenize.TreebankWordTokenizer
}

// NewTreebankTokenizer loads the Punkt model and the Treebank word rules.
func NewTreebankTokenizer() *TreebankTokenizer {
	return &TreebankTokenizer{
		sentences: tokenize.NewPunktSentenceTokenizer(),
		words:     tokenize.NewTreebankWordTokenizer(),
	}
}

var defaultTreebank = sync.OnceValue(NewTreebankTokenizer)

func (t *TreebankTokenizer) Tokenize(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if t == nil || t.sentences == nil || t.words == nil {
		t = defaultTreebank()
	}
	words := []string{}
	for _, s := range t.sentences.Tokenize(text) {
		words = append(words, t.words.Tokenize(s)...)
	}
	return words
}

// FieldsTokenizer splits on whitespace only. It is useful for text that is
// already tokenized.
type FieldsTokenizer struct{}

func (FieldsTokenizer) Tokenize(text string) []string { return strings.Fields(text) }

// PorterStemmer applies the English (Porter2) Snowball stemmer. Stop words
// are stemmed too and the result is lower case.
type PorterStemmer struct{}

func (PorterStemmer) Stem(token string) string {
	return english.Stem(token, true)
}

// IdentityStemmer returns tokens unchanged.
type IdentityStemmer struct{}

func (IdentityStemmer) Stem(token string) string { return token }
