// Package extract recovers paper references from arXiv listing pages and
// (primary subject, abstract) pairs from abstract pages.
package extract

import (
    "regexp"
)

var (
    referencePattern = regexp.MustCompile(`/abs/(.*?)"`)
    labelPattern     = regexp.MustCompile(`<span class="primary-subject">(.*?)</span>`)
    // (?s): the abstract body spans several lines.
    abstractPattern = regexp.MustCompile(`(?s)<span class="descriptor">Abstract:</span>(.*?)</blockquote>`)
)

// Option configures an extractor at construction time.
type Option func(*options)

type options struct {
    encoding string
}

// WithEncoding overrides the text encoding used to decode captured spans.
// Any WHATWG encoding label is accepted ("utf-8", "latin1", "windows-1252", ...).
func WithEncoding(label string) Option {
    return func(o *options) { o.encoding = label }
}

func buildDecoder(opts []Option) (decoder, error) {
    o := options{encoding: DefaultEncoding}
    for _, fn := range opts {
        if fn != nil {
            fn(&o)
        }
    }
    return newDecoder(o.encoding)
}

// Extractor is the pattern-based extractor. It matches fixed markup spans
// directly on the page bytes. The zero value decodes UTF-8.
type Extractor struct {
    dec decoder
}

// New returns a pattern-based extractor.
func New(opts ...Option) (*Extractor, error) {
    dec, err := buildDecoder(opts)
    if err != nil {
        return nil, err
    }
    return &Extractor{dec: dec}, nil
}

// Encoding reports the canonical name of the configured encoding.
func (e *Extractor) Encoding() string {
    if e.dec.name == "" {
        return DefaultEncoding
    }
    return e.dec.name
}

// References returns the capture of every `/abs/<ref>"` occurrence in order.
// A span that fails to decode fails the whole call.
func (e *Extractor) References(page []byte) ([]PaperReference, error) {
    matches := referencePattern.FindAllSubmatch(page, -1)
    refs := make([]PaperReference, 0, len(matches))
    for _, m := range matches {
        s, err := e.dec.decode("reference", m[1])
        if err != nil {
            return nil, err
        }
        refs = append(refs, PaperReference(s))
    }
    return refs, nil
}

// Abstract returns the first primary-subject span and the first abstract
// block of the page. Later matches are ignored.
func (e *Extractor) Abstract(page []byte) (AbstractRecord, error) {
    label := labelPattern.FindSubmatch(page)
    if label == nil {
        return AbstractRecord{}, ErrLabelNotFound
    }
    body := abstractPattern.FindSubmatch(page)
    if body == nil {
        return AbstractRecord{}, ErrAbstractNotFound
    }
    l, err := e.dec.decode("label", label[1])
    if err != nil {
        return AbstractRecord{}, err
    }
    t, err := e.dec.decode("abstract", body[1])
    if err != nil {
        return AbstractRecord{}, err
    }
    return AbstractRecord{Label: l, Text: t}, nil
}
