package extract

import (
    "fmt"
    "strings"
)

// PaperReference is the opaque identifier that follows /abs/ in a listing
// page link, e.g. "1608.07084". It is only used to build the abstract URL.
type PaperReference string

// AbstractRecord is a complete (label, abstract) pair recovered from one
// abstract page. Extractors return either a full record or an error; a record
// with one field missing is never produced.
type AbstractRecord struct {
    Label string
    Text  string
}

// PageExtractor defines the extraction contract shared by the pattern-based
// and DOM-based strategies so callers can swap one for the other.
type PageExtractor interface {
    // References returns every paper reference on a listing page in document
    // order, duplicates included. No match yields an empty slice.
    References(page []byte) ([]PaperReference, error)
    // Abstract returns the primary subject and raw abstract body of an
    // abstract page, or ErrLabelNotFound / ErrAbstractNotFound / a DecodeError.
    Abstract(page []byte) (AbstractRecord, error)
}

var (
    _ PageExtractor = (*Extractor)(nil)
    _ PageExtractor = (*DOMExtractor)(nil)
)

// ForKind returns the extractor registered under kind: "regex" (default)
// or "dom".
func ForKind(kind string, opts ...Option) (PageExtractor, error) {
    switch strings.ToLower(strings.TrimSpace(kind)) {
    case "", "regex":
        e, err := New(opts...)
        if err != nil {
            return nil, err
        }
        return e, nil
    case "dom":
        e, err := NewDOM(opts...)
        if err != nil {
            return nil, err
        }
        return e, nil
    default:
        return nil, fmt.Errorf("unknown extractor %q", kind)
    }
}
