package extract

import (
    "errors"
    "fmt"
    "strings"
    "unicode/utf8"

    "golang.org/x/text/encoding"
    "golang.org/x/text/encoding/htmlindex"
)

// DefaultEncoding is the text encoding assumed for page bytes.
const DefaultEncoding = "utf-8"

var errInvalidUTF8 = errors.New("invalid utf-8 byte sequence")

// decoder turns captured byte spans into text. UTF-8 is decoded strictly:
// x/text would substitute U+FFFD, which would hide a bad page.
type decoder struct {
    name string
    enc  encoding.Encoding
}

func newDecoder(label string) (decoder, error) {
    label = strings.TrimSpace(label)
    if label == "" {
        label = DefaultEncoding
    }
    enc, err := htmlindex.Get(label)
    if err != nil {
        return decoder{}, fmt.Errorf("unknown encoding %q: %w", label, err)
    }
    name, err := htmlindex.Name(enc)
    if err != nil {
        name = strings.ToLower(label)
    }
    return decoder{name: name, enc: enc}, nil
}

func (d decoder) decode(field string, b []byte) (string, error) {
    // A zero decoder behaves as UTF-8.
    if d.enc == nil || d.name == DefaultEncoding {
        if !utf8.Valid(b) {
            return "", &DecodeError{Field: field, Encoding: DefaultEncoding, Err: errInvalidUTF8}
        }
        return string(b), nil
    }
    out, err := d.enc.NewDecoder().Bytes(b)
    if err != nil {
        return "", &DecodeError{Field: field, Encoding: d.name, Err: err}
    }
    return string(out), nil
}
