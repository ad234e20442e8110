package extract

import (
    "errors"
    "fmt"
)

var (
    // ErrLabelNotFound means the primary-subject span is missing from the page.
    ErrLabelNotFound = errors.New("primary subject not found")
    // ErrAbstractNotFound means the Abstract: descriptor block is missing.
    ErrAbstractNotFound = errors.New("abstract not found")
    // ErrDecode is matched by every DecodeError.
    ErrDecode = errors.New("decode failed")
)

// DecodeError reports a captured byte span that is not valid in the
// configured encoding.
type DecodeError struct {
    Field    string
    Encoding string
    Err      error
}

func (e *DecodeError) Error() string {
    if e.Err == nil {
        return fmt.Sprintf("decode %s as %s", e.Field, e.Encoding)
    }
    return fmt.Sprintf("decode %s as %s: %v", e.Field, e.Encoding, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrDecode) match any DecodeError.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }
