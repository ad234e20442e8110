package extract

import (
    "errors"
    "reflect"
    "strings"
    "testing"
)

const abstractPage = `<!DOCTYPE html>
<html>
<head><title>[1608.07084] On growth</title></head>
<body>
<div class="subheader"><h1>Mathematics &gt; Number Theory</h1></div>
<h1 class="title mathjax"><span class="descriptor">Title:</span> On growth</h1>
<blockquote class="abstract mathjax">
<span class="descriptor">Abstract:</span> Study of $x^2+y^2$ shows
<a href="http://ex.com">growth</a> happens.
</blockquote>
<table summary="Additional metadata">
<tr><td class="tablecell label">Subjects:</td>
<td class="tablecell subjects"><span class="primary-subject">Number Theory (math.NT)</span>; Combinatorics (math.CO)</td></tr>
</table>
</body>
</html>`

func TestReferences_DocumentOrder(t *testing.T) {
    e, err := New()
    if err != nil {
        t.Fatalf("new: %v", err)
    }
    page := []byte(`<a href="/abs/1608.07084">x</a><a href="/abs/1609.00001">y</a>`)
    refs, err := e.References(page)
    if err != nil {
        t.Fatalf("references: %v", err)
    }
    want := []PaperReference{"1608.07084", "1609.00001"}
    if !reflect.DeepEqual(refs, want) {
        t.Fatalf("got %v, want %v", refs, want)
    }
}

func TestReferences_KeepsDuplicates(t *testing.T) {
    e, _ := New()
    var b strings.Builder
    ids := []string{"1", "2", "1", "3", "1"}
    for _, id := range ids {
        b.WriteString(`<dt><a href="/abs/math/` + id + `" title="Abstract">arXiv:` + id + `</a></dt>`)
    }
    refs, err := e.References([]byte(b.String()))
    if err != nil {
        t.Fatalf("references: %v", err)
    }
    if len(refs) != len(ids) {
        t.Fatalf("expected %d refs, got %d: %v", len(ids), len(refs), refs)
    }
    for i, id := range ids {
        if string(refs[i]) != "math/"+id {
            t.Fatalf("ref %d = %q, want %q", i, refs[i], "math/"+id)
        }
    }
}

func TestReferences_NoMatchIsEmpty(t *testing.T) {
    e, _ := New()
    refs, err := e.References([]byte("<html><body>nothing here</body></html>"))
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if refs == nil || len(refs) != 0 {
        t.Fatalf("expected empty non-nil slice, got %#v", refs)
    }
}

func TestReferences_InvalidUTF8IsDecodeError(t *testing.T) {
    e, _ := New()
    page := []byte("<a href=\"/abs/ok\">a</a><a href=\"/abs/bad\xff\">b</a>")
    refs, err := e.References(page)
    if err == nil {
        t.Fatalf("expected decode error, got refs %v", refs)
    }
    if !errors.Is(err, ErrDecode) {
        t.Fatalf("expected ErrDecode, got %v", err)
    }
    var de *DecodeError
    if !errors.As(err, &de) || de.Field != "reference" {
        t.Fatalf("expected DecodeError for reference, got %#v", err)
    }
    if refs != nil {
        t.Fatalf("expected no partial result, got %v", refs)
    }
}

func TestAbstract_ExtractsFirstMatches(t *testing.T) {
    e, _ := New()
    rec, err := e.Abstract([]byte(abstractPage))
    if err != nil {
        t.Fatalf("abstract: %v", err)
    }
    if rec.Label != "Number Theory (math.NT)" {
        t.Fatalf("label=%q", rec.Label)
    }
    want := " Study of $x^2+y^2$ shows\n<a href=\"http://ex.com\">growth</a> happens.\n"
    if rec.Text != want {
        t.Fatalf("text=%q, want %q", rec.Text, want)
    }
}

func TestAbstract_FirstMatchWins(t *testing.T) {
    e, _ := New()
    page := `<span class="primary-subject">First (math.AG)</span>
<span class="primary-subject">Second (math.CO)</span>
<span class="descriptor">Abstract:</span>one</blockquote>
<span class="descriptor">Abstract:</span>two</blockquote>`
    rec, err := e.Abstract([]byte(page))
    if err != nil {
        t.Fatalf("abstract: %v", err)
    }
    if rec.Label != "First (math.AG)" || rec.Text != "one" {
        t.Fatalf("expected first matches, got %+v", rec)
    }
}

func TestAbstract_MissingLabel(t *testing.T) {
    e, _ := New()
    page := strings.Replace(abstractPage, `<span class="primary-subject">Number Theory (math.NT)</span>`, "Number Theory (math.NT)", 1)
    rec, err := e.Abstract([]byte(page))
    if !errors.Is(err, ErrLabelNotFound) {
        t.Fatalf("expected ErrLabelNotFound, got %v", err)
    }
    if rec != (AbstractRecord{}) {
        t.Fatalf("expected zero record, got %+v", rec)
    }
}

func TestAbstract_MissingAbstractEvenWithLabel(t *testing.T) {
    e, _ := New()
    page := strings.Replace(abstractPage, "</blockquote>", "</div>", 1)
    rec, err := e.Abstract([]byte(page))
    if !errors.Is(err, ErrAbstractNotFound) {
        t.Fatalf("expected ErrAbstractNotFound, got %v", err)
    }
    if rec != (AbstractRecord{}) {
        t.Fatalf("expected zero record, got %+v", rec)
    }
}

func TestAbstract_InvalidUTF8InBody(t *testing.T) {
    e, _ := New()
    page := "<span class=\"primary-subject\">Topology (math.GT)</span><span class=\"descriptor\">Abstract:</span> caf\xe9</blockquote>"
    _, err := e.Abstract([]byte(page))
    var de *DecodeError
    if !errors.As(err, &de) {
        t.Fatalf("expected DecodeError, got %v", err)
    }
    if de.Field != "abstract" || de.Encoding != "utf-8" {
        t.Fatalf("unexpected decode error fields: %+v", de)
    }
}

func TestAbstract_Latin1Override(t *testing.T) {
    e, err := New(WithEncoding("latin1"))
    if err != nil {
        t.Fatalf("new: %v", err)
    }
    page := "<span class=\"primary-subject\">Topology (math.GT)</span><span class=\"descriptor\">Abstract:</span> caf\xe9</blockquote>"
    rec, err := e.Abstract([]byte(page))
    if err != nil {
        t.Fatalf("abstract: %v", err)
    }
    if rec.Text != " café" {
        t.Fatalf("text=%q, want %q", rec.Text, " café")
    }
    if e.Encoding() != "windows-1252" {
        t.Fatalf("encoding=%q, want windows-1252", e.Encoding())
    }
}

func TestNew_UnknownEncoding(t *testing.T) {
    if _, err := New(WithEncoding("no-such-charset")); err == nil {
        t.Fatalf("expected error for unknown encoding")
    }
}

func TestZeroValueExtractorDecodesUTF8(t *testing.T) {
    var e Extractor
    refs, err := e.References([]byte(`<a href="/abs/2101.00001">a</a>`))
    if err != nil || len(refs) != 1 || refs[0] != "2101.00001" {
        t.Fatalf("refs=%v err=%v", refs, err)
    }
    if e.Encoding() != DefaultEncoding {
        t.Fatalf("encoding=%q", e.Encoding())
    }
}
