package extract

import (
    "bytes"
    "strings"

    "github.com/PuerkitoBio/goquery"
    "golang.org/x/net/html"
)

// DOMExtractor parses the page into a node tree instead of matching raw
// bytes. It follows the same contract as Extractor. The whole page is decoded
// up front, so a page with any invalid byte fails with a DecodeError.
type DOMExtractor struct {
    dec decoder
}

// NewDOM returns a parser-based extractor.
func NewDOM(opts ...Option) (*DOMExtractor, error) {
    dec, err := buildDecoder(opts)
    if err != nil {
        return nil, err
    }
    return &DOMExtractor{dec: dec}, nil
}

// References walks every <a> element and keeps the part of href after /abs/.
func (d *DOMExtractor) References(page []byte) ([]PaperReference, error) {
    text, err := d.dec.decode("page", page)
    if err != nil {
        return nil, err
    }
    root, err := html.Parse(strings.NewReader(text))
    if err != nil {
        return nil, err
    }
    refs := make([]PaperReference, 0, 64)
    var walk func(*html.Node)
    walk = func(n *html.Node) {
        if n.Type == html.ElementNode && strings.EqualFold(n.Data, "a") {
            if href, ok := attr(n, "href"); ok {
                if i := strings.Index(href, "/abs/"); i >= 0 {
                    if ref := href[i+len("/abs/"):]; ref != "" {
                        refs = append(refs, PaperReference(ref))
                    }
                }
            }
        }
        for c := n.FirstChild; c != nil; c = c.NextSibling {
            walk(c)
        }
    }
    walk(root)
    return refs, nil
}

// Abstract reads span.primary-subject and the blockquote holding the
// "Abstract:" descriptor. The body keeps its inner markup so math and
// anchors are still there for normalization.
func (d *DOMExtractor) Abstract(page []byte) (AbstractRecord, error) {
    text, err := d.dec.decode("page", page)
    if err != nil {
        return AbstractRecord{}, err
    }
    doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(text)))
    if err != nil {
        return AbstractRecord{}, err
    }
    label := doc.Find("span.primary-subject").First()
    if label.Length() == 0 {
        return AbstractRecord{}, ErrLabelNotFound
    }
    descriptor := doc.Find("blockquote span.descriptor").FilterFunction(func(_ int, s *goquery.Selection) bool {
        return strings.TrimSpace(s.Text()) == "Abstract:"
    }).First()
    if descriptor.Length() == 0 {
        return AbstractRecord{}, ErrAbstractNotFound
    }
    block := descriptor.Closest("blockquote")
    descriptor.Remove()
    body, err := block.Html()
    if err != nil {
        return AbstractRecord{}, err
    }
    return AbstractRecord{Label: label.Text(), Text: body}, nil
}

func attr(n *html.Node, key string) (string, bool) {
    for _, a := range n.Attr {
        if strings.EqualFold(a.Key, key) {
            return a.Val, true
        }
    }
    return "", false
}
