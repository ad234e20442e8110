package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/arxivsubj/internal/fetch"
	"github.com/hyperifyio/arxivsubj/internal/robots"
)

// ErrDisallowed marks a page that robots.txt forbids fetching.
var ErrDisallowed = errors.New("disallowed by robots.txt")

// PageSource returns the raw bytes of a listing or abstract page.
type PageSource interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// HTTPSource fetches pages over the network, consulting robots.txt first
// when Robots is set. A Crawl-delay raises the client's request spacing.
type HTTPSource struct {
	Client *fetch.Client
	Robots *robots.Manager
}

func (s *HTTPSource) Get(ctx context.Context, pageURL string) ([]byte, error) {
	if s.Robots != nil {
		ok, delay, err := s.Robots.Allowed(ctx, pageURL)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("url", pageURL).Msg("robots.txt unavailable; proceeding")
		case !ok:
			return nil, fmt.Errorf("%s: %w", pageURL, ErrDisallowed)
		case delay > 0:
			s.Client.SetMinInterval(delay)
		}
	}
	body, _, err := s.Client.Get(ctx, pageURL)
	return body, err
}

// FileSource serves saved HTML pages from disk. The listing URL maps to
// ListingFile and abstract URLs map to AbstractDir/<ref>.html, with '/' in
// old-style references replaced by '_'. Anything else goes to Fallback.
type FileSource struct {
	ListingFile string
	AbstractDir string
	Fallback    PageSource
}

func (s *FileSource) Get(ctx context.Context, pageURL string) ([]byte, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, &fetch.RetrievalError{URL: pageURL, Err: err}
	}
	switch {
	case s.ListingFile != "" && strings.HasPrefix(u.Path, "/list/"):
		return readPage(s.ListingFile)
	case s.AbstractDir != "" && strings.HasPrefix(u.Path, "/abs/"):
		ref := strings.TrimSuffix(strings.TrimPrefix(u.Path, "/abs/"), "/")
		return readPage(filepath.Join(s.AbstractDir, AbstractFileName(ref)))
	}
	if s.Fallback == nil {
		return nil, &fetch.RetrievalError{URL: pageURL, Err: errors.New("no local page and no network source")}
	}
	return s.Fallback.Get(ctx, pageURL)
}

// AbstractFileName is the file a saved abstract page for ref is read from.
func AbstractFileName(ref string) string {
	return strings.ReplaceAll(ref, "/", "_") + ".html"
}

func readPage(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &fetch.RetrievalError{URL: path, Err: err}
	}
	return b, nil
}
