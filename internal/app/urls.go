package app

import (
	"fmt"
	"strings"

	"github.com/hyperifyio/arxivsubj/internal/extract"
)

// ListingURL is the "past week" listing of archive showing n entries.
func ListingURL(base, archive string, n int) string {
	return fmt.Sprintf("%s/list/%s/pastweek?skip=0&show=%d", strings.TrimRight(base, "/"), archive, n)
}

// AbstractURL is the abstract page of ref. The reference is appended
// verbatim, so identifiers with a slash such as math/0601001 keep it.
func AbstractURL(base string, ref extract.PaperReference) string {
	return strings.TrimRight(base, "/") + "/abs/" + string(ref) + "/"
}
