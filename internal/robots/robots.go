// Package robots reads robots.txt so the scraper honours Disallow rules and
// Crawl-delay on arxiv.org.
package robots

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/arxivsubj/internal/fetch"
)

// Getter fetches a URL. *fetch.Client satisfies it.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
}

type Rules struct {
	Groups []Group
}

type Group struct {
	Agents     []string
	Allow      []rule
	Disallow   []rule
	CrawlDelay time.Duration
}

type rule struct {
	pattern string
	re      *regexp.Regexp
}

// Manager loads robots.txt once per host and answers Allowed queries.
type Manager struct {
	Getter    Getter
	UserAgent string

	mu    sync.Mutex
	hosts map[string]Rules
}

// Rules returns the parsed robots.txt for the host of pageURL. A 4xx answer
// means no restrictions.
func (m *Manager) Rules(ctx context.Context, pageURL string) (Rules, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return Rules{}, fmt.Errorf("parse url: %w", err)
	}
	origin := u.Scheme + "://" + u.Host
	m.mu.Lock()
	if r, ok := m.hosts[origin]; ok {
		m.mu.Unlock()
		return r, nil
	}
	m.mu.Unlock()

	body, _, err := m.Getter.Get(ctx, origin+"/robots.txt")
	var rules Rules
	if err != nil {
		var re *fetch.RetrievalError
		if !errors.As(err, &re) || re.Status < 400 || re.Status > 499 {
			return Rules{}, err
		}
		log.Debug().Str("host", u.Host).Int("status", re.Status).Msg("no robots.txt; allowing all")
	} else {
		rules = Parse(string(body))
	}
	m.mu.Lock()
	if m.hosts == nil {
		m.hosts = make(map[string]Rules)
	}
	m.hosts[origin] = rules
	m.mu.Unlock()
	return rules, nil
}

// Allowed reports whether pageURL may be fetched and the crawl delay that
// applies to it.
func (m *Manager) Allowed(ctx context.Context, pageURL string) (bool, time.Duration, error) {
	rules, err := m.Rules(ctx, pageURL)
	if err != nil {
		return false, 0, err
	}
	u, _ := url.Parse(pageURL)
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return rules.IsAllowed(m.UserAgent, path), rules.CrawlDelayFor(m.UserAgent), nil
}

// Parse reads robots.txt text. Unknown directives are ignored.
func Parse(text string) Rules {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var groups []Group
	current := Group{}
	hasRules := func() bool {
		return len(current.Allow) > 0 || len(current.Disallow) > 0 || current.CrawlDelay > 0
	}
	flush := func() {
		if len(current.Agents) == 0 && !hasRules() {
			return
		}
		groups = append(groups, current)
		current = Group{}
	}
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(line[:colon]))
		val := strings.TrimSpace(line[colon+1:])
		switch key {
		case "user-agent", "useragent":
			if len(current.Agents) > 0 && hasRules() {
				flush()
			}
			current.Agents = append(current.Agents, strings.ToLower(val))
		case "allow":
			if val != "" {
				current.Allow = append(current.Allow, compile(val))
			}
		case "disallow":
			if val != "" {
				current.Disallow = append(current.Disallow, compile(val))
			}
		case "crawl-delay", "crawldelay":
			if secs, err := strconv.ParseFloat(val, 64); err == nil && secs > 0 {
				current.CrawlDelay = time.Duration(secs * float64(time.Second))
			}
		}
	}
	flush()
	return Rules{Groups: groups}
}

// compile turns a robots pattern into an anchored regexp. '*' matches any
// run and a trailing '$' anchors the end.
func compile(pattern string) rule {
	p := pattern
	anchorEnd := strings.HasSuffix(p, "$")
	p = strings.TrimSuffix(p, "$")
	var b strings.Builder
	b.WriteString("^")
	for i, part := range strings.Split(p, "*") {
		if i > 0 {
			b.WriteString(".*")
		}
		b.WriteString(regexp.QuoteMeta(part))
	}
	if anchorEnd {
		b.WriteString("$")
	}
	return rule{pattern: pattern, re: regexp.MustCompile(b.String())}
}

func (r rule) specificity() int {
	return len(strings.ReplaceAll(strings.TrimSuffix(r.pattern, "$"), "*", ""))
}

// IsAllowed applies the longest matching directive of the best group for
// userAgent. Allow wins ties; no match means allowed.
func (r Rules) IsAllowed(userAgent, path string) bool {
	gi := r.selectGroup(userAgent)
	if gi < 0 {
		return true
	}
	g := r.Groups[gi]
	best, allow := -1, true
	for _, d := range g.Disallow {
		if s := d.specificity(); s > best && d.re.MatchString(path) {
			best, allow = s, false
		}
	}
	for _, a := range g.Allow {
		if s := a.specificity(); s >= best && a.re.MatchString(path) {
			best, allow = s, true
		}
	}
	return allow
}

// CrawlDelayFor returns the Crawl-delay of the group matching userAgent, or zero.
func (r Rules) CrawlDelayFor(userAgent string) time.Duration {
	gi := r.selectGroup(userAgent)
	if gi < 0 {
		return 0
	}
	return r.Groups[gi].CrawlDelay
}

// selectGroup prefers the longest agent token contained in userAgent over
// the '*' group. Ties keep the first group.
func (r Rules) selectGroup(userAgent string) int {
	ua := strings.ToLower(strings.TrimSpace(userAgent))
	bestIdx, bestScore := -1, -1
	for i, g := range r.Groups {
		for _, token := range g.Agents {
			score := -1
			switch {
			case token == "*":
				score = 0
			case token != "" && strings.Contains(ua, token):
				score = len(token)
			}
			if score > bestScore {
				bestScore, bestIdx = score, i
			}
		}
	}
	return bestIdx
}
