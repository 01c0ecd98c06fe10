package http

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/weftlabs/weft"
)

// Compile-time interface verification.
var _ weft.RobotsPolicy = (*RobotsPolicy)(nil)

// robotsCacheTTL bounds how long a host's parsed robots.txt is reused.
const robotsCacheTTL = time.Hour

// robotsRule is one Allow or Disallow line.
type robotsRule struct {
	path  string
	allow bool
}

// robotsGroup is the rule set for one user-agent token.
type robotsGroup struct {
	agent string
	rules []robotsRule
}

// robotsFile is one host's parsed policy.
type robotsFile struct {
	groups  []robotsGroup
	fetched time.Time
}

// RobotsPolicy fetches and caches per-host robots.txt files and answers
// fetch permission queries. A missing or unreadable robots.txt allows
// everything. Safe for concurrent use.
type RobotsPolicy struct {
	client *http.Client

	mu    sync.Mutex
	cache map[string]*robotsFile
}

// NewRobotsPolicy creates a policy using the given client, or the
// default client when nil.
func NewRobotsPolicy(client *http.Client) *RobotsPolicy {
	if client == nil {
		client = http.DefaultClient
	}
	return &RobotsPolicy{
		client: client,
		cache:  make(map[string]*robotsFile),
	}
}

// CanFetch reports whether the URL may be fetched by the given user
// agent under the host's robots.txt.
func (p *RobotsPolicy) CanFetch(ctx context.Context, rawURL string, userAgent string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false, weft.Errorf(weft.EINVALID, "invalid url %q", rawURL)
	}

	file, err := p.file(ctx, u)
	if err != nil {
		return false, err
	}
	if file == nil {
		return true, nil
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return file.allows(userAgent, path), nil
}

// file returns the host's cached policy, fetching it when missing or
// stale. A nil file means no policy applies.
func (p *RobotsPolicy) file(ctx context.Context, u *url.URL) (*robotsFile, error) {
	p.mu.Lock()
	cached, ok := p.cache[u.Host]
	p.mu.Unlock()
	if ok && time.Since(cached.fetched) < robotsCacheTTL {
		return cached, nil
	}

	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, weft.Errorf(weft.EINTERNAL, "robots request: %v", err)
	}

	file := &robotsFile{fetched: time.Now()}
	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Unreachable robots.txt allows everything for this TTL.
	} else {
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			file.groups = parseRobots(resp.Body)
		}
		// Non-200, including 404, allows everything.
	}

	p.mu.Lock()
	p.cache[u.Host] = file
	p.mu.Unlock()
	return file, nil
}

// allows applies the most specific matching rule from the best matching
// agent group. Longer paths are more specific; Allow wins ties.
func (f *robotsFile) allows(userAgent, path string) bool {
	group := f.groupFor(userAgent)
	if group == nil {
		return true
	}

	allowed := true
	bestLen := -1
	for _, rule := range group.rules {
		if rule.path == "" {
			// "Disallow:" with no path allows everything.
			continue
		}
		if !strings.HasPrefix(path, rule.path) {
			continue
		}
		n := len(rule.path)
		if n > bestLen || (n == bestLen && rule.allow) {
			bestLen = n
			allowed = rule.allow
		}
	}
	return allowed
}

// groupFor picks the group whose agent token is the longest substring
// of the user agent, falling back to the wildcard group.
func (f *robotsFile) groupFor(userAgent string) *robotsGroup {
	ua := strings.ToLower(userAgent)
	var wildcard *robotsGroup
	var best *robotsGroup
	bestLen := 0

	for i := range f.groups {
		g := &f.groups[i]
		if g.agent == "*" {
			if wildcard == nil {
				wildcard = g
			}
			continue
		}
		if strings.Contains(ua, g.agent) && len(g.agent) > bestLen {
			best, bestLen = g, len(g.agent)
		}
	}
	if best != nil {
		return best
	}
	return wildcard
}

// parseRobots scans robots.txt into agent groups. Consecutive
// user-agent lines share the rule set that follows them. Unknown
// directives are ignored.
func parseRobots(r io.Reader) []robotsGroup {
	var groups []robotsGroup
	var active []int
	sawRule := false

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.Index(line, "#"); idx != -1 {
			line = line[:idx]
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "user-agent":
			if sawRule {
				active = nil
				sawRule = false
			}
			groups = append(groups, robotsGroup{agent: strings.ToLower(value)})
			active = append(active, len(groups)-1)
		case "disallow", "allow":
			for _, i := range active {
				groups[i].rules = append(groups[i].rules, robotsRule{path: value, allow: key == "allow"})
			}
			sawRule = true
		}
	}
	return groups
}
