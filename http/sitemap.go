package http

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/weftlabs/weft"
)

// Compile-time interface verification.
var _ weft.SitemapService = (*SitemapService)(nil)

// maxSitemapDepth bounds sitemap-index recursion.
const maxSitemapDepth = 5

// SitemapService discovers page URLs from a site's sitemaps over HTTP.
// Sitemap locations come from robots.txt Sitemap directives, falling
// back to /sitemap.xml.
type SitemapService struct {
	client *http.Client
}

// NewSitemapService creates a SitemapService with the given HTTP
// client, or the default client when nil.
func NewSitemapService(client *http.Client) *SitemapService {
	if client == nil {
		client = http.DefaultClient
	}
	return &SitemapService{client: client}
}

// DiscoverURLs finds all page URLs reachable from the site's sitemaps.
// When baseURL carries a non-root path, only URLs under that path are
// returned. A site without sitemaps yields an empty slice, not an
// error.
func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, weft.Errorf(weft.EINVALID, "invalid base url %q", baseURL)
	}

	pathPrefix := base.Path
	if pathPrefix == "/" {
		pathPrefix = ""
	}

	root := *base
	root.Path = ""
	sitemapURLs, err := s.findSitemapURLs(ctx, &root)
	if err != nil {
		return nil, err
	}
	if len(sitemapURLs) == 0 {
		return []string{}, nil
	}

	seenSitemaps := map[string]bool{}
	seenURLs := map[string]bool{}
	var out []string
	for _, sitemapURL := range sitemapURLs {
		urls, err := s.readSitemap(ctx, sitemapURL, seenSitemaps, 0)
		if err != nil {
			return nil, err
		}
		for _, u := range urls {
			if !seenURLs[u] && underPathPrefix(u, pathPrefix) {
				seenURLs[u] = true
				out = append(out, u)
			}
		}
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// findSitemapURLs reads robots.txt Sitemap directives, falling back to
// /sitemap.xml when none are declared.
func (s *SitemapService) findSitemapURLs(ctx context.Context, root *url.URL) ([]string, error) {
	robotsURL := root.ResolveReference(&url.URL{Path: "/robots.txt"}).String()
	if body, err := s.get(ctx, robotsURL); err == nil {
		sitemaps := sitemapsFromRobots(body)
		body.Close()
		if len(sitemaps) > 0 {
			return sitemaps, nil
		}
	} else if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	fallback := root.ResolveReference(&url.URL{Path: "/sitemap.xml"}).String()
	exists, err := s.exists(ctx, fallback)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}
	if exists {
		return []string{fallback}, nil
	}
	return nil, nil
}

// sitemapsFromRobots extracts Sitemap: directives.
func sitemapsFromRobots(body io.Reader) []string {
	var sitemaps []string
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if key, value, ok := strings.Cut(line, ":"); ok && strings.EqualFold(strings.TrimSpace(key), "sitemap") {
			if v := strings.TrimSpace(value); v != "" {
				sitemaps = append(sitemaps, v)
			}
		}
	}
	return sitemaps
}

// readSitemap fetches and parses one sitemap, recursing through
// sitemap indexes up to maxSitemapDepth.
func (s *SitemapService) readSitemap(ctx context.Context, sitemapURL string, seen map[string]bool, depth int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if depth > maxSitemapDepth || seen[sitemapURL] {
		return nil, nil
	}
	seen[sitemapURL] = true

	body, err := s.get(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(body); err != nil {
		return nil, weft.Errorf(weft.EPARSE, "parse sitemap %s: %v", sitemapURL, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, weft.Errorf(weft.EPARSE, "empty sitemap %s", sitemapURL)
	}

	if root.Tag == "sitemapindex" {
		var out []string
		for _, child := range root.SelectElements("sitemap") {
			loc := locText(child)
			if loc == "" {
				continue
			}
			urls, err := s.readSitemap(ctx, loc, seen, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, urls...)
		}
		return out, nil
	}

	var out []string
	for _, child := range root.SelectElements("url") {
		if loc := locText(child); loc != "" {
			out = append(out, loc)
		}
	}
	return out, nil
}

func locText(el *etree.Element) string {
	loc := el.SelectElement("loc")
	if loc == nil {
		return ""
	}
	return strings.TrimSpace(loc.Text())
}

// underPathPrefix reports whether the URL's path falls under the
// prefix, respecting path segment boundaries.
func underPathPrefix(rawURL, prefix string) bool {
	if prefix == "" {
		return true
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return strings.HasPrefix(parsed.Path, prefix) || parsed.Path+"/" == prefix
}

// get fetches a URL, returning the body on 200 and a network error
// otherwise.
func (s *SitemapService) get(ctx context.Context, targetURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, weft.Errorf(weft.EINTERNAL, "creating request: %v", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, weft.NetworkErrorf(0, "fetch %s: %v", targetURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, weft.NetworkErrorf(resp.StatusCode, "HTTP %d for %s", resp.StatusCode, targetURL)
	}
	return resp.Body, nil
}

// exists checks whether a URL answers 200 to a HEAD request.
func (s *SitemapService) exists(ctx context.Context, targetURL string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, targetURL, nil)
	if err != nil {
		return false, weft.Errorf(weft.EINTERNAL, "creating request: %v", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false, err
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}
