package http_test

import (
	"context"
	nethttp "net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weftlabs/weft"
	wefthttp "github.com/weftlabs/weft/http"
)

func robotsServer(t *testing.T, robotsTxt string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte(robotsTxt))
			return
		}
		nethttp.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRobotsPolicy_CanFetch(t *testing.T) {
	t.Parallel()

	srv := robotsServer(t, `
User-agent: *
Disallow: /private/
Allow: /private/shared/
Disallow: /tmp
`)
	p := wefthttp.NewRobotsPolicy(srv.Client())
	ctx := context.Background()

	tests := []struct {
		path string
		want bool
	}{
		{"/", true},
		{"/products", true},
		{"/private/", false},
		{"/private/data", false},
		{"/private/shared/doc", true},
		{"/tmp", false},
		{"/tmpfile", false}, // prefix match, no segment boundary in robots.txt
	}
	for _, tt := range tests {
		got, err := p.CanFetch(ctx, srv.URL+tt.path, "weft/1.0")
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}
}

func TestRobotsPolicy_AgentGroups(t *testing.T) {
	t.Parallel()

	srv := robotsServer(t, `
User-agent: badbot
Disallow: /

User-agent: *
Disallow: /admin/
`)
	p := wefthttp.NewRobotsPolicy(srv.Client())
	ctx := context.Background()

	got, err := p.CanFetch(ctx, srv.URL+"/page", "badbot/2.1")
	require.NoError(t, err)
	assert.False(t, got, "named group applies to matching agents")

	got, err = p.CanFetch(ctx, srv.URL+"/page", "weft/1.0")
	require.NoError(t, err)
	assert.True(t, got, "other agents fall through to the wildcard group")

	got, err = p.CanFetch(ctx, srv.URL+"/admin/users", "weft/1.0")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestRobotsPolicy_ConsecutiveAgentsShareRules(t *testing.T) {
	t.Parallel()

	srv := robotsServer(t, `
User-agent: alphabot
User-agent: betabot
Disallow: /shared/
`)
	p := wefthttp.NewRobotsPolicy(srv.Client())
	ctx := context.Background()

	for _, agent := range []string{"alphabot", "betabot"} {
		got, err := p.CanFetch(ctx, srv.URL+"/shared/x", agent)
		require.NoError(t, err)
		assert.False(t, got, agent)
	}

	got, err := p.CanFetch(ctx, srv.URL+"/shared/x", "weft/1.0")
	require.NoError(t, err)
	assert.True(t, got, "unlisted agents are unaffected")
}

func TestRobotsPolicy_MissingRobotsAllowsAll(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		nethttp.NotFound(w, r)
	}))
	defer srv.Close()

	p := wefthttp.NewRobotsPolicy(srv.Client())
	got, err := p.CanFetch(context.Background(), srv.URL+"/anything", "weft/1.0")
	require.NoError(t, err)
	assert.True(t, got)
}

func TestRobotsPolicy_EmptyDisallowAllowsAll(t *testing.T) {
	t.Parallel()

	srv := robotsServer(t, `
User-agent: *
Disallow:
`)
	p := wefthttp.NewRobotsPolicy(srv.Client())
	got, err := p.CanFetch(context.Background(), srv.URL+"/anything", "weft/1.0")
	require.NoError(t, err)
	assert.True(t, got)
}

func TestRobotsPolicy_CachesPerHost(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path == "/robots.txt" {
			hits.Add(1)
			w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
			return
		}
		nethttp.NotFound(w, r)
	}))
	defer srv.Close()

	p := wefthttp.NewRobotsPolicy(srv.Client())
	ctx := context.Background()

	for range 5 {
		_, err := p.CanFetch(ctx, srv.URL+"/page", "weft/1.0")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestRobotsPolicy_InvalidURL(t *testing.T) {
	t.Parallel()

	p := wefthttp.NewRobotsPolicy(nil)
	_, err := p.CanFetch(context.Background(), "not-a-url", "weft/1.0")
	require.Error(t, err)
	assert.Equal(t, weft.EINVALID, weft.ErrorCode(err))
}
