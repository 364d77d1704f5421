package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func siteVerifyServer(t *testing.T, status int, body string) (*httptest.Server, *url.Values) {
	t.Helper()
	var seen url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		seen = r.PostForm
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestSiteVerifierAccepts(t *testing.T) {
	srv, seen := siteVerifyServer(t, http.StatusOK, `{"success":true,"hostname":"recipes.example.com"}`)
	v := NewSiteVerifier(SiteVerifyConfig{
		Secret: " shh ", Hostname: "recipes.example.com", Endpoint: srv.URL, Client: srv.Client(),
	})

	ok, reason, err := v.VerifyV2(context.Background(), " tok ", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, reason)
	assert.Equal(t, "shh", seen.Get("secret"))
	assert.Equal(t, "tok", seen.Get("response"))
	assert.Equal(t, "10.0.0.1", seen.Get("remoteip"))
}

func TestSiteVerifierRejects(t *testing.T) {
	cases := map[string]struct {
		body     string
		hostname string
		want     string
	}{
		"error codes":    {body: `{"success":false,"error-codes":["timeout-or-duplicate","bad-request"]}`, want: "timeout-or-duplicate,bad-request"},
		"no codes":       {body: `{"success":false}`, want: "rejected"},
		"other hostname": {body: `{"success":true,"hostname":"evil.example.com"}`, hostname: "recipes.example.com", want: "hostname-mismatch"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv, _ := siteVerifyServer(t, http.StatusOK, tc.body)
			v := NewSiteVerifier(SiteVerifyConfig{Secret: "shh", Hostname: tc.hostname, Endpoint: srv.URL, Client: srv.Client()})
			ok, reason, err := v.VerifyV2(context.Background(), "tok", "")
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Equal(t, tc.want, reason)
		})
	}
}

func TestSiteVerifierShortCircuits(t *testing.T) {
	ok, reason, err := NewSiteVerifier(SiteVerifyConfig{}).VerifyV2(context.Background(), "tok", "")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "missing-input-secret", reason)

	ok, reason, err = NewSiteVerifier(SiteVerifyConfig{Secret: "shh"}).VerifyV2(context.Background(), "  ", "")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "missing-input-response", reason)
}

func TestSiteVerifierUpstreamFailure(t *testing.T) {
	srv, _ := siteVerifyServer(t, http.StatusBadGateway, "")
	v := NewSiteVerifier(SiteVerifyConfig{Secret: "shh", Endpoint: srv.URL, Client: srv.Client()})

	ok, _, err := v.VerifyV2(context.Background(), "tok", "")
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "502")
}
