package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPageServer(t *testing.T, html string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, html)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPageFetcher_ExtractsArticleContainer(t *testing.T) {
	srv := newPageServer(t, `<html><body>
		<nav>site navigation</nav>
		<article>KPMG opens a new office in Athens.</article>
		<footer>footer junk</footer>
	</body></html>`)

	f := NewPageFetcher(5*time.Second, 0, 0)
	content, _, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "KPMG opens a new office in Athens.", content)
	assert.NotContains(t, content, "navigation")
	assert.NotContains(t, content, "footer junk")
}

func TestPageFetcher_SelectorPriority(t *testing.T) {
	// Both main and a content div are present; main wins.
	srv := newPageServer(t, `<html><body>
		<div id="content">secondary text</div>
		<main>primary text</main>
	</body></html>`)

	f := NewPageFetcher(5*time.Second, 0, 0)
	content, _, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "primary text", content)
}

func TestPageFetcher_BodyFallback(t *testing.T) {
	srv := newPageServer(t, `<html><body>
		<p>plain paragraph with no recognized container</p>
	</body></html>`)

	f := NewPageFetcher(5*time.Second, 0, 0)
	content, _, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "plain paragraph with no recognized container", content)
}

func TestPageFetcher_TruncatesContainerText(t *testing.T) {
	long := strings.Repeat("λ", 500)
	srv := newPageServer(t, "<html><body><article>"+long+"</article></body></html>")

	f := NewPageFetcher(5*time.Second, 100, 50)
	content, _, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	// Truncation counts runes, not bytes.
	assert.Equal(t, 100, len([]rune(content)))
}

func TestPageFetcher_ExtractsPublishedDate(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "article published_time meta",
			html: `<html><head><meta property="article:published_time" content="2026-08-28T10:00:00Z"></head><body><p>x</p></body></html>`,
			want: "2026-08-28",
		},
		{
			name: "pubdate meta",
			html: `<html><head><meta name="pubdate" content="2026-07-01"></head><body><p>x</p></body></html>`,
			want: "2026-07-01",
		},
		{
			name: "time element",
			html: `<html><body><time datetime="2026-06-15T08:00:00+03:00">June 15</time><p>x</p></body></html>`,
			want: "2026-06-15",
		},
		{
			name: "no date",
			html: `<html><body><p>x</p></body></html>`,
			want: "",
		},
		{
			name: "unparseable meta ignored",
			html: `<html><head><meta name="date" content="last Tuesday"></head><body><p>x</p></body></html>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newPageServer(t, tt.html)
			f := NewPageFetcher(5*time.Second, 0, 0)
			_, pubDate, err := f.Fetch(context.Background(), srv.URL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, pubDate)
		})
	}
}

func TestPageFetcher_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	f := NewPageFetcher(5*time.Second, 0, 0)
	_, _, err := f.Fetch(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestPageFetcher_RetriesSelfSignedCertificate(t *testing.T) {
	// httptest TLS servers use a self-signed certificate, so the first
	// attempt fails verification and the insecure retry takes over.
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><body><article>served over tls</article></body></html>")
	}))
	t.Cleanup(srv.Close)

	f := NewPageFetcher(5*time.Second, 0, 0)
	content, _, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "served over tls", content)
}

func TestPageFetcher_DecodesLegacyGreekCharset(t *testing.T) {
	// "Αθήνα" in ISO-8859-7 bytes.
	legacy := []byte{0xc1, 0xe8, 0xde, 0xed, 0xe1}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-7")
		_, _ = w.Write([]byte("<html><body><article>"))
		_, _ = w.Write(legacy)
		_, _ = w.Write([]byte("</article></body></html>"))
	}))
	t.Cleanup(srv.Close)

	f := NewPageFetcher(5*time.Second, 0, 0)
	content, _, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Αθήνα", content)
}

func TestPageFetcher_NormalizesWhitespace(t *testing.T) {
	srv := newPageServer(t, "<html><body><article>first\n\n   second\t\tthird</article></body></html>")

	f := NewPageFetcher(5*time.Second, 0, 0)
	content, _, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "first second third", content)
}
