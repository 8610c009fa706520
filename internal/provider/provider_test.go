package provider

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/insightbr/socialharvest/internal/harvest"
	"github.com/insightbr/socialharvest/internal/relevance"
)

type fakeCreds struct {
	cred      harvest.Credential
	empty     bool
	failures  []harvest.FailureKind
	successes int
}

func (f *fakeCreds) Next(provider string) (harvest.Credential, bool) {
	if f.empty {
		return harvest.Credential{}, false
	}
	return f.cred, true
}

func (f *fakeCreds) ReportFailure(provider string, cred harvest.Credential, kind harvest.FailureKind) {
	f.failures = append(f.failures, kind)
}

func (f *fakeCreds) ReportSuccess(provider string, cred harvest.Credential) {
	f.successes++
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func testClock() fixedClock {
	return fixedClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func TestSerperSearch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		require.Equal(t, "secret-key", r.Header.Get("X-API-KEY"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"organic":[
			{"title":"Artigo bom","link":"https://example.com/artigo","snippet":"sobre marketing"},
			{"title":"Login","link":"https://example.com/login","snippet":"entre na conta"}
		]}`))
	}))
	defer srv.Close()

	creds := &fakeCreds{cred: harvest.Credential{Secret: "secret-key"}}
	p := NewSerper(srv.URL, 5*time.Second, creds, relevance.NewFilter(), testClock(), zap.NewNop())

	got, err := p.Search(context.Background(), harvest.SearchQuery{Text: "curso de marketing"}, 10)
	require.NoError(t, err)
	require.Len(t, got, 1, "login URL must be filtered out")
	require.Equal(t, NameSerper, got[0].Provider)
	require.Equal(t, "https://example.com/artigo", got[0].PageURL)
	require.Equal(t, 1, creds.successes)
}

func TestSerperReportsAuthFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	creds := &fakeCreds{cred: harvest.Credential{Secret: "bad"}}
	p := NewSerper(srv.URL, 5*time.Second, creds, relevance.NewFilter(), testClock(), zap.NewNop())

	_, err := p.Search(context.Background(), harvest.SearchQuery{Text: "x"}, 10)
	require.Error(t, err)
	require.Equal(t, []harvest.FailureKind{harvest.FailureAuth}, creds.failures)
}

func TestSerperExhaustedPoolIsEmptyNotError(t *testing.T) {
	t.Parallel()

	p := NewSerper("http://unused.invalid", time.Second, &fakeCreds{empty: true}, relevance.NewFilter(), testClock(), zap.NewNop())

	got, err := p.Search(context.Background(), harvest.SearchQuery{Text: "x"}, 10)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestGoogleCSESearch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "api-key", q.Get("key"))
		require.Equal(t, "engine-id", q.Get("cx"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"title":"Post","link":"https://blog.example/post","snippet":"texto",
			 "pagemap":{"cse_image":[{"src":"https://blog.example/img.webp"}]}}
		]}`))
	}))
	defer srv.Close()

	creds := &fakeCreds{cred: harvest.Credential{Secret: "api-key", Extra: "engine-id"}}
	p := NewGoogleCSE(srv.URL, 5*time.Second, creds, relevance.NewFilter(), testClock(), zap.NewNop())

	got, err := p.Search(context.Background(), harvest.SearchQuery{Text: "curso"}, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "https://blog.example/img.webp", got[0].ImageURL)
}

func TestYouTubeSearch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		q := r.URL.Query()
		require.Equal(t, "api-key", q.Get("key"))
		require.Equal(t, "BR", q.Get("regionCode"))
		require.NotEmpty(t, q.Get("publishedAfter"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"id":{"videoId":"abc123"},"snippet":{"title":"Vídeo","description":"desc",
			 "thumbnails":{"high":{"url":"https://i.ytimg.com/vi/abc123/hq.jpg"}}}},
			{"id":{},"snippet":{"title":"sem id"}}
		]}`))
	}))
	defer srv.Close()

	creds := &fakeCreds{cred: harvest.Credential{Secret: "api-key"}}
	p := NewYouTube(srv.URL, 5*time.Second, creds, relevance.NewFilter(), testClock(), zap.NewNop())

	got, err := p.Search(context.Background(), harvest.SearchQuery{Text: "curso", RecencyDays: 30}, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "https://www.youtube.com/watch?v=abc123", got[0].PageURL)
	require.Equal(t, "https://i.ytimg.com/vi/abc123/hq.jpg", got[0].ImageURL)
}

func TestBingSearchScrape(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><ol>
			<li class="b_algo"><h2><a href="https://example.com/artigo">Artigo</a></h2><p>resumo do artigo</p></li>
			<li class="b_algo"><h2><a href="https://example.com/outro">Outro</a></h2><p>mais texto</p></li>
		</ol></body></html>`))
	}))
	defer srv.Close()

	p := NewBing(srv.URL, 5*time.Second, 100, relevance.NewFilter(), testClock(), zap.NewNop())

	got, err := p.Search(context.Background(), harvest.SearchQuery{Text: "curso"}, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "Artigo", got[0].Title)
	require.Equal(t, "https://example.com/artigo", got[0].PageURL)
}

func TestResolveBingURL(t *testing.T) {
	t.Parallel()

	target := "https://example.com/artigo-sobre-marketing"
	encoded := "a1" + strings.TrimRight(base64.URLEncoding.EncodeToString([]byte(target)), "=")
	link := "https://www.bing.com/ck/a?!&&p=xyz&u=" + encoded + "&ntb=1"
	require.Equal(t, target, ResolveBingURL(link))

	// Double-encoded payload.
	double := "a1" + strings.TrimRight(base64.URLEncoding.EncodeToString(
		[]byte(base64.URLEncoding.EncodeToString([]byte(target)))), "=")
	link = "https://www.bing.com/ck/a?u=" + double
	require.Equal(t, target, ResolveBingURL(link))

	// Non-redirect links pass through.
	require.Equal(t, "https://example.com/x", ResolveBingURL("https://example.com/x"))
	require.Equal(t, "https://www.bing.com/ck/a?u=zz", ResolveBingURL("https://www.bing.com/ck/a?u=zz"))
}

func TestDuckDuckGoSearchScrape(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>
			<div class="result">
				<a class="result__a" href="/l/?uddg=https%3A%2F%2Fexample.com%2Fpost&rut=x">Post</a>
				<a class="result__snippet" href="#">resumo</a>
			</div>
		</body></html>`))
	}))
	defer srv.Close()

	p := NewDuckDuckGo(srv.URL, 5*time.Second, 100, relevance.NewFilter(), testClock(), zap.NewNop())

	got, err := p.Search(context.Background(), harvest.SearchQuery{Text: "curso"}, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "https://example.com/post", got[0].PageURL)
	require.Equal(t, "Post", got[0].Title)
}

func TestResolveDuckDuckGoURL(t *testing.T) {
	t.Parallel()

	require.Equal(t, "https://example.com/a",
		ResolveDuckDuckGoURL("https://duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fa"))
	require.Equal(t, "https://example.com/b", ResolveDuckDuckGoURL("https://example.com/b"))
}
