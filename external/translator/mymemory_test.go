package translator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestProvider(serverURL string) *MyMemoryProvider {
	return &MyMemoryProvider{
		baseURL: serverURL,
		client:  &http.Client{Timeout: time.Second},
	}
}

func TestTranslate_Success(t *testing.T) {
	var gotLangpair string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLangpair = r.URL.Query().Get("langpair")
		if r.URL.Query().Get("q") != "hello there" {
			t.Fatalf("unexpected query text: %q", r.URL.Query().Get("q"))
		}
		_, _ = w.Write([]byte(`{"responseStatus":200,"responseData":{"translatedText":"bonjour"}}`))
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	got, err := p.Translate(context.Background(), "hello there", "en", "fr")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "bonjour" {
		t.Fatalf("unexpected translation: %q", got)
	}
	if gotLangpair != "en|fr" {
		t.Fatalf("unexpected langpair: %q", gotLangpair)
	}
}

func TestTranslate_MapsProviderLanguageCodes(t *testing.T) {
	var gotLangpair string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLangpair = r.URL.Query().Get("langpair")
		_, _ = w.Write([]byte(`{"responseStatus":200,"responseData":{"translatedText":"你好"}}`))
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	if _, err := p.Translate(context.Background(), "hello", "en", "zh"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotLangpair != "en|zh-CN" {
		t.Fatalf("expected zh mapped to zh-CN, got %q", gotLangpair)
	}
}

func TestTranslate_NonSuccessProviderStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"responseStatus":403,"responseData":{"translatedText":""}}`))
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	if _, err := p.Translate(context.Background(), "hello", "en", "fr"); err == nil {
		t.Fatal("expected error for provider responseStatus != 200")
	}
}

func TestTranslate_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	if _, err := p.Translate(context.Background(), "hello", "en", "fr"); err == nil {
		t.Fatal("expected error for malformed body")
	}
}

func TestTranslate_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	if _, err := p.Translate(context.Background(), "hello", "en", "fr"); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}
