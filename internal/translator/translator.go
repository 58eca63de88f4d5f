package translator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// cacheTTL bounds staleness, not memory. The table grows for the process
// lifetime, which is acceptable for a short-lived single-process relay.
const cacheTTL = 10 * time.Minute

// Provider performs one translation call against an external service.
type Provider interface {
	Translate(ctx context.Context, text, fromLang, toLang string) (string, error)
}

// Gateway fronts the translation provider with a TTL cache and a
// fail-soft contract: Translate always succeeds from the caller's
// perspective. Captioning availability must never be blocked by
// translation availability, so every provider failure degrades to the
// original text instead of an error.
type Gateway struct {
	provider Provider
	now      func() time.Time

	mu    sync.Mutex
	cache map[cacheKey]cacheEntry
}

type cacheKey struct {
	from, to, text string
}

type cacheEntry struct {
	value string
	ts    time.Time
}

func NewGateway(provider Provider) *Gateway {
	return &Gateway{
		provider: provider,
		now:      time.Now,
		cache:    make(map[cacheKey]cacheEntry),
	}
}

// Translate returns text rendered from fromLang into toLang. It returns
// the input unchanged, without calling the provider, when the text is
// blank or the languages match; it returns the input unchanged on any
// provider failure. It never returns an error.
func (g *Gateway) Translate(ctx context.Context, text, fromLang, toLang string) string {
	if strings.TrimSpace(text) == "" || fromLang == toLang {
		return text
	}

	key := cacheKey{from: fromLang, to: toLang, text: text}
	if cached, ok := g.lookup(key); ok {
		return cached
	}

	translated, err := g.provider.Translate(ctx, text, fromLang, toLang)
	if err != nil {
		slog.Warn("translation provider failed; falling back to original text",
			"error", err, "from", fromLang, "to", toLang, "text_len", len(text))
		return text
	}

	g.store(key, translated)
	return translated
}

func (g *Gateway) lookup(key cacheKey) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	entry, ok := g.cache[key]
	if !ok {
		return "", false
	}
	if g.now().Sub(entry.ts) > cacheTTL {
		delete(g.cache, key)
		return "", false
	}
	return entry.value, true
}

func (g *Gateway) store(key cacheKey, value string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cache[key] = cacheEntry{value: value, ts: g.now()}
}
