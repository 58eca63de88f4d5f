package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/foxseedlab/jimakun/internal/translator"
)

const defaultBaseURL = "https://api.mymemory.translated.net"

// MyMemory language codes differ from the BCP-47 speech codes used on
// the capture side for some languages.
var langCodes = map[string]string{
	"en": "en",
	"es": "es",
	"fr": "fr",
	"zh": "zh-CN",
	"pt": "pt",
}

type MyMemoryProvider struct {
	baseURL string
	client  *http.Client
}

// NewMyMemoryProvider builds the provider; an empty baseURL selects the
// public endpoint.
func NewMyMemoryProvider(baseURL string) translator.Provider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &MyMemoryProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *MyMemoryProvider) Translate(ctx context.Context, text, fromLang, toLang string) (string, error) {
	q := url.Values{}
	q.Set("q", text)
	q.Set("langpair", fmt.Sprintf("%s|%s", providerCode(fromLang), providerCode(toLang)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/get?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mymemory returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	var parsed myMemoryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("mymemory returned malformed body: %w", err)
	}
	if parsed.ResponseStatus != http.StatusOK {
		return "", fmt.Errorf("mymemory response status %d", parsed.ResponseStatus)
	}
	return parsed.ResponseData.TranslatedText, nil
}

func providerCode(lang string) string {
	if mapped, ok := langCodes[lang]; ok {
		return mapped
	}
	return lang
}

type myMemoryResponse struct {
	ResponseStatus int `json:"responseStatus"`
	ResponseData   struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
}
