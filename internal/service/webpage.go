package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/netvistor/personal-ai-assistant/internal/config"
)

// WebpageCapability lets the model read a page the user linked: it fetches
// the URL and returns the visible text with scripts and styles stripped.
type WebpageCapability struct {
	httpClient *http.Client
}

func NewWebpageCapability() *WebpageCapability {
	return &WebpageCapability{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (w *WebpageCapability) Name() string { return "read_webpage" }

func (w *WebpageCapability) Description() string {
	return "Загрузить веб-страницу по ссылке и получить её текстовое содержимое"
}

func (w *WebpageCapability) Parameters() map[string]ParamSpec {
	return map[string]ParamSpec{
		"url": {Type: "string", Description: "Адрес страницы (http или https)"},
	}
}

func (w *WebpageCapability) Execute(ctx context.Context, args json.RawMessage) (*CapabilityResult, error) {
	var params struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("decode arguments: %w", err)
	}
	if !strings.HasPrefix(params.URL, "http://") && !strings.HasPrefix(params.URL, "https://") {
		return nil, fmt.Errorf("invalid url: %s", params.URL)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", params.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page HTTP %d", resp.StatusCode)
	}

	text, err := ExtractPageText(resp)
	if err != nil {
		return nil, err
	}
	return &CapabilityResult{Text: text}, nil
}

// ExtractPageText pulls readable text out of an HTML response body.
func ExtractPageText(resp *http.Response) (string, error) {
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	doc.Find("script, style, noscript, iframe").Remove()

	var parts []string
	doc.Find("title, h1, h2, h3, p, li, td, pre").Each(func(_ int, sel *goquery.Selection) {
		if t := strings.TrimSpace(sel.Text()); t != "" {
			parts = append(parts, t)
		}
	})

	text := strings.Join(parts, "\n")
	if runes := []rune(text); len(runes) > config.MaxWebpageTextLen {
		text = string(runes[:config.MaxWebpageTextLen])
	}
	return text, nil
}
