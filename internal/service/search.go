package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/netvistor/personal-ai-assistant/internal/config"
)

// TavilyClient talks to the Tavily web-search API.
type TavilyClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewTavilyClient(apiKey string) *TavilyClient {
	return &TavilyClient{
		apiKey:     apiKey,
		baseURL:    "https://api.tavily.com",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithBaseURL overrides the API endpoint. Used in tests.
func (c *TavilyClient) WithBaseURL(url string) *TavilyClient {
	c.baseURL = url
	return c
}

type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type SearchResponse struct {
	Query        string         `json:"query"`
	Answer       string         `json:"answer"`
	Results      []SearchResult `json:"results"`
	ResponseTime float64        `json:"response_time"`
}

func (c *TavilyClient) Search(ctx context.Context, query string) (*SearchResponse, error) {
	payload, err := json.Marshal(map[string]any{
		"api_key":        c.apiKey,
		"query":          query,
		"max_results":    config.SearchMaxResults,
		"include_answer": "basic",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tavily HTTP %d: %s", resp.StatusCode, string(body))
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}
	return &searchResp, nil
}

// RenderResults flattens search results into a single text block: each
// result's content followed by its source URL. Structured metadata is
// dropped on purpose.
func RenderResults(results []SearchResult) string {
	var b strings.Builder
	for _, r := range results {
		b.WriteString(r.Content)
		b.WriteString("\n")
		b.WriteString(r.URL)
		b.WriteString("\n\n")
	}
	return b.String()
}

// SearchCapability exposes Tavily search to the model as the `search_web`
// function.
type SearchCapability struct {
	client *TavilyClient
}

func NewSearchCapability(client *TavilyClient) *SearchCapability {
	return &SearchCapability{client: client}
}

func (s *SearchCapability) Name() string { return "search_web" }

func (s *SearchCapability) Description() string {
	return "Поиск актуальной информации в интернете в реальном времени"
}

func (s *SearchCapability) Parameters() map[string]ParamSpec {
	return map[string]ParamSpec{
		"query": {Type: "string", Description: "Фраза для поиска"},
	}
}

func (s *SearchCapability) Execute(ctx context.Context, args json.RawMessage) (*CapabilityResult, error) {
	var params struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("decode arguments: %w", err)
	}

	resp, err := s.client.Search(ctx, params.Query)
	if err != nil {
		return nil, err
	}
	return &CapabilityResult{Text: RenderResults(resp.Results)}, nil
}
