package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/netvistor/personal-ai-assistant/internal/config"
	"github.com/netvistor/personal-ai-assistant/internal/domain"
)

func chatMessages() []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: "system", Content: "Ты персональный ассистент."},
		{Role: "user", Content: "Привет"},
	}
}

func TestRunModelAnswer(t *testing.T) {
	var gotReq ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"choices": [{"message": {"content": "Привет! Чем помочь?"}}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20}
		}`))
	}))
	defer srv.Close()

	ai := NewOpenAIService("test-key").WithBaseURL(srv.URL)
	loop := NewCompletionLoop(ai, NewRegistry())

	outcome, err := loop.Run(context.Background(), "gpt-4", chatMessages())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if outcome.Kind != OutcomeModelAnswer {
		t.Errorf("outcome kind = %d, want model answer", outcome.Kind)
	}
	if outcome.Text != "Привет! Чем помочь?" {
		t.Errorf("outcome text = %q", outcome.Text)
	}
	if outcome.Model != "gpt-4" {
		t.Errorf("outcome model = %q", outcome.Model)
	}
	if outcome.TokensUsed != 20 {
		t.Errorf("tokens used = %d, want 20", outcome.TokensUsed)
	}
	if outcome.ResponseID != "chatcmpl-1" {
		t.Errorf("response id = %q", outcome.ResponseID)
	}

	if gotReq.Model != "gpt-4" {
		t.Errorf("request model = %q", gotReq.Model)
	}
	if len(gotReq.Tools) != 0 || gotReq.ToolChoice != "" {
		t.Errorf("empty registry must not attach tools, got %d tools, choice %q", len(gotReq.Tools), gotReq.ToolChoice)
	}
	if gotReq.MaxTokens <= 0 || gotReq.MaxTokens >= 8192 {
		t.Errorf("max_tokens = %d, want a positive remainder under the model window", gotReq.MaxTokens)
	}
}

func TestRunCapabilityResult(t *testing.T) {
	var gotReq ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-2",
			"choices": [{"message": {"content": "", "tool_calls": [
				{"id": "call_1", "type": "function", "function": {"name": "lookup", "arguments": "{\"query\":\"go\"}"}},
				{"id": "call_2", "type": "function", "function": {"name": "lookup", "arguments": "{\"query\":\"rust\"}"}}
			]}}],
			"usage": {"total_tokens": 31}
		}`))
	}))
	defer srv.Close()

	stub := &stubCapability{name: "lookup", result: &CapabilityResult{Text: "snippet\nhttps://a.example\n\n"}}
	ai := NewOpenAIService("test-key").WithBaseURL(srv.URL)
	loop := NewCompletionLoop(ai, NewRegistry(stub))

	outcome, err := loop.Run(context.Background(), "gpt-3.5-turbo", chatMessages())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if outcome.Kind != OutcomeCapabilityResult {
		t.Errorf("outcome kind = %d, want capability result", outcome.Kind)
	}
	// Capability text is relayed verbatim, no second model hop.
	if outcome.Text != "snippet\nhttps://a.example\n\n" {
		t.Errorf("outcome text = %q", outcome.Text)
	}
	if outcome.Capability != "lookup" {
		t.Errorf("outcome capability = %q", outcome.Capability)
	}
	// Only the first requested call runs.
	if string(stub.gotArgs) != `{"query":"go"}` {
		t.Errorf("capability args = %s, want the first call's arguments", stub.gotArgs)
	}

	if len(gotReq.Tools) != 1 {
		t.Fatalf("request tools = %d, want 1", len(gotReq.Tools))
	}
	if gotReq.ToolChoice != "auto" {
		t.Errorf("tool_choice = %q, want auto", gotReq.ToolChoice)
	}
	if gotReq.MaxTokens != config.ToolCompletionTokens {
		t.Errorf("max_tokens = %d, want the fixed tool ceiling %d", gotReq.MaxTokens, config.ToolCompletionTokens)
	}
}

func TestRunUnsupportedModel(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	ai := NewOpenAIService("test-key").WithBaseURL(srv.URL)
	loop := NewCompletionLoop(ai, NewRegistry())

	_, err := loop.Run(context.Background(), "gpt-9000", chatMessages())
	if !errors.Is(err, domain.ErrUnsupportedModel) {
		t.Fatalf("expected ErrUnsupportedModel, got %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("unsupported model must fail before any network call, got %d", calls.Load())
	}
}

func TestRunEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "chatcmpl-3", "choices": []}`))
	}))
	defer srv.Close()

	ai := NewOpenAIService("test-key").WithBaseURL(srv.URL)
	loop := NewCompletionLoop(ai, NewRegistry())

	_, err := loop.Run(context.Background(), "gpt-4", chatMessages())
	if !errors.Is(err, domain.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestRunUnknownCapabilityRequested(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"id": "chatcmpl-4",
			"choices": [{"message": {"tool_calls": [
				{"id": "call_1", "type": "function", "function": {"name": "no_such_tool", "arguments": "{}"}}
			]}}]
		}`))
	}))
	defer srv.Close()

	ai := NewOpenAIService("test-key").WithBaseURL(srv.URL)
	loop := NewCompletionLoop(ai, NewRegistry(&stubCapability{name: "lookup", result: &CapabilityResult{}}))

	_, err := loop.Run(context.Background(), "gpt-4", chatMessages())
	if !errors.Is(err, domain.ErrCapabilityNotFound) {
		t.Fatalf("expected ErrCapabilityNotFound, got %v", err)
	}
}
