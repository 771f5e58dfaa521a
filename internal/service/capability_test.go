package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/netvistor/personal-ai-assistant/internal/domain"
)

// stubCapability is a minimal capability for registry tests.
type stubCapability struct {
	name    string
	params  map[string]ParamSpec
	result  *CapabilityResult
	err     error
	gotArgs json.RawMessage
}

func (s *stubCapability) Name() string        { return s.name }
func (s *stubCapability) Description() string { return "stub capability" }

func (s *stubCapability) Parameters() map[string]ParamSpec {
	if s.params == nil {
		return map[string]ParamSpec{
			"query": {Type: "string", Description: "stub query"},
		}
	}
	return s.params
}

func (s *stubCapability) Execute(_ context.Context, args json.RawMessage) (*CapabilityResult, error) {
	s.gotArgs = args
	return s.result, s.err
}

func TestRegistryDefinitions(t *testing.T) {
	cap1 := &stubCapability{
		name: "lookup",
		params: map[string]ParamSpec{
			"query": {Type: "string", Description: "what to look up"},
			"limit": {Type: "integer", Description: "result cap"},
		},
	}
	registry := NewRegistry(cap1)

	defs := registry.Definitions()
	if len(defs) != 1 {
		t.Fatalf("got %d definitions, want 1", len(defs))
	}

	def := defs[0]
	if def.Type != "function" {
		t.Errorf("definition type = %q, want function", def.Type)
	}
	if def.Function.Name != "lookup" {
		t.Errorf("function name = %q, want lookup", def.Function.Name)
	}
	if def.Function.Parameters.Type != "object" {
		t.Errorf("parameters type = %q, want object", def.Function.Parameters.Type)
	}

	// Every declared parameter is required.
	if got, want := len(def.Function.Parameters.Required), 2; got != want {
		t.Fatalf("required list length = %d, want %d", got, want)
	}
	if def.Function.Parameters.Required[0] != "limit" || def.Function.Parameters.Required[1] != "query" {
		t.Errorf("required = %v, want sorted [limit query]", def.Function.Parameters.Required)
	}
}

func TestRegistryExecute(t *testing.T) {
	stub := &stubCapability{name: "lookup", result: &CapabilityResult{Text: "found it"}}
	registry := NewRegistry(stub)

	args := json.RawMessage(`{"query":"go"}`)
	result, err := registry.Execute(context.Background(), "lookup", args)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if result.Text != "found it" {
		t.Errorf("result text = %q, want %q", result.Text, "found it")
	}
	if string(stub.gotArgs) != `{"query":"go"}` {
		t.Errorf("capability got args %s", stub.gotArgs)
	}
}

func TestRegistryExecuteUnknownName(t *testing.T) {
	registry := NewRegistry(&stubCapability{name: "lookup", result: &CapabilityResult{}})

	_, err := registry.Execute(context.Background(), "does_not_exist", nil)
	if !errors.Is(err, domain.ErrCapabilityNotFound) {
		t.Errorf("expected ErrCapabilityNotFound, got %v", err)
	}
}

func TestRegistryExecutePropagatesFailure(t *testing.T) {
	boom := errors.New("upstream down")
	registry := NewRegistry(&stubCapability{name: "lookup", err: boom})

	_, err := registry.Execute(context.Background(), "lookup", json.RawMessage(`{}`))
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped capability error, got %v", err)
	}
}

func TestSearchCapabilityRejectsMalformedArgs(t *testing.T) {
	capability := NewSearchCapability(NewTavilyClient("key"))

	_, err := capability.Execute(context.Background(), json.RawMessage(`{not json`))
	if err == nil {
		t.Fatal("expected decode error for malformed arguments")
	}
}
