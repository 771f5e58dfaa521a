package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/netvistor/personal-ai-assistant/internal/domain"
)

// ParamSpec describes one named capability parameter. All declared
// parameters are implicitly required.
type ParamSpec struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// CapabilityResult is what a capability execution hands back. Text is the
// human-readable rendering that is relayed verbatim to the user.
type CapabilityResult struct {
	Text string
}

// Capability is a named, schema-described function the model may request.
type Capability interface {
	Name() string
	Description() string
	Parameters() map[string]ParamSpec
	Execute(ctx context.Context, args json.RawMessage) (*CapabilityResult, error)
}

// Tool definition wire format for the completion provider.
type ToolDefinition struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  ToolParameters `json:"parameters"`
}

type ToolParameters struct {
	Type       string               `json:"type"`
	Properties map[string]ParamSpec `json:"properties"`
	Required   []string             `json:"required"`
}

// Registry holds the invocable capabilities and resolves requested calls by
// name.
type Registry struct {
	order        []string
	capabilities map[string]Capability
}

func NewRegistry(caps ...Capability) *Registry {
	r := &Registry{capabilities: make(map[string]Capability)}
	for _, c := range caps {
		r.Register(c)
	}
	return r
}

func (r *Registry) Register(c Capability) {
	if _, exists := r.capabilities[c.Name()]; !exists {
		r.order = append(r.order, c.Name())
	}
	r.capabilities[c.Name()] = c
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.capabilities)
}

// Definitions renders the registry in the provider's tool-definition format.
// Every declared parameter lands in the required list.
func (r *Registry) Definitions() []ToolDefinition {
	if r == nil {
		return nil
	}
	defs := make([]ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		c := r.capabilities[name]
		params := c.Parameters()
		required := make([]string, 0, len(params))
		for p := range params {
			required = append(required, p)
		}
		sort.Strings(required)

		defs = append(defs, ToolDefinition{
			Type: "function",
			Function: ToolFunction{
				Name:        c.Name(),
				Description: c.Description(),
				Parameters: ToolParameters{
					Type:       "object",
					Properties: params,
					Required:   required,
				},
			},
		})
	}
	return defs
}

// Execute resolves a call by exact name and runs it with the raw JSON
// arguments the provider produced.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (*CapabilityResult, error) {
	c, ok := r.capabilities[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCapabilityNotFound, name)
	}
	result, err := c.Execute(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("capability %s: %w", name, err)
	}
	return result, nil
}
