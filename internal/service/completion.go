package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/netvistor/personal-ai-assistant/internal/config"
	"github.com/netvistor/personal-ai-assistant/internal/domain"
)

// OutcomeKind tags how a completion round-trip resolved.
type OutcomeKind int

const (
	// OutcomeModelAnswer is the provider's direct text content.
	OutcomeModelAnswer OutcomeKind = iota
	// OutcomeCapabilityResult is a capability's rendered text, relayed
	// verbatim. The result is deliberately NOT fed back into the model for
	// a natural-language rewrap; this single-hop policy keeps one model
	// call per turn.
	OutcomeCapabilityResult
)

type Outcome struct {
	Kind       OutcomeKind
	Text       string
	Model      string
	TokensUsed int
	ResponseID string
	Capability string
}

// CompletionLoop performs one logical model round-trip with at most one
// capability-resolution hop.
type CompletionLoop struct {
	ai       *OpenAIService
	registry *Registry
}

func NewCompletionLoop(ai *OpenAIService, registry *Registry) *CompletionLoop {
	return &CompletionLoop{ai: ai, registry: registry}
}

// Run validates the model, sizes the output budget and resolves the
// completion. Unsupported model names fail before any network call.
func (l *CompletionLoop) Run(ctx context.Context, modelID string, messages []domain.ChatMessage) (*Outcome, error) {
	model, ok := domain.FindModel(modelID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedModel, modelID)
	}

	maxTokens := RemainingBudget(model.MaxTokens, EstimateMessages(messages))

	chatReq := ChatRequest{
		Model:       model.ID,
		Messages:    messages,
		Temperature: &model.Temperature,
		MaxTokens:   maxTokens,
	}
	if l.registry.Len() > 0 {
		chatReq.Tools = l.registry.Definitions()
		chatReq.ToolChoice = "auto"
		// The provider accounts for tool-definition tokens itself; use the
		// fixed ceiling instead of the estimated remainder.
		chatReq.MaxTokens = config.ToolCompletionTokens
	}

	resp, err := l.ai.Chat(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, domain.ErrEmptyResponse
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) > 0 {
		// Only the first requested call is executed.
		call := msg.ToolCalls[0]
		result, err := l.registry.Execute(ctx, call.Function.Name, json.RawMessage(call.Function.Arguments))
		if err != nil {
			return nil, err
		}
		return &Outcome{
			Kind:       OutcomeCapabilityResult,
			Text:       result.Text,
			Model:      model.ID,
			TokensUsed: resp.Usage.TotalTokens,
			ResponseID: resp.ID,
			Capability: call.Function.Name,
		}, nil
	}

	return &Outcome{
		Kind:       OutcomeModelAnswer,
		Text:       msg.Content,
		Model:      model.ID,
		TokensUsed: resp.Usage.TotalTokens,
		ResponseID: resp.ID,
	}, nil
}
