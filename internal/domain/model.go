package domain

import "strings"

// AIModel describes one supported completion model and its defaults.
type AIModel struct {
	ID          string
	MaxTokens   int
	Temperature float64
}

// SupportedModels is the static model catalog. Keys are canonical IDs.
var SupportedModels = []AIModel{
	{ID: "gpt-4", MaxTokens: 8192, Temperature: 0.7},
	{ID: "gpt-3.5-turbo", MaxTokens: 4096, Temperature: 0.7},
	{ID: "gpt-4-turbo", MaxTokens: 128000, Temperature: 0.7},
	{ID: "gpt-4o", MaxTokens: 8192, Temperature: 0.7},
}

// FindModel resolves a model by ID, case-insensitively.
func FindModel(id string) (*AIModel, bool) {
	for i := range SupportedModels {
		if strings.EqualFold(SupportedModels[i].ID, id) {
			return &SupportedModels[i], true
		}
	}
	return nil, false
}

// ModelIDs lists canonical IDs of all supported models.
func ModelIDs() []string {
	ids := make([]string, len(SupportedModels))
	for i, m := range SupportedModels {
		ids[i] = m.ID
	}
	return ids
}
