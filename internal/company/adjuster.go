package company

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/hunter/lead-enricher/internal/llm"
	"github.com/hunter/lead-enricher/internal/prompts"
	"github.com/hunter/lead-enricher/internal/schemas"
	"github.com/hunter/lead-enricher/internal/types"
)

// Adjust refines a generated context using free-form user feedback.
// Fields the feedback does not touch are preserved, and the original
// context's URL and scraped content always carry over.
func Adjust(ctx context.Context, llmClient llm.Client, current *types.CompanyContext, feedback string) (*types.CompanyContext, error) {
	if current == nil || current.IsEmpty() {
		return nil, &AdjustmentError{Message: "no context to adjust"}
	}
	if strings.TrimSpace(feedback) == "" {
		return nil, &AdjustmentError{Message: "feedback is empty"}
	}

	currentJSON, err := json.Marshal(map[string]string{
		"name":             current.Name,
		"description":      current.Description,
		"target_geography": current.TargetGeography,
		"confidence":       current.Confidence,
	})
	if err != nil {
		return nil, &AdjustmentError{Message: "failed to encode current context", Cause: err}
	}

	template := prompts.MustGet("company.json", "adjust-context")
	prompt := prompts.Format(template, map[string]string{
		"CurrentContext": string(currentJSON),
		"Feedback":       feedback,
	})

	responseText, err := llmClient.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, &AdjustmentError{Message: "LLM adjustment failed", Cause: err}
	}

	if err := schemas.Validate(schemas.CompanyContext, responseText); err != nil {
		return nil, &AdjustmentError{Message: "LLM returned an invalid context", Cause: err}
	}

	var parsed llmContext
	if err := json.Unmarshal([]byte(responseText), &parsed); err != nil {
		return nil, &AdjustmentError{Message: "failed to parse adjusted context", Cause: err}
	}

	adjusted := &types.CompanyContext{
		URL:             current.URL,
		Name:            parsed.Name,
		Description:     parsed.Description,
		TargetGeography: parsed.TargetGeography,
		WebsiteContent:  current.WebsiteContent,
		Confidence:      parsed.Confidence,
	}
	if adjusted.Name == "" {
		adjusted.Name = current.Name
	}
	if adjusted.TargetGeography == "" {
		adjusted.TargetGeography = current.TargetGeography
	}

	return adjusted, nil
}
