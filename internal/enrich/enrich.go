// Package enrich cleans up extracted jobs with an LLM pass. The model
// re-categorizes requirements vs qualifications, standardizes the
// location, and fills salary fields the selector chains missed.
// Enrichment is best-effort: any failure leaves the original job
// untouched.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"

	"github.com/jimezsa/jobharvest/internal/models"
)

const (
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 2048
)

const systemPrompt = `You are an expert job data processor. Your task is to analyze job posting data and structure it into clear, well-defined categories. Focus on accuracy and proper categorization of information.

For each field, follow these specific guidelines:
- title: Clean, professional job title in title case
- company: Company name in proper case
- location: Standardized location format (City, State, Country) and/or Remote status
- description: Clear, concise summary of the role
- requirements: List of MUST-HAVE skills and qualifications
- qualifications: List of NICE-TO-HAVE skills and preferred qualifications
- benefits: List of company benefits and perks
- employment_type: full-time, part-time, contract, internship
- experience_level: entry-level, junior, mid-level, senior, principal
- work_types: List containing any of: remote, hybrid, on-site
- salary_min: Minimum salary as integer (if provided)
- salary_max: Maximum salary as integer (if provided)
- salary_type: hourly, yearly, or null
- salary_currency: USD, EUR, etc. or null

Return the processed data in valid JSON format.`

// messenger is the slice of the Anthropic client the enricher needs;
// tests stub it.
type messenger interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type Enricher struct {
	messages  messenger
	model     anthropic.Model
	maxTokens int64
	logger    zerolog.Logger
}

func New(apiKey string, logger zerolog.Logger) *Enricher {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Enricher{
		messages:  &client.Messages,
		model:     anthropic.Model(defaultModel),
		maxTokens: defaultMaxTokens,
		logger:    logger,
	}
}

// SetModel overrides the default model.
func (e *Enricher) SetModel(model string) {
	if model != "" {
		e.model = anthropic.Model(model)
	}
}

// Structure sends the job through the model and merges the structured
// response back in. On any failure the input job is returned unchanged
// along with the error, so callers can store the raw version.
func (e *Enricher) Structure(ctx context.Context, job models.Job) (models.Job, error) {
	payload, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return job, fmt.Errorf("marshal job: %w", err)
	}

	userPrompt := fmt.Sprintf(`Please process this job posting data and return a properly structured JSON object:

%s

Focus on:
1. Correctly categorizing requirements vs qualifications
2. Standardizing location format
3. Extracting accurate salary information
4. Determining correct experience level
5. Identifying work type (remote/hybrid/onsite)
6. Cleaning and standardizing all fields

Return only the JSON object with no additional text.`, payload)

	msg, err := e.messages.New(ctx, anthropic.MessageNewParams{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return job, fmt.Errorf("enrich request: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		text.WriteString(block.Text)
	}

	enriched, err := mergeResponse(job, text.String())
	if err != nil {
		e.logger.Warn().Err(err).Str("fingerprint", job.Fingerprint).Msg("enrichment response unusable")
		return job, err
	}
	return enriched, nil
}

// mergeResponse decodes the model output and overlays it onto the
// original, keeping the identity and provenance fields fixed.
func mergeResponse(original models.Job, response string) (models.Job, error) {
	raw := extractJSON(response)
	if raw == "" {
		return original, fmt.Errorf("no JSON object in response")
	}

	var enriched models.Job
	if err := json.Unmarshal([]byte(raw), &enriched); err != nil {
		return original, fmt.Errorf("decode response: %w", err)
	}
	if enriched.Title == "" || enriched.Company == "" {
		return original, fmt.Errorf("response dropped mandatory fields")
	}

	// Identity and provenance never change across enrichment.
	enriched.Site = original.Site
	enriched.URL = original.URL
	enriched.ApplicationURL = original.ApplicationURL
	enriched.CompanyLogo = original.CompanyLogo
	enriched.Fingerprint = original.Fingerprint
	enriched.PostedAt = original.PostedAt
	enriched.ExpiresAt = original.ExpiresAt
	enriched.ScrapedAt = original.ScrapedAt
	enriched.Status = original.Status

	if len(enriched.Requirements) == 0 {
		enriched.Requirements = original.Requirements
	}
	if len(enriched.Qualifications) == 0 {
		enriched.Qualifications = original.Qualifications
	}
	if len(enriched.Benefits) == 0 {
		enriched.Benefits = original.Benefits
	}
	return enriched, nil
}

// extractJSON pulls the first top-level JSON object out of a response
// that may be wrapped in prose or a code fence.
func extractJSON(response string) string {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return ""
	}
	return response[start : end+1]
}
