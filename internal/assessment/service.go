// Package assessment turns a session's classification summary into a
// validated overall verdict via a chat-completion model.
//
// Model output is untrusted: it passes a JSON repair step, a schema
// check, and a catalog filter before anything reaches a caller.
package assessment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	openaigo "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/gabriel-accetta/piano-posture-analyzer/internal/domain/catalog"
	"github.com/gabriel-accetta/piano-posture-analyzer/internal/domain/model"
	"github.com/gabriel-accetta/piano-posture-analyzer/pkg/logger"
	"github.com/gabriel-accetta/piano-posture-analyzer/pkg/metrics"
)

const systemPromptTemplate = `You are an assistant that converts a short piano posture analysis summary into a structured overall analysis.
Given an input summary describing percentages and issues, produce a JSON object with the exact keys:

- "classification": one of "Excellent", "Good", or "Needs Improvement";
- "feedbacks": an array of concise actionable feedback strings (3-6 items) tailored to the identified issues;
- "materials": an array of recommended materials drawn only from the provided materials list. Each material item must include the fields: 'type', 'title', 'description', 'link', 'thumbnail'.

You are classifying and providing feedback specifically for %s posture, every class that is not Correct is bad.
Disconsider any %% where no pose is detected, it means that the system failed to detect that pose so don't mention it.
For Excellent classification, provide at least 1 positive feedback, but you dont need to provide materials.
Classify as Excellent if issues are under 15%%, Good if between 15%%-40%%, and Needs Improvement if over 40%%.
Select 1 to 6 relevant materials from the provided list. Do not invent materials. Keep feedback direct and actionable. ONLY output valid JSON and nothing else.`

// jsonObjectPattern extracts the first top-level object from output that
// wraps its JSON in prose or code fences.
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// Service issues assessment completions against an OpenAI-compatible
// endpoint and validates what comes back.
type Service struct {
	client  openaigo.Client
	model   string
	catalog *catalog.Catalog
	logger  logger.Logger
}

// New builds the service. baseURL is optional and mainly serves
// OpenAI-compatible proxies and tests.
func New(apiKey, baseURL, modelName string, cat *catalog.Catalog, opts ...Option) *Service {
	s := &Service{
		model:   modelName,
		catalog: cat,
		logger:  logger.Get().Named("assessment"),
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{Timeout: 75 * time.Second}),
	}
	if baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(strings.TrimRight(baseURL, "/")))
	}

	for _, opt := range opts {
		opt(s, &clientOpts)
	}

	s.client = openaigo.NewClient(clientOpts...)
	return s
}

// Assess converts a classification summary into a validated overall
// assessment for the given posture domain. A non-empty modelName
// overrides the configured completion model for this call.
func (s *Service) Assess(ctx context.Context, summary string, domain model.Domain, modelName string) (*model.OverallAssessment, error) {
	if strings.TrimSpace(summary) == "" {
		return nil, ErrEmptySummary
	}
	if _, err := model.ParseDomain(string(domain)); err != nil {
		return nil, err
	}

	materialsJSON, err := json.Marshal(s.catalog.Materials())
	if err != nil {
		return nil, fmt.Errorf("encode materials: %w", err)
	}

	chatModel := s.model
	if strings.TrimSpace(modelName) != "" {
		chatModel = modelName
	}

	started := time.Now()
	completion, err := s.client.Chat.Completions.New(ctx, openaigo.ChatCompletionNewParams{
		Model: openaigo.ChatModel(chatModel),
		Messages: []openaigo.ChatCompletionMessageParamUnion{
			openaigo.SystemMessage(fmt.Sprintf(systemPromptTemplate, domain)),
			openaigo.UserMessage(fmt.Sprintf("Input summary:\n%s\n\nAvailable materials (JSON):\n%s", summary, materialsJSON)),
		},
		Temperature: openaigo.Float(0.2),
		MaxTokens:   openaigo.Int(800),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompletion, err)
	}
	metrics.RecordAssessmentRequest(float64(time.Since(started).Milliseconds()))

	var content string
	if len(completion.Choices) > 0 {
		content = completion.Choices[0].Message.Content
	}

	parsed, err := s.parse(ctx, content)
	if err != nil {
		return nil, err
	}

	result, err := s.validate(ctx, parsed)
	if err != nil {
		return nil, err
	}

	result.Materials = s.filterMaterials(ctx, result.Materials)
	return result, nil
}

// parse decodes model output into a generic JSON value, extracting the
// first object when the output is not pure JSON.
func (s *Service) parse(ctx context.Context, content string) (map[string]any, error) {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(content), &parsed); err == nil {
		return parsed, nil
	}

	if match := jsonObjectPattern.FindString(content); match != "" {
		if err := json.Unmarshal([]byte(match), &parsed); err == nil {
			s.logger.Warn(ctx, "repaired non-JSON model output",
				logger.Int("raw_bytes", len(content)))
			return parsed, nil
		}
	}

	metrics.RecordAssessmentParseError()
	s.logger.Error(ctx, "model output is not JSON", logger.Int("raw_bytes", len(content)))
	return nil, &ParseError{Raw: content}
}

// validate enforces the closed schema on the generic value: a known
// classification plus feedbacks and materials lists. Entries inside those
// lists are decoded leniently; only the keys themselves are load-bearing.
func (s *Service) validate(ctx context.Context, parsed map[string]any) (*model.OverallAssessment, error) {
	classification, _ := parsed["classification"].(string)
	feedbacks, feedbacksOK := parsed["feedbacks"].([]any)
	entries, materialsOK := parsed["materials"].([]any)

	result := model.OverallAssessment{
		Classification: model.AssessmentClassification(classification),
	}
	if !result.Classification.Valid() || !feedbacksOK || !materialsOK {
		metrics.RecordAssessmentSchemaError()
		return nil, &SchemaError{Parsed: parsed}
	}

	for _, f := range feedbacks {
		if text, ok := f.(string); ok {
			result.Feedbacks = append(result.Feedbacks, text)
		}
	}
	result.Materials = s.decodeMaterials(ctx, entries)
	return &result, nil
}

// decodeMaterials keeps list entries that decode into a titled material,
// silently dropping malformed ones rather than failing the assessment.
func (s *Service) decodeMaterials(ctx context.Context, entries []any) []model.Material {
	kept := make([]model.Material, 0, len(entries))
	for _, e := range entries {
		raw, err := json.Marshal(e)
		if err != nil {
			metrics.RecordMaterialDropped()
			continue
		}
		var m model.Material
		if err := json.Unmarshal(raw, &m); err != nil || m.Title == "" {
			metrics.RecordMaterialDropped()
			s.logger.Warn(ctx, "dropping malformed material entry")
			continue
		}
		kept = append(kept, m)
	}
	return kept
}

// filterMaterials keeps only materials whose titles exist in the catalog,
// silently dropping the rest.
func (s *Service) filterMaterials(ctx context.Context, materials []model.Material) []model.Material {
	kept := make([]model.Material, 0, len(materials))
	for _, m := range materials {
		if _, ok := s.catalog.Lookup(m.Title); !ok {
			metrics.RecordMaterialDropped()
			s.logger.Warn(ctx, "dropping material not in catalog",
				logger.String("title", m.Title))
			continue
		}
		kept = append(kept, m)
	}
	return kept
}
