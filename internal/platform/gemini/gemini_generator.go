package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"text/template"
	"time"

	"google.golang.org/genai"

	"github.com/phrazzld/synthgen/internal/config"
	"github.com/phrazzld/synthgen/internal/domain"
	"github.com/phrazzld/synthgen/internal/generation"
)

// modelCaller is the seam between the generator and the Gemini API: it takes
// a fully built prompt and returns the model's raw text. Tests substitute a
// stub so no network call happens.
type modelCaller interface {
	generateContent(ctx context.Context, model, prompt string) (string, error)
}

// GeminiGenerator implements the generation.Generator interface using
// Google's Gemini API to generate schema-conforming synthetic records.
type GeminiGenerator struct {
	// logger is used for structured logging
	logger *slog.Logger

	// config contains LLM-specific configuration
	config config.LLMConfig

	// promptTemplate is the parsed template for creating prompts
	promptTemplate *template.Template

	// caller makes the actual Gemini API requests
	caller modelCaller

	// model is the name of the Gemini model to use
	model string
}

// Ensure GeminiGenerator implements the generation.Generator interface.
var _ generation.Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a new instance of GeminiGenerator with the provided dependencies.
//
// Parameters:
//   - ctx: Context for the operation, which can be used for cancellation
//   - logger: A structured logger for operation logging
//   - cfg: LLM configuration containing API key, model name, and other settings
//
// Returns:
//   - A properly initialized GeminiGenerator or an error if initialization fails
func NewGeminiGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*GeminiGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.PromptTemplatePath == "" {
		return nil, fmt.Errorf("%w: prompt template path cannot be empty", generation.ErrInvalidConfig)
	}

	promptTemplate, err := loadPromptTemplate(cfg.PromptTemplatePath)
	if err != nil {
		return nil, err
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return &GeminiGenerator{
		logger:         logger,
		config:         cfg,
		promptTemplate: promptTemplate,
		caller:         &genaiCaller{client: client},
		model:          cfg.ModelName,
	}, nil
}

func loadPromptTemplate(path string) (*template.Template, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
			generation.ErrInvalidConfig, path, err)
	}

	tmpl, err := template.New("records").Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v",
			generation.ErrInvalidConfig, err)
	}
	return tmpl, nil
}

// GenerateRecords implements generation.Generator. It builds a few-shot
// prompt from the schema, calls the Gemini API with retry, and parses the
// JSON response into domain records.
func (g *GeminiGenerator) GenerateRecords(
	ctx context.Context,
	schema *domain.Schema,
	req generation.Request,
) ([]*domain.Record, error) {
	prompt, err := g.createPrompt(ctx, schema, req)
	if err != nil {
		return nil, err
	}

	raw, err := g.callModelWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return g.parseResponse(ctx, schema, raw)
}

// createPrompt generates a prompt string from the template with the schema's
// field declarations and few-shot examples.
func (g *GeminiGenerator) createPrompt(
	ctx context.Context,
	schema *domain.Schema,
	req generation.Request,
) (string, error) {
	if schema == nil {
		return "", ErrNilSchema
	}
	if err := schema.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", generation.ErrInvalidConfig, err)
	}
	if req.Count <= 0 {
		return "", ErrInvalidCount
	}

	data := promptData{
		SchemaName:   schema.Name,
		Fields:       promptFields(schema),
		Examples:     schema.Examples,
		Count:        req.Count,
		Instructions: req.Instructions,
	}

	g.logger.DebugContext(ctx, "generating prompt from template",
		"schema", schema.Name,
		"count", req.Count,
		"example_count", len(schema.Examples))

	var promptBuffer bytes.Buffer
	if err := g.promptTemplate.Execute(&promptBuffer, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	prompt := promptBuffer.String()
	g.logger.DebugContext(ctx, "prompt generated successfully",
		"prompt_length", len(prompt))

	return prompt, nil
}

// promptFields flattens the schema's field declarations for the template.
func promptFields(schema *domain.Schema) []promptField {
	fields := make([]promptField, len(schema.Fields))
	for i, f := range schema.Fields {
		typ := string(f.Kind)
		if f.List {
			typ = "list of " + typ
		}
		if f.Optional {
			typ = "optional " + typ
		}
		fields[i] = promptField{
			Name:        f.Name,
			Type:        typ,
			Description: f.Description,
		}
	}
	return fields
}

// callModelWithRetry makes a call to the Gemini API with exponential backoff
// retry logic. Transient API errors are retried up to config.MaxRetries
// times with jitter; permanent errors (content blocked, malformed response)
// are returned immediately.
func (g *GeminiGenerator) callModelWithRetry(ctx context.Context, prompt string) (string, error) {
	maxRetries := g.config.MaxRetries
	baseDelaySeconds := g.config.RetryDelaySeconds
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	if maxRetries < 0 {
		g.logger.WarnContext(ctx, "invalid max retries value, using default", "max_retries", 3)
		maxRetries = 3
	}
	if baseDelaySeconds < 1 {
		g.logger.WarnContext(ctx, "invalid retry delay value, using default", "base_delay_seconds", 2)
		baseDelaySeconds = 2
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		attemptNum := attempt + 1
		g.logger.InfoContext(ctx, "making Gemini API call",
			"attempt", attemptNum,
			"max_attempts", maxRetries+1)

		text, err := g.caller.generateContent(ctx, g.model, prompt)
		if err == nil {
			g.logger.InfoContext(ctx, "Gemini API call successful", "attempt", attemptNum)
			return text, nil
		}
		lastErr = err

		g.logger.ErrorContext(ctx, "Gemini API call failed",
			"attempt", attemptNum,
			"error", err)

		// Permanent errors are not retried.
		if errors.Is(err, generation.ErrContentBlocked) || errors.Is(err, generation.ErrInvalidResponse) {
			g.logger.WarnContext(ctx, "permanent error occurred, not retrying")
			return "", err
		}

		if attempt >= maxRetries {
			break
		}

		// Exponential backoff with jitter:
		// delay = baseDelay * 2^attempt * (0.5 + rand(0, 0.5))
		backoffSeconds := float64(baseDelaySeconds) * math.Pow(2, float64(attempt))
		jitterFactor := 0.5 + rng.Float64()*0.5
		delay := time.Duration(backoffSeconds * jitterFactor * float64(time.Second))

		g.logger.InfoContext(ctx, "retrying after delay",
			"attempt", attemptNum,
			"delay_seconds", delay.Seconds())

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			g.logger.WarnContext(ctx, "API call cancelled during retry delay",
				"attempt", attemptNum,
				"ctx_err", ctx.Err())
			return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
	}

	return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
		generation.ErrTransientFailure, maxRetries, lastErr)
}

// parseResponse converts the model's raw JSON text into domain.Record
// objects. If any record in the response fails schema conformance, the
// method returns an error and no records are returned.
func (g *GeminiGenerator) parseResponse(
	ctx context.Context,
	schema *domain.Schema,
	raw string,
) ([]*domain.Record, error) {
	var envelope responseEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v",
			generation.ErrInvalidResponse, err)
	}

	if len(envelope.Records) == 0 {
		return nil, fmt.Errorf("%w: no records in response", generation.ErrInvalidResponse)
	}

	g.logger.InfoContext(ctx, "parsing Gemini API response",
		"record_count", len(envelope.Records),
		"schema", schema.Name)

	records := make([]*domain.Record, 0, len(envelope.Records))
	for i, values := range envelope.Records {
		// The model may omit optional fields entirely; treat omission as
		// the absent marker before conformance checking.
		for _, f := range schema.Fields {
			if _, ok := values[f.Name]; !ok && f.Optional {
				values[f.Name] = nil
			}
		}

		rec, err := domain.NewRecord(schema, values)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", generation.ErrInvalidResponse, i, err)
		}
		records = append(records, rec)
	}

	g.logger.InfoContext(ctx, "successfully parsed API response",
		"created_records", len(records))

	return records, nil
}

// genaiCaller is the production modelCaller backed by the genai client.
type genaiCaller struct {
	client *genai.Client
}

func (c *genaiCaller) generateContent(ctx context.Context, model, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		// API-level failures are assumed transient; the retry loop decides.
		return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
	}
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	text := ""
	for _, part := range candidate.Content.Parts {
		text += part.Text
	}
	return text, nil
}
