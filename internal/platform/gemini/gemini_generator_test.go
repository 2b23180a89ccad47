package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/synthgen/internal/config"
	"github.com/phrazzld/synthgen/internal/domain"
	"github.com/phrazzld/synthgen/internal/generation"
)

const testTemplate = `Schema: {{.SchemaName}}
Fields:
{{- range .Fields}}
- {{.Name}} ({{.Type}}){{if .Description}}: {{.Description}}{{end}}
{{- end}}
Examples:
{{- range .Examples}}
{{.}}
{{- end}}
Count: {{.Count}}
{{- if .Instructions}}
Instructions: {{.Instructions}}
{{- end}}`

func writeTestTemplate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.tmpl")
	require.NoError(t, os.WriteFile(path, []byte(testTemplate), 0o644))
	return path
}

func telemetrySchema() *domain.Schema {
	return &domain.Schema{
		Name: "telemetry",
		Fields: []domain.Field{
			{Name: "device_id", Kind: domain.KindString, Description: "opaque device identifier"},
			{Name: "temperature", Kind: domain.KindNumber},
			{Name: "online", Kind: domain.KindBool},
			{Name: "alerts", Kind: domain.KindString, List: true, Optional: true},
		},
		Examples: []string{
			`{"device_id":"dev-1","temperature":21.4,"online":true,"alerts":[]}`,
		},
	}
}

// stubCaller scripts the modelCaller seam: each call pops the next result.
type stubCaller struct {
	results []stubResult
	calls   int
	prompts []string
}

type stubResult struct {
	text string
	err  error
}

func (s *stubCaller) generateContent(ctx context.Context, model, prompt string) (string, error) {
	s.calls++
	s.prompts = append(s.prompts, prompt)
	if len(s.results) == 0 {
		return "", errors.New("stubCaller: no scripted results left")
	}
	r := s.results[0]
	s.results = s.results[1:]
	return r.text, r.err
}

func testGenerator(t *testing.T, caller modelCaller) *GeminiGenerator {
	t.Helper()
	tmpl, err := loadPromptTemplate(writeTestTemplate(t))
	require.NoError(t, err)
	return &GeminiGenerator{
		logger:         slog.Default(),
		config:         config.LLMConfig{MaxRetries: 2, RetryDelaySeconds: 1},
		promptTemplate: tmpl,
		caller:         caller,
		model:          "gemini-test",
	}
}

func TestNewGeminiGenerator(t *testing.T) {
	templatePath := writeTestTemplate(t)

	tests := []struct {
		name        string
		logger      *slog.Logger
		config      config.LLMConfig
		expectError bool
		errorType   error
		errorMsg    string
	}{
		{
			name:        "nil_logger_returns_error",
			logger:      nil,
			config:      config.LLMConfig{PromptTemplatePath: templatePath},
			expectError: true,
			errorMsg:    "logger cannot be nil",
		},
		{
			name:   "missing_api_key_returns_config_error",
			logger: slog.Default(),
			config: config.LLMConfig{
				ModelName:          "gemini-2.0-flash",
				PromptTemplatePath: templatePath,
			},
			expectError: true,
			errorType:   generation.ErrInvalidConfig,
			errorMsg:    "gemini API key cannot be empty",
		},
		{
			name:   "missing_model_name_returns_config_error",
			logger: slog.Default(),
			config: config.LLMConfig{
				GeminiAPIKey:       "test-api-key",
				PromptTemplatePath: templatePath,
			},
			expectError: true,
			errorType:   generation.ErrInvalidConfig,
			errorMsg:    "model name cannot be empty",
		},
		{
			name:   "empty_template_path_returns_config_error",
			logger: slog.Default(),
			config: config.LLMConfig{
				GeminiAPIKey: "test-api-key",
				ModelName:    "gemini-2.0-flash",
			},
			expectError: true,
			errorType:   generation.ErrInvalidConfig,
			errorMsg:    "prompt template path cannot be empty",
		},
		{
			name:   "missing_template_file_returns_config_error",
			logger: slog.Default(),
			config: config.LLMConfig{
				GeminiAPIKey:       "test-api-key",
				ModelName:          "gemini-2.0-flash",
				PromptTemplatePath: filepath.Join(t.TempDir(), "missing.tmpl"),
			},
			expectError: true,
			errorType:   generation.ErrInvalidConfig,
			errorMsg:    "failed to read prompt template",
		},
		{
			name:   "valid_config_returns_generator",
			logger: slog.Default(),
			config: config.LLMConfig{
				GeminiAPIKey:       "test-api-key",
				ModelName:          "gemini-2.0-flash",
				PromptTemplatePath: templatePath,
				MaxRetries:         3,
				RetryDelaySeconds:  2,
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			generator, err := NewGeminiGenerator(ctx, tt.logger, tt.config)

			if tt.expectError {
				require.Error(t, err)
				assert.Nil(t, generator)
				assert.Contains(t, err.Error(), tt.errorMsg)
				if tt.errorType != nil {
					assert.ErrorIs(t, err, tt.errorType)
				}
			} else {
				require.NoError(t, err)
				require.NotNil(t, generator)
				assert.Implements(t, (*generation.Generator)(nil), generator)
			}
		})
	}
}

func TestCreatePrompt(t *testing.T) {
	g := testGenerator(t, &stubCaller{})
	schema := telemetrySchema()

	prompt, err := g.createPrompt(context.Background(), schema, generation.Request{
		Count:        5,
		Instructions: "temperatures in celsius",
	})
	require.NoError(t, err)

	assert.Contains(t, prompt, "Schema: telemetry")
	assert.Contains(t, prompt, "- device_id (string): opaque device identifier")
	assert.Contains(t, prompt, "- alerts (optional list of string)")
	assert.Contains(t, prompt, `{"device_id":"dev-1"`)
	assert.Contains(t, prompt, "Count: 5")
	assert.Contains(t, prompt, "Instructions: temperatures in celsius")
}

func TestCreatePromptValidation(t *testing.T) {
	g := testGenerator(t, &stubCaller{})

	_, err := g.createPrompt(context.Background(), nil, generation.Request{Count: 5})
	assert.ErrorIs(t, err, ErrNilSchema)

	_, err = g.createPrompt(context.Background(), telemetrySchema(), generation.Request{Count: 0})
	assert.ErrorIs(t, err, ErrInvalidCount)
}

func TestGenerateRecordsParsesResponse(t *testing.T) {
	response := `{"records": [
		{"device_id": "dev-7", "temperature": 19.5, "online": true, "alerts": ["overheat"]},
		{"device_id": "dev-8", "temperature": -3, "online": false}
	]}`
	caller := &stubCaller{results: []stubResult{{text: response}}}
	g := testGenerator(t, caller)

	records, err := g.GenerateRecords(context.Background(), telemetrySchema(), generation.Request{Count: 2})
	require.NoError(t, err)
	require.Len(t, records, 2)

	v, _ := records[0].Value("temperature")
	assert.Equal(t, 19.5, v)

	// Omitted optional field becomes the absent marker.
	v, ok := records[1].Value("alerts")
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestGenerateRecordsInvalidResponses(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "malformed_json", response: `{"records": [`},
		{name: "empty_records", response: `{"records": []}`},
		{name: "nonconforming_record", response: `{"records": [{"device_id": 42}]}`},
		{name: "undeclared_field", response: `{"records": [{"device_id": "d", "temperature": 1, "online": true, "battery": 0.4}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caller := &stubCaller{results: []stubResult{{text: tt.response}}}
			g := testGenerator(t, caller)

			_, err := g.GenerateRecords(context.Background(), telemetrySchema(), generation.Request{Count: 1})
			assert.ErrorIs(t, err, generation.ErrInvalidResponse)
		})
	}
}

func TestCallModelWithRetryTransientThenSuccess(t *testing.T) {
	transient := fmt.Errorf("%w: 503", generation.ErrTransientFailure)
	caller := &stubCaller{results: []stubResult{
		{err: transient},
		{text: `{"records": [{"device_id": "d", "temperature": 1, "online": true}]}`},
	}}
	g := testGenerator(t, caller)

	records, err := g.GenerateRecords(context.Background(), telemetrySchema(), generation.Request{Count: 1})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 2, caller.calls)
}

func TestCallModelWithRetryPermanentNotRetried(t *testing.T) {
	blocked := fmt.Errorf("%w: safety", generation.ErrContentBlocked)
	caller := &stubCaller{results: []stubResult{{err: blocked}}}
	g := testGenerator(t, caller)

	_, err := g.GenerateRecords(context.Background(), telemetrySchema(), generation.Request{Count: 1})
	assert.ErrorIs(t, err, generation.ErrContentBlocked)
	assert.Equal(t, 1, caller.calls, "permanent errors must not be retried")
}

func TestCallModelWithRetryExhaustsAttempts(t *testing.T) {
	transient := fmt.Errorf("%w: 503", generation.ErrTransientFailure)
	caller := &stubCaller{results: []stubResult{
		{err: transient}, {err: transient}, {err: transient}, {err: transient},
	}}
	g := testGenerator(t, caller)

	_, err := g.GenerateRecords(context.Background(), telemetrySchema(), generation.Request{Count: 1})
	assert.ErrorIs(t, err, generation.ErrTransientFailure)
	assert.Equal(t, 3, caller.calls, "MaxRetries=2 means three attempts")
}
