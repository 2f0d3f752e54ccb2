package validation

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const validRequestJSON = `{
  "prompt": "Write a function that reverses a string.",
  "models": ["openai", "anthropic"],
  "selectionStrategy": "quality"
}`

const validFullRequestJSON = `{
  "prompt": "Write a function that reverses a string.",
  "models": ["openai", "anthropic", "copilot"],
  "selectionStrategy": "balanced",
  "context": {"platform": "ios", "app": "notes"},
  "systemPrompt": "You are terse.",
  "tier": 3,
  "enforcePolicyCheck": true,
  "taskType": "code"
}`

func TestValidateOrchestrateRequest_Valid(t *testing.T) {
	require.Empty(t, ValidateOrchestrateRequest([]byte(validRequestJSON)))
	require.Empty(t, ValidateOrchestrateRequest([]byte(validFullRequestJSON)))
}

func TestValidateOrchestrateRequest_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantHint string
	}{
		{
			name:     "missing prompt",
			body:     `{"models": ["openai"], "selectionStrategy": "quality"}`,
			wantHint: "prompt",
		},
		{
			name:     "empty prompt",
			body:     `{"prompt": "", "models": ["openai"], "selectionStrategy": "quality"}`,
			wantHint: "/prompt",
		},
		{
			name:     "prompt too long",
			body:     fmt.Sprintf(`{"prompt": %q, "models": ["openai"], "selectionStrategy": "quality"}`, strings.Repeat("a", 5001)),
			wantHint: "/prompt",
		},
		{
			name:     "missing models",
			body:     `{"prompt": "hi", "selectionStrategy": "quality"}`,
			wantHint: "models",
		},
		{
			name:     "empty models",
			body:     `{"prompt": "hi", "models": [], "selectionStrategy": "quality"}`,
			wantHint: "/models",
		},
		{
			name:     "too many models",
			body:     `{"prompt": "hi", "models": ["a","b","c","d","e","f","g","h","i","j","k"], "selectionStrategy": "quality"}`,
			wantHint: "/models",
		},
		{
			name:     "non-string model",
			body:     `{"prompt": "hi", "models": [42], "selectionStrategy": "quality"}`,
			wantHint: "/models/0",
		},
		{
			name:     "missing strategy",
			body:     `{"prompt": "hi", "models": ["openai"]}`,
			wantHint: "selectionStrategy",
		},
		{
			name:     "unknown strategy",
			body:     `{"prompt": "hi", "models": ["openai"], "selectionStrategy": "fastest"}`,
			wantHint: "/selectionStrategy",
		},
		{
			name:     "tier below range",
			body:     `{"prompt": "hi", "models": ["openai"], "selectionStrategy": "quality", "tier": 0}`,
			wantHint: "/tier",
		},
		{
			name:     "tier above range",
			body:     `{"prompt": "hi", "models": ["openai"], "selectionStrategy": "quality", "tier": 6}`,
			wantHint: "/tier",
		},
		{
			name:     "fractional tier",
			body:     `{"prompt": "hi", "models": ["openai"], "selectionStrategy": "quality", "tier": 2.5}`,
			wantHint: "/tier",
		},
		{
			name:     "non-string context value",
			body:     `{"prompt": "hi", "models": ["openai"], "selectionStrategy": "quality", "context": {"retries": 3}}`,
			wantHint: "/context/retries",
		},
		{
			name:     "unknown task type",
			body:     `{"prompt": "hi", "models": ["openai"], "selectionStrategy": "quality", "taskType": "poetry"}`,
			wantHint: "/taskType",
		},
		{
			name:     "unknown top-level field",
			body:     `{"prompt": "hi", "models": ["openai"], "selectionStrategy": "quality", "retries": 3}`,
			wantHint: "retries",
		},
		{
			name:     "not an object",
			body:     `["prompt"]`,
			wantHint: "/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateOrchestrateRequest([]byte(tt.body))
			require.NotEmpty(t, errs, "body should fail validation")
			require.Contains(t, joinErrs(errs), tt.wantHint)
		})
	}
}

func TestValidateOrchestrateRequest_MalformedJSON(t *testing.T) {
	errs := ValidateOrchestrateRequest([]byte(`{"prompt": `))
	require.Len(t, errs, 1)
	require.Contains(t, errs[0], "JSON parse error")
}

func joinErrs(errs []string) string {
	result := ""
	for _, e := range errs {
		result += e + "\n"
	}
	return result
}
