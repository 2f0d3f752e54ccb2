// Package wizard collects quorum.yaml settings through an interactive form.
package wizard

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"text/template"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/modelmux/quorum/internal/config"
)

// Answers holds all fields collected during the interactive setup.
type Answers struct {
	Providers     []string
	Strategy      string
	MaxConcurrent int
	TimeoutMs     int
	HistoryPath   string
	CacheEnabled  bool
}

const configTemplate = `# quorum.yaml
defaults:
  strategy: {{ .Strategy }}
  models:
{{- range .Providers }}
    - {{ . }}
{{- end }}

orchestrator:
  max_concurrent: {{ .MaxConcurrent }}
  timeout_ms: {{ .TimeoutMs }}

history:
  path: {{ .HistoryPath }}

cache:
  enabled: {{ .CacheEnabled }}
`

// RunSetupWizard runs an interactive huh form to collect orchestration
// settings, pre-populated with the built-in defaults.
func RunSetupWizard(in io.Reader, out io.Writer) (*Answers, error) {
	defaults := config.New()

	var (
		providers     = append([]string(nil), defaults.Defaults.Models...)
		strategy      = defaults.Defaults.Strategy
		concurrentRaw = strconv.Itoa(defaults.Orchestrator.MaxConcurrent)
		timeoutRaw    = strconv.Itoa(defaults.Orchestrator.TimeoutMs)
		historyPath   = defaults.History.Path
		cacheEnabled  = defaults.CacheEnabled()
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Providers").
				Description("Every round fans out to these unless --models overrides").
				Options(
					huh.NewOption("openai", "openai").Selected(slices.Contains(providers, "openai")),
					huh.NewOption("anthropic", "anthropic").Selected(slices.Contains(providers, "anthropic")),
					huh.NewOption("copilot", "copilot").Selected(slices.Contains(providers, "copilot")),
					huh.NewOption("static (offline)", "static").Selected(slices.Contains(providers, "static")),
				).
				Value(&providers).
				Validate(func(sel []string) error {
					if len(sel) == 0 {
						return fmt.Errorf("pick at least one provider")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Selection strategy").
				Description("How the winning response is picked").
				Options(
					huh.NewOption("quality", "quality"),
					huh.NewOption("speed", "speed"),
					huh.NewOption("cost", "cost"),
					huh.NewOption("balanced", "balanced"),
				).
				Value(&strategy),
			huh.NewInput().
				Title("Max concurrent provider calls").
				Value(&concurrentRaw).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Per-call timeout (ms)").
				Value(&timeoutRaw).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("History file").
				Value(&historyPath),
			huh.NewConfirm().
				Title("Cache rounds on disk?").
				Value(&cacheEnabled),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("setup wizard failed: %w", err)
	}

	maxConcurrent, err := strconv.Atoi(strings.TrimSpace(concurrentRaw))
	if err != nil {
		return nil, fmt.Errorf("invalid concurrency value %q", concurrentRaw)
	}
	timeoutMs, err := strconv.Atoi(strings.TrimSpace(timeoutRaw))
	if err != nil {
		return nil, fmt.Errorf("invalid timeout value %q", timeoutRaw)
	}

	return &Answers{
		Providers:     providers,
		Strategy:      strategy,
		MaxConcurrent: maxConcurrent,
		TimeoutMs:     timeoutMs,
		HistoryPath:   strings.TrimSpace(historyPath),
		CacheEnabled:  cacheEnabled,
	}, nil
}

// GenerateConfigYAML renders a quorum.yaml from the given answers.
func GenerateConfigYAML(a *Answers) (string, error) {
	tmpl, err := template.New("quorumyaml").Parse(configTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, a); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return fmt.Errorf("enter a positive integer")
	}
	return nil
}
