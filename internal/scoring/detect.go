package scoring

import (
	"strings"

	"github.com/modelmux/quorum/internal/models"
)

var codePromptPatterns = []string{
	"code",
	"function",
	"component",
	"implement",
	"script",
	"class ",
	"bug",
	"refactor",
	"typescript",
	"javascript",
	"python",
	"golang",
	"sql",
	"regex",
	"algorithm",
}

// DetectTaskType infers the task type from the prompt when the caller did
// not specify one. Prompts that read like programming requests score with
// the code heuristics; everything else is treated as prose.
func DetectTaskType(prompt string) models.TaskType {
	lower := strings.ToLower(prompt)
	for _, p := range codePromptPatterns {
		if strings.Contains(lower, p) {
			return models.TaskCode
		}
	}
	return models.TaskText
}
