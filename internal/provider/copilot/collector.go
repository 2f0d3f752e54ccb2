package copilot

import (
	"context"
	"log/slog"
	"strings"

	sdk "github.com/github/copilot-sdk/go"
)

const sessionFailedUnknown = "session failed with unknown error"

// outputCollector accumulates the assistant's text from session events.
// SendAndWait blocks until the session settles, so the collector only needs
// to gather parts and remember a session-level error.
type outputCollector struct {
	outputParts []string
	errorMsg    string
}

// on is a callback, intended to be passed to [sdk.Session.On] to receive
// events in real-time.
func (c *outputCollector) on(event sdk.SessionEvent) {
	logEvent(event)

	switch event.Type {
	case sdk.AssistantMessage, sdk.AssistantMessageDelta:
		if event.Data.Content != nil {
			c.outputParts = append(c.outputParts, *event.Data.Content)
		}

	case sdk.SessionError:
		if event.Data.Message == nil || *event.Data.Message == "" {
			c.errorMsg = sessionFailedUnknown
		} else {
			c.errorMsg = *event.Data.Message
		}
	}
}

// logEvent traces session events at debug level. Fields are only added when
// the SDK populated them, so delta spam stays readable.
func logEvent(event sdk.SessionEvent) {
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}

	attrs := []any{
		"type", event.Type,
	}

	attrs = addIf(attrs, "content", event.Data.Content)
	attrs = addIf(attrs, "deltaContent", event.Data.DeltaContent)
	attrs = addIf(attrs, "toolName", event.Data.ToolName)
	attrs = addIf(attrs, "toolResult", event.Data.Result)
	attrs = addIf(attrs, "toolCallID", event.Data.ToolCallID)
	attrs = addIf(attrs, "message", event.Data.Message)

	slog.Debug("copilot session event", attrs...)
}

func addIf[T any](attrs []any, name string, v *T) []any {
	if v != nil {
		attrs = append(attrs, name, *v)
	}
	return attrs
}

// output joins the collected text parts.
func (c *outputCollector) output() string {
	var sb strings.Builder
	for _, p := range c.outputParts {
		sb.WriteString(p)
	}
	return sb.String()
}
