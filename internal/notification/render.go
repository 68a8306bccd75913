package notification

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	indent         = "\t"
	payloadLabel   = "Payload:"
	exceptionLabel = "Exception: "
)

// renderWorkerLine returns "<worker> failed processing <queue>".
// A missing side renders as an empty token; with both missing the line is empty.
func renderWorkerLine(r FailureRecord) string {
	if r.Worker == "" && r.Queue == "" {
		return ""
	}
	return r.Worker + " failed processing " + r.Queue
}

// renderPayload pretty-prints the payload as YAML, one tab of indentation per line
func renderPayload(r FailureRecord) string {
	if r.Payload == nil {
		return ""
	}

	text := payloadText(r.Payload)
	lines := strings.Split(text, "\n")

	var b strings.Builder
	b.WriteString(payloadLabel)
	for _, line := range lines {
		b.WriteString("\n")
		b.WriteString(indent)
		b.WriteString(line)
	}
	return b.String()
}

func payloadText(payload any) (text string) {
	if s, ok := payload.(string); ok {
		return strings.TrimRight(s, "\n")
	}

	// yaml panics on kinds it cannot encode (funcs, channels).
	defer func() {
		if recover() != nil {
			text = fmt.Sprintf("%+v", payload)
		}
	}()

	out, err := yaml.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%+v", payload)
	}
	return strings.TrimRight(string(out), "\n")
}

// renderExceptionSummary returns "Exception: <kind>: <message>" on one line
func renderExceptionSummary(r FailureRecord) string {
	if r.Exception == nil {
		return ""
	}
	summary := r.Exception.String()
	if summary == "" {
		return ""
	}
	return exceptionLabel + summary
}

// renderBacktraceLines returns the backtrace frames indented by one tab
func renderBacktraceLines(r FailureRecord) []string {
	if len(r.Backtrace) == 0 {
		return nil
	}

	lines := make([]string, 0, len(r.Backtrace))
	for _, frame := range r.Backtrace {
		// A frame is one line; embedded newlines would let the chunker split it.
		frame = strings.ReplaceAll(frame, "\n", " ")
		lines = append(lines, indent+frame)
	}
	return lines
}
