package notification

import "strings"

// DefaultMaxBlockChars is the default character budget of a single block.
// Chat endpoints typically cap messages around 4000 characters.
const DefaultMaxBlockChars = 3500

// Exception describes the error that made a job fail
type Exception struct {
	Kind    string `json:"class" yaml:"class"`
	Message string `json:"message" yaml:"message"`
}

// String renders the exception on a single line as "Kind: Message"
func (e Exception) String() string {
	kind := strings.TrimSpace(e.Kind)
	msg := strings.Join(strings.Fields(e.Message), " ")

	switch {
	case kind == "":
		return msg
	case msg == "":
		return kind
	default:
		return kind + ": " + msg
	}
}

// FailureRecord is one failed job execution as reported by the job queue.
// Every field is optional.
type FailureRecord struct {
	Worker    string     `json:"worker"`
	Queue     string     `json:"queue"`
	Payload   any        `json:"payload,omitempty"`
	Exception *Exception `json:"exception,omitempty"`
	Backtrace []string   `json:"backtrace,omitempty"`
}

// ExceptionKind returns the exception kind, or "" when no exception is set
func (r FailureRecord) ExceptionKind() string {
	if r.Exception == nil {
		return ""
	}
	return strings.TrimSpace(r.Exception.Kind)
}
