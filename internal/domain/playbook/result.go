package playbook

import "fmt"

// Kind classifies the outcome of a generation call.
type Kind int

const (
	KindOK Kind = iota
	KindConnect
	KindTimeout
	KindParse
	KindHTTPStatus
	KindStructure
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindConnect:
		return "connect"
	case KindTimeout:
		return "timeout"
	case KindParse:
		return "parse"
	case KindHTTPStatus:
		return "http_status"
	case KindStructure:
		return "structure"
	default:
		return "unknown"
	}
}

// Result is either generated text (Kind == KindOK) or a classified failure
// message. Exactly one of Text and Message is set.
type Result struct {
	Kind    Kind
	Text    string
	Message string
	// Status is the HTTP status when a response was received.
	Status int
}

// Success wraps generated text.
func Success(text string) Result {
	return Result{Kind: KindOK, Text: text}
}

// Failure builds a classified failure. KindOK is coerced to KindUnknown so a
// failure can never look like a success.
func Failure(kind Kind, status int, format string, args ...any) Result {
	if kind == KindOK {
		kind = KindUnknown
	}
	return Result{Kind: kind, Status: status, Message: fmt.Sprintf(format, args...)}
}

// OK reports whether generation succeeded.
func (r Result) OK() bool { return r.Kind == KindOK }

// String returns the text on success and the failure message otherwise.
func (r Result) String() string {
	if r.OK() {
		return r.Text
	}
	return r.Message
}
