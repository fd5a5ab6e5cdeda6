package dispatch

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// maxDiagnosticBody bounds how much of a response body a Failure carries.
const maxDiagnosticBody = 200

// FailureKind classifies why an exchange did not succeed.
type FailureKind string

const (
	// FailureTransport means no response was received (connection, DNS, TLS,
	// timeout, cancellation).
	FailureTransport FailureKind = "transport"

	// FailureRejected means the service answered with a status other than 200.
	FailureRejected FailureKind = "rejected"

	// FailureDecode means the service answered 200 but the body is not JSON.
	FailureDecode FailureKind = "decode"

	// FailureRequest means the intent could not be rendered into a request,
	// e.g. an attachment could not be read. Nothing was sent.
	FailureRequest FailureKind = "request"

	// FailureInvalid means the operation was called with an unknown name or
	// invalid arguments. Nothing was sent.
	FailureInvalid FailureKind = "invalid"
)

// Failure is the typed failure half of a Result.
type Failure struct {
	Kind       FailureKind
	Message    string
	StatusCode int

	// Body is the start of the response body, truncated to a bounded size.
	Body string

	// Err is the underlying error, if any.
	Err error
}

func (f *Failure) Error() string {
	if f.StatusCode != 0 {
		return fmt.Sprintf("%s (%s, status %d)", f.Message, f.Kind, f.StatusCode)
	}
	return fmt.Sprintf("%s (%s)", f.Message, f.Kind)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// NewFailure creates a Failure.
func NewFailure(kind FailureKind, message string, err error) *Failure {
	return &Failure{Kind: kind, Message: message, Err: err}
}

// Result is the outcome of one operation: a decoded JSON payload or a typed
// failure, never both. Results are plain values so callers can inspect every
// failure instead of handling a crash.
type Result struct {
	Data    json.RawMessage
	Failure *Failure
}

// Success wraps a JSON payload.
func Success(data json.RawMessage) Result {
	return Result{Data: data}
}

// SuccessValue marshals v into a successful Result. A value that cannot be
// marshaled becomes a decode failure.
func SuccessValue(v any) Result {
	data, err := json.Marshal(v)
	if err != nil {
		return Fail(NewFailure(FailureDecode, "failed to encode result", err))
	}
	return Success(data)
}

// Fail wraps a failure.
func Fail(f *Failure) Result {
	return Result{Failure: f}
}

// OK reports whether the result is a success.
func (r Result) OK() bool {
	return r.Failure == nil
}

// Err returns the failure as an error, or nil on success.
func (r Result) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}

// Decode unmarshals a successful payload into v.
func (r Result) Decode(v any) error {
	if r.Failure != nil {
		return r.Failure
	}
	return json.Unmarshal(r.Data, v)
}

type failureJSON struct {
	Error  string      `json:"error"`
	Kind   FailureKind `json:"kind"`
	Status int         `json:"status,omitempty"`
	Body   string      `json:"body,omitempty"`
}

// MarshalJSON renders a success as its payload and a failure as
// {"error": …, "kind": …, "status": …}.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Failure != nil {
		return json.Marshal(failureJSON{
			Error:  r.Failure.Message,
			Kind:   r.Failure.Kind,
			Status: r.Failure.StatusCode,
			Body:   r.Failure.Body,
		})
	}
	if len(r.Data) == 0 {
		return []byte("null"), nil
	}
	return r.Data, nil
}

// truncate bounds diagnostic text to n bytes without splitting a rune.
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	for n > 0 && !utf8.RuneStart(b[n]) {
		n--
	}
	return string(b[:n]) + "..."
}
