package backend

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const maxDetailBytes = 800

// Class is the outcome category of a backend call.
type Class int

const (
	ClassSuccess Class = iota
	// ClassAuthRequired covers 401s, redirects to a login page and HTML served for an API path.
	ClassAuthRequired
	ClassForbidden
	ClassValidationFailed
	ClassNotFound
	ClassServerError
)

func (c Class) String() string {
	switch c {
	case ClassSuccess:
		return "success"
	case ClassAuthRequired:
		return "auth_required"
	case ClassForbidden:
		return "forbidden"
	case ClassValidationFailed:
		return "validation_failed"
	case ClassNotFound:
		return "not_found"
	case ClassServerError:
		return "server_error"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// Violation is a field-level complaint returned by the backend.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// apiErrorBody mirrors the backend's JSON error envelope.
type apiErrorBody struct {
	Status     int         `json:"status"`
	Error      string      `json:"error"`
	Message    string      `json:"message"`
	Path       string      `json:"path"`
	Violations []Violation `json:"violations"`
}

// Error is a classified backend failure.
type Error struct {
	Class      Class
	Status     int
	Method     string
	Path       string
	Message    string
	Body       string
	Violations []Violation
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %s (%d): %s", e.Method, e.Path, e.Class, e.Status, e.Message)
}

// Describe renders the error for an operator, violations included.
func (e *Error) Describe() string {
	var b strings.Builder
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", e.Status)
	}
	fmt.Fprintf(&b, "API error (%d): %s", e.Status, msg)
	for _, v := range e.Violations {
		fmt.Fprintf(&b, "\n- %s: %s", v.Field, v.Message)
	}
	if e.Body != "" && e.Body != msg && e.Class != ClassAuthRequired {
		fmt.Fprintf(&b, "\n\nDetails:\n%s", truncate(e.Body, maxDetailBytes))
	}
	return b.String()
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// ClassOf returns the class of err, ClassSuccess for nil and ClassServerError
// for anything that is not a classified backend error.
func ClassOf(err error) Class {
	if err == nil {
		return ClassSuccess
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Class
	}
	return ClassServerError
}

// IsAuthRequired reports whether err means the session is gone.
func IsAuthRequired(err error) bool {
	return err != nil && ClassOf(err) == ClassAuthRequired
}

// Message returns a human readable message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Describe()
	}
	return err.Error()
}
