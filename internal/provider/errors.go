package provider

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies provider failures.
type ErrorKind string

const (
	KindConfiguration  ErrorKind = "configuration"
	KindTimeout        ErrorKind = "timeout"
	KindProcessFailure ErrorKind = "processFailure"
	KindOutput         ErrorKind = "output"
	KindCancelled      ErrorKind = "cancelled"
)

// Error is returned by runtimes and the dispatcher.
type Error struct {
	Kind     ErrorKind
	Provider string
	Message  string
	// Hint is a remediation suggestion for configuration errors.
	Hint     string
	Stderr   string
	ExitCode int
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Provider != "" {
		fmt.Fprintf(&b, "provider %s: ", e.Provider)
	}
	b.WriteString(e.Message)
	if e.Kind == KindProcessFailure {
		fmt.Fprintf(&b, " (exit code %d)", e.ExitCode)
		if e.Stderr != "" {
			fmt.Fprintf(&b, ": %s", e.Stderr)
		}
	} else if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Hint != "" {
		fmt.Fprintf(&b, " (%s)", e.Hint)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a provider Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == kind
}

func configError(providerID, msg, hint string) *Error {
	return &Error{Kind: KindConfiguration, Provider: providerID, Message: msg, Hint: hint}
}

func outputError(providerID, msg string) *Error {
	return &Error{Kind: KindOutput, Provider: providerID, Message: msg}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
