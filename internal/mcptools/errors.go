package mcptools

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a tool failure. Codes are stable and part of the
// text returned to the model.
type ErrorCode string

const (
	CodeToolGroupDisabled       ErrorCode = "toolGroupDisabled"
	CodeInvalidBundleIdentifier ErrorCode = "invalidBundleIdentifier"
	CodeApplicationNotFound     ErrorCode = "applicationNotFound"
	CodeInvalidURL              ErrorCode = "invalidURL"
	CodeLaunchFailed            ErrorCode = "launchFailed"
	CodeClipboardUnavailable    ErrorCode = "clipboardUnavailable"
	CodeCopyFailed              ErrorCode = "copyFailed"
	CodeSelectionTimeout        ErrorCode = "selectionTimeout"
	CodeSelectionEmpty          ErrorCode = "selectionEmpty"
)

// ToolError is returned by tool handlers. The SDK turns it into an error
// result for the caller.
type ToolError struct {
	Code    ErrorCode
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func toolErrorf(code ErrorCode, format string, args ...any) *ToolError {
	return &ToolError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code of a ToolError, or "" for any other error.
func CodeOf(err error) ErrorCode {
	var te *ToolError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}
