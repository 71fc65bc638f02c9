// Package mcpserver exposes docbert's core operations as MCP stdio
// tools, grounded on the teacher's internal/mcp package.
package mcpserver

import (
	"context"
	"errors"
	"fmt"

	docerrors "github.com/docbert/docbert/internal/errors"
)

// Standard JSON-RPC error codes, plus docbert's own range starting at
// -32001, mirroring the teacher's own code allocation.
const (
	ErrCodeNotFound      = -32001
	ErrCodeEncoderFailed = -32002
	ErrCodeTimeout       = -32003
	ErrCodeCorruption    = -32004

	ErrCodeInvalidParams  = -32602
	ErrCodeMethodNotFound = -32601
	ErrCodeInternalError  = -32603
)

// ToolError is an MCP protocol error with a JSON-RPC-shaped code.
type ToolError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("mcp error %d: %s", e.Code, e.Message)
}

// MapError converts a docbert error into a ToolError, dispatching on
// Kind rather than a teacher-style Category, since internal/errors
// classifies along docbert's own taxonomy (spec.md §7).
func MapError(err error) *ToolError {
	if err == nil {
		return nil
	}

	var de *docerrors.DocbertError
	if errors.As(err, &de) {
		return mapDocbertError(de)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &ToolError{Code: ErrCodeTimeout, Message: "request timed out"}
	default:
		return &ToolError{Code: ErrCodeInternalError, Message: "internal server error"}
	}
}

func mapDocbertError(de *docerrors.DocbertError) *ToolError {
	message := de.Message
	if de.Suggestion != "" {
		message = fmt.Sprintf("%s %s", de.Message, de.Suggestion)
	}

	if docerrors.IsCorruption(de) {
		return &ToolError{Code: ErrCodeCorruption, Message: message}
	}

	switch de.Kind {
	case docerrors.KindNotFound:
		return &ToolError{Code: ErrCodeNotFound, Message: message}
	case docerrors.KindConfig:
		return &ToolError{Code: ErrCodeInvalidParams, Message: message}
	case docerrors.KindEncoder:
		return &ToolError{Code: ErrCodeEncoderFailed, Message: message}
	case docerrors.KindIo, docerrors.KindDataDir, docerrors.KindTextIndex, docerrors.KindStore:
		return &ToolError{Code: ErrCodeInternalError, Message: message}
	default:
		return &ToolError{Code: ErrCodeInternalError, Message: message}
	}
}

func newInvalidParamsError(msg string) *ToolError {
	return &ToolError{Code: ErrCodeInvalidParams, Message: msg}
}
