// Package rpcerr defines the JSON-RPC 2.0 error taxonomy (spec §6/§7) and its
// bidirectional conversion with entity.ErrorDetails. Grounded on the
// teacher's internal/mcp/errors + internal/mcperror (two generations of the
// same idea, collapsed here into one), built on cockroachdb/errors for
// stack-trace-preserving wraps and structured detail attachment.
// file: rpcerr/rpcerr.go
package rpcerr

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/dkoosis/jsonrpcx/entity"
)

// Reserved JSON-RPC 2.0 error codes (spec §6).
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	// CodeTimeout is this module's own reservation within the -32000..-32099
	// server-error range, used for the timeout fix described in spec §9.
	CodeTimeout = -32000
	// CodeStreamClosed reports a pending call resolved by endpoint shutdown.
	CodeStreamClosed = -32001
)

// ServerErrorLow and ServerErrorHigh bound the application-defined range.
const (
	ServerErrorLow  = -32099
	ServerErrorHigh = -32000
)

// Error is a JSON-RPC error, carrying a code/message/data triple and
// implementing the standard error interface.
type Error struct {
	Code    int
	Message string
	Data    any
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// ToErrorDetails converts to the wire-level entity.ErrorDetails shape.
func (e *Error) ToErrorDetails() entity.ErrorDetails {
	return entity.ErrorDetails{Code: e.Code, Message: e.Message, Data: e.Data}
}

// FromErrorDetails copies an inbound entity.ErrorDetails into an *Error with
// the code, message and data unchanged. Every code yields the same *Error
// type; reserved codes, the -32000..-32099 range and other codes are not
// mapped to distinct types and are told apart only by Code.
func FromErrorDetails(d entity.ErrorDetails) *Error {
	return &Error{Code: d.Code, Message: d.Message, Data: d.Data}
}

// ParseError reports bytes that did not parse as JSON.
func ParseError(cause error) *Error {
	return &Error{Code: CodeParseError, Message: "parse error", Data: detailOf(cause)}
}

// InvalidRequest reports structurally valid JSON that is not a valid entity.
func InvalidRequest(cause error) *Error {
	return &Error{Code: CodeInvalidRequest, Message: "invalid request", Data: detailOf(cause)}
}

// MethodNotFound reports an unknown namespace or method.
func MethodNotFound(method string) *Error {
	return &Error{Code: CodeMethodNotFound, Message: fmt.Sprintf("method not found: %s", method)}
}

// InvalidParams reports an arity/keyword mismatch at dispatch.
func InvalidParams(method string, cause error) *Error {
	return &Error{
		Code:    CodeInvalidParams,
		Message: fmt.Sprintf("invalid params for method %s", method),
		Data:    detailOf(cause),
	}
}

// InternalError reports a handler failure that isn't a typed *Error.
func InternalError(cause error) *Error {
	wrapped := errors.Wrap(cause, "handler failed")
	return &Error{Code: CodeInternalError, Message: "internal error", Data: fmt.Sprintf("%+v", wrapped)}
}

// Timeout reports a call that exceeded its deadline — the redesign fix from
// spec §9 (the source's kill_timeout never actually fired).
func Timeout(method string) *Error {
	return &Error{Code: CodeTimeout, Message: fmt.Sprintf("call to %s timed out", method)}
}

// StreamClosed reports a pending call resolved because the endpoint closed.
func StreamClosed() *Error {
	return &Error{Code: CodeStreamClosed, Message: "endpoint closed"}
}

func detailOf(cause error) any {
	if cause == nil {
		return nil
	}
	return cause.Error()
}

// Wrap attaches category/code details to a non-RPC internal error using the
// same errors.WithDetail convention as the teacher's ErrorWithDetails helper.
func Wrap(cause error, category string, code int) error {
	err := errors.WithDetail(cause, fmt.Sprintf("category:%s", category))
	return errors.WithDetail(err, fmt.Sprintf("code:%d", code))
}
