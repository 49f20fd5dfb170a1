// Package errors defines the error kinds surfaced by the client. Every error
// returned to callers is an *Error (possibly wrapped) carrying a stable Kind,
// a human readable message and, for engine errors, the raw payload.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
)

// Kind is a stable identifier for a class of errors.
type Kind string

const (
	// Client lifecycle.
	KindNotConnected            Kind = "not-connected"
	KindAlreadyConnected        Kind = "already-connected"
	KindClientClosed            Kind = "client-closed"
	KindClientNotRegistered     Kind = "client-not-registered"
	KindClientAlreadyRegistered Kind = "client-already-registered"

	// Engine lifecycle.
	KindBinaryNotFound   Kind = "binary-not-found"
	KindVersionMismatch  Kind = "version-mismatch"
	KindEngineConnection Kind = "engine-connection"

	// Transport.
	KindTransportTimeout Kind = "transport-timeout"
	KindTransport        Kind = "transport"

	// Wire and protocol.
	KindUnprocessableEntity Kind = "unprocessable-entity"
	KindEngineRequest       Kind = "engine-request"
	KindMalformedResponse   Kind = "malformed-response"

	// Data errors reported by the engine.
	KindData                 Kind = "data"
	KindUniqueViolation      Kind = "unique-violation"
	KindForeignKeyViolation  Kind = "foreign-key-violation"
	KindFieldNotFound        Kind = "field-not-found"
	KindRawQuery             Kind = "raw-query"
	KindMissingRequiredValue Kind = "missing-required-value"
	KindInput                Kind = "input-error"
	KindTableNotFound        Kind = "table-not-found"
	KindRecordNotFound       Kind = "record-not-found"

	// Validation, raised before a request is sent.
	KindInvalidModel           Kind = "invalid-model"
	KindUnknownModel           Kind = "unknown-model"
	KindUnknownRelationalField Kind = "unknown-relational-field"
	KindInvalidIncludeValue    Kind = "invalid-include-value"
	KindIncludeWithoutModel    Kind = "include-without-model"
	KindNotSerializable        Kind = "not-serializable"

	// Interactive transactions.
	KindTransactionNotStarted Kind = "transaction-not-started"
	KindTransactionClosed     Kind = "transaction-closed"
)

// IsData reports whether k is KindData or one of its refinements.
func (k Kind) IsData() bool {
	switch k {
	case KindData, KindUniqueViolation, KindForeignKeyViolation, KindFieldNotFound,
		KindRawQuery, KindMissingRequiredValue, KindInput, KindTableNotFound, KindRecordNotFound:
		return true
	}
	return false
}

// parent returns the kind k refines, if any.
func (k Kind) parent() Kind {
	switch {
	case k == KindData:
		return ""
	case k.IsData():
		return KindData
	case k == KindUnprocessableEntity:
		return KindEngineRequest
	}
	return ""
}

// Error is the concrete error type returned by the client.
type Error struct {
	Kind    Kind
	Message string

	// Code is the engine error code, e.g. P2002.
	Code string
	// Meta is the engine supplied metadata, e.g. {"target": ["email"]}.
	Meta map[string]any
	// Model and Field name the schema element a validation error refers to.
	Model string
	Field string
	// Status is the HTTP status of a failed engine request.
	Status int
	// Payload is the raw server response that produced the error.
	Payload json.RawMessage

	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Cause != nil && e.Message == "" {
		return fmt.Sprintf("prisma: %s: %v", msg, e.Cause)
	}
	return "prisma: " + msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error of the same kind. A data error subkind also
// matches ErrData and an unprocessable entity error matches ErrEngineRequest.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	for k := e.Kind; k != ""; k = k.parent() {
		if k == t.Kind {
			return true
		}
	}
	return false
}

// New creates an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind caused by err.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: err}
}

// Sentinels for use with errors.Is.
var (
	ErrNotConnected            = &Error{Kind: KindNotConnected}
	ErrAlreadyConnected        = &Error{Kind: KindAlreadyConnected}
	ErrClientClosed            = &Error{Kind: KindClientClosed}
	ErrClientNotRegistered     = &Error{Kind: KindClientNotRegistered}
	ErrClientAlreadyRegistered = &Error{Kind: KindClientAlreadyRegistered}

	ErrBinaryNotFound   = &Error{Kind: KindBinaryNotFound}
	ErrVersionMismatch  = &Error{Kind: KindVersionMismatch}
	ErrEngineConnection = &Error{Kind: KindEngineConnection}

	ErrTransportTimeout = &Error{Kind: KindTransportTimeout}
	ErrTransport        = &Error{Kind: KindTransport}

	ErrUnprocessableEntity = &Error{Kind: KindUnprocessableEntity}
	ErrEngineRequest       = &Error{Kind: KindEngineRequest}
	ErrMalformedResponse   = &Error{Kind: KindMalformedResponse}

	ErrData                 = &Error{Kind: KindData}
	ErrUniqueViolation      = &Error{Kind: KindUniqueViolation}
	ErrForeignKeyViolation  = &Error{Kind: KindForeignKeyViolation}
	ErrFieldNotFound        = &Error{Kind: KindFieldNotFound}
	ErrRawQuery             = &Error{Kind: KindRawQuery}
	ErrMissingRequiredValue = &Error{Kind: KindMissingRequiredValue}
	ErrInput                = &Error{Kind: KindInput}
	ErrTableNotFound        = &Error{Kind: KindTableNotFound}
	ErrRecordNotFound       = &Error{Kind: KindRecordNotFound}

	ErrInvalidModel           = &Error{Kind: KindInvalidModel}
	ErrUnknownModel           = &Error{Kind: KindUnknownModel}
	ErrUnknownRelationalField = &Error{Kind: KindUnknownRelationalField}
	ErrInvalidIncludeValue    = &Error{Kind: KindInvalidIncludeValue}
	ErrIncludeWithoutModel    = &Error{Kind: KindIncludeWithoutModel}
	ErrNotSerializable        = &Error{Kind: KindNotSerializable}

	ErrTransactionNotStarted = &Error{Kind: KindTransactionNotStarted}
	ErrTransactionClosed     = &Error{Kind: KindTransactionClosed}
)

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// As is errors.As specialised to *Error.
func As(err error) (*Error, bool) {
	var e *Error
	ok := stderrors.As(err, &e)
	return e, ok
}

// IsNotFound checks if an error is a record not found error.
func IsNotFound(err error) bool {
	return stderrors.Is(err, ErrRecordNotFound)
}

// IsUniqueViolation checks if an error is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	return stderrors.Is(err, ErrUniqueViolation)
}

// IsForeignKeyViolation checks if an error is a foreign key constraint violation.
func IsForeignKeyViolation(err error) bool {
	return stderrors.Is(err, ErrForeignKeyViolation)
}

// IsData checks if an error was reported by the engine about the data.
func IsData(err error) bool {
	return stderrors.Is(err, ErrData)
}

// IsTransport checks if an error is a transport failure or timeout.
func IsTransport(err error) bool {
	return stderrors.Is(err, ErrTransport) || stderrors.Is(err, ErrTransportTimeout)
}
