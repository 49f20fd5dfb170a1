package errors

// DefaultDataMessage is used when the engine reports a data error without a message.
const DefaultDataMessage = "An error occurred while processing data."

// NotConnected is returned when a query is attempted before Connect.
func NotConnected() *Error {
	return New(KindNotConnected,
		"Client is not connected to the query engine, you must call `Connect()` before attempting to query data.")
}

// AlreadyConnected is returned by a second Connect on a running engine.
func AlreadyConnected() *Error {
	return New(KindAlreadyConnected, "Already connected to the query engine")
}

// ClientClosed is returned when a request is made on a closed HTTP session.
func ClientClosed() *Error {
	return New(KindClientClosed, "Cannot make a request from a closed client.")
}

// ClientNotRegistered is returned by the registry before any registration.
func ClientNotRegistered() *Error {
	return New(KindClientNotRegistered,
		"No client instance registered; You must call client.Register()")
}

// ClientAlreadyRegistered is returned when a second client is registered.
func ClientAlreadyRegistered() *Error {
	return New(KindClientAlreadyRegistered, "A client has already been registered.")
}

// InvalidModel is returned when a non raw action is given no usable model.
func InvalidModel(name string) *Error {
	if name == "" {
		name = "<nil>"
	}
	e := New(KindInvalidModel, "Expected the %s type to carry a model name and field metadata", name)
	e.Model = name
	return e
}

// UnknownModel is returned when a model name is missing from the schema.
func UnknownModel(name string) *Error {
	e := New(KindUnknownModel, "Model: %q does not exist.", name)
	e.Model = name
	return e
}

// UnknownRelationalField is returned when include names a field that is
// missing or not relational.
func UnknownRelationalField(model, field string) *Error {
	e := New(KindUnknownRelationalField,
		"Field: %q either does not exist or is not a relational field on the %s model", field, model)
	e.Model = model
	e.Field = field
	return e
}

// InvalidIncludeValue is returned for include values other than bool or mapping.
func InvalidIncludeValue(field string, value any) *Error {
	e := New(KindInvalidIncludeValue,
		"Expected `bool` or mapping include value for field %q but got %T instead.", field, value)
	e.Field = field
	return e
}

// IncludeWithoutModel is returned when include is used without a model.
func IncludeWithoutModel() *Error {
	return New(KindIncludeWithoutModel, "Cannot include fields when model is nil.")
}

// NotSerializable is returned for argument values with no wire encoding.
func NotSerializable(value any) *Error {
	return New(KindNotSerializable, "Type %T not serializable", value)
}

// TransactionNotStarted is returned by Commit or Rollback before Start.
func TransactionNotStarted() *Error {
	return New(KindTransactionNotStarted, "Transaction has not been started yet.\nTransactions must be started with Start().")
}

// TransactionClosed is returned by Commit or Rollback after a terminal call.
func TransactionClosed(id, state string) *Error {
	return New(KindTransactionClosed, "Transaction %s has already been %s.", id, state)
}

// VersionMismatch is returned when the engine binary reports another version.
func VersionMismatch(expected, got string) *Error {
	return New(KindVersionMismatch, "Expected query engine version `%s` but got `%s`.", expected, got)
}

// BinaryNotFound is returned when no engine binary could be located.
func BinaryNotFound(format string, args ...any) *Error {
	return New(KindBinaryNotFound, format, args...)
}

// UnprocessableEntity is returned for HTTP 422 responses.
func UnprocessableEntity(body []byte) *Error {
	e := New(KindUnprocessableEntity,
		"Error occurred, it is likely that the internal GraphQL query builder generated a malformed request.\n"+
			"Please create an issue at https://github.com/satishbabariya/prisma-engine-go/issues")
	e.Status = 422
	e.Payload = body
	return e
}

// EngineRequest is returned for other non successful engine responses.
func EngineRequest(status int, body []byte) *Error {
	e := New(KindEngineRequest, "%d: %s", status, body)
	e.Status = status
	e.Payload = body
	return e
}

// MalformedResponse is returned when a response body has an unexpected shape.
func MalformedResponse(format string, args ...any) *Error {
	return New(KindMalformedResponse, format, args...)
}
