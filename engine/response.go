package engine

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/satishbabariya/prisma-engine-go/transport"
	prismaerrors "github.com/satishbabariya/prisma-engine-go/runtime/errors"
)

// errorKinds maps engine error codes onto data error kinds.
var errorKinds = map[string]prismaerrors.Kind{
	"P2002": prismaerrors.KindUniqueViolation,
	"P2003": prismaerrors.KindForeignKeyViolation,
	"P2009": prismaerrors.KindFieldNotFound,
	"P2010": prismaerrors.KindRawQuery,
	"P2012": prismaerrors.KindMissingRequiredValue,
	"P2019": prismaerrors.KindInput,
	"P2021": prismaerrors.KindTableNotFound,
	"P2025": prismaerrors.KindRecordNotFound,
}

const missingValueMessage = "A value is required but not set"

// ErrorResponse is one entry of an engine `errors` array.
type ErrorResponse struct {
	Error           string           `json:"error"`
	UserFacingError *UserFacingError `json:"user_facing_error"`
}

// UserFacingError is the structured part of an engine error.
type UserFacingError struct {
	IsPanic   bool           `json:"is_panic"`
	Message   string         `json:"message"`
	Meta      map[string]any `json:"meta"`
	ErrorCode string         `json:"error_code"`
}

// checkStatus turns a non 2xx response into an error.
func checkStatus(resp *transport.Response) error {
	if resp.OK() {
		return nil
	}
	if resp.StatusCode == http.StatusUnprocessableEntity {
		return prismaerrors.UnprocessableEntity(resp.Body)
	}
	return prismaerrors.EngineRequest(resp.StatusCode, resp.Body)
}

// ProcessResponse validates a successful engine response body and returns
// the decoded object. Bodies holding a JSON encoded string are decoded twice.
// A non empty `errors` array is mapped onto a structured error.
func ProcessResponse(status int, body []byte) (json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '"' {
		var inner string
		if err := json.Unmarshal(body, &inner); err != nil {
			return nil, prismaerrors.MalformedResponse("could not decode engine response: %v", err)
		}
		body = bytes.TrimSpace([]byte(inner))
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil || obj == nil {
		return nil, prismaerrors.MalformedResponse(
			"Expected deserialised engine response to be an object, got %s", body)
	}

	if raw, ok := obj["errors"]; ok {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err == nil && len(items) > 0 {
			return nil, MapErrors(status, items)
		}
	}
	return body, nil
}

// MapErrors converts an engine errors array into the most specific error.
// Entries without an error code are skipped. If none match, the first entry
// becomes a generic data error.
func MapErrors(status int, items []json.RawMessage) error {
	for _, raw := range items {
		var e ErrorResponse
		if err := json.Unmarshal(raw, &e); err != nil || e.UserFacingError == nil {
			continue
		}
		code := e.UserFacingError.ErrorCode
		if code == "" {
			continue
		}
		// P2009 is also used for missing values, which only the message tells apart.
		if strings.Contains(e.UserFacingError.Message, missingValueMessage) {
			return dataError(prismaerrors.KindMissingRequiredValue, raw, e)
		}
		if kind, ok := errorKinds[code]; ok {
			return dataError(kind, raw, e)
		}
	}

	if len(items) > 0 {
		var e ErrorResponse
		if err := json.Unmarshal(items[0], &e); err == nil {
			return dataError(prismaerrors.KindData, items[0], e)
		}
	}

	payload, _ := json.Marshal(items)
	err := prismaerrors.New(prismaerrors.KindEngineRequest, "Could not process erroneous response: %s", payload)
	err.Status = status
	err.Payload = payload
	return err
}

func dataError(kind prismaerrors.Kind, raw json.RawMessage, e ErrorResponse) *prismaerrors.Error {
	err := &prismaerrors.Error{Kind: kind, Payload: raw}
	if ufe := e.UserFacingError; ufe != nil {
		err.Message = ufe.Message
		err.Code = ufe.ErrorCode
		err.Meta = ufe.Meta
	}
	switch kind {
	case prismaerrors.KindRawQuery:
		if msg, ok := err.Meta["message"].(string); ok {
			err.Message = msg
		}
	case prismaerrors.KindTableNotFound:
		if table, ok := err.Meta["table"].(string); ok {
			err.Model = table
		}
	}
	if err.Message == "" {
		err.Message = prismaerrors.DefaultDataMessage
	}
	return err
}
