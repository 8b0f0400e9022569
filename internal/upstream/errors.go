package upstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an upstream failure. The backend tags its error bodies with
// a machine-readable code; status-based mapping is the fallback for responses
// that carry none. A bare 500 stays KindInternal; guessing business intent
// (for example "500 probably means duplicate key") from generic status codes
// is deliberately not done here.
type Kind string

const (
	KindTransport    Kind = "transport"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindValidation   Kind = "validation"
	KindMalformed    Kind = "malformed"
	KindInternal     Kind = "internal"
)

type Error struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("upstream %s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("upstream %s: %s", e.Kind, e.Message)
}

// KindOf extracts the failure kind from err, or KindInternal when err is not
// an upstream error.
func KindOf(err error) Kind {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return KindInternal
}

// IsKind reports whether err is an upstream error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ue *Error
	return errors.As(err, &ue) && ue.Kind == kind
}

type errorBody struct {
	Code    string `json:"code"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// decodeError turns a non-2xx upstream response into a tagged Error.
func decodeError(status int, body []byte) *Error {
	e := &Error{Kind: kindFromStatus(status), Status: status, Message: http.StatusText(status)}

	var parsed errorBody
	if len(body) > 0 && json.Unmarshal(body, &parsed) == nil {
		if msg := firstNonEmpty(parsed.Message, parsed.Error); msg != "" {
			e.Message = msg
		}
		if kind, ok := kindFromCode(parsed.Code); ok {
			e.Kind = kind
		}
	}
	return e
}

func kindFromCode(code string) (Kind, bool) {
	switch code {
	case "duplicate", "duplicate_key", "conflict":
		return KindConflict, true
	case "validation", "invalid_payload":
		return KindValidation, true
	case "unauthorized", "invalid_token", "token_expired":
		return KindUnauthorized, true
	case "forbidden":
		return KindForbidden, true
	case "not_found":
		return KindNotFound, true
	case "":
		return "", false
	default:
		return "", false
	}
}

func kindFromStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	default:
		return KindInternal
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
