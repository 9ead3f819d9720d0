// Package fault normalizes upstream and local errors into a single taxonomy
// with machine-readable kinds and optional remediation hints.
package fault

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pigeonworks-llc/qbo-bridge/internal/qbo"
)

// Kind identifies an error class in the taxonomy.
type Kind string

const (
	// KindUnauthenticated means no credentials are on file; the caller must
	// complete the authorization flow.
	KindUnauthenticated Kind = "unauthenticated"
	// KindUpstreamAuth means the refresh token exchange failed.
	KindUpstreamAuth Kind = "upstream_auth_error"
	// KindValidation means a required field is missing or malformed.
	KindValidation Kind = "validation_error"
	// KindClassificationMismatch means a funding account's type is
	// incompatible with the declared payment type.
	KindClassificationMismatch Kind = "classification_mismatch"
	// KindDuplicateDetected means an equivalent transaction already exists
	// (direct creation path only).
	KindDuplicateDetected Kind = "duplicate_detected"
	// KindUpstreamFault means the remote service rejected the request with a
	// structured business-rule fault.
	KindUpstreamFault Kind = "upstream_fault"
	// KindUpstreamUnavailable covers network failures and 5xx responses.
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	// KindAttachmentFetch means a receipt source was unreachable or could
	// not be decoded.
	KindAttachmentFetch Kind = "attachment_fetch_error"
	// KindSizeLimit means an upload exceeded its size ceiling.
	KindSizeLimit Kind = "size_limit_exceeded"
	// KindInternal is an unexpected server-side failure.
	KindInternal Kind = "internal_error"
)

// Error is the normalized error crossing the HTTP boundary. Exactly one of
// Fault (structured envelope) or Reason (opaque fallback) is set for
// upstream failures. Responses built from it never include credential
// values or stack traces.
type Error struct {
	Kind        Kind           `json:"kind"`
	Status      int            `json:"-"`
	Message     string         `json:"error"`
	Fault       *qbo.Fault     `json:"qboFault,omitempty"`
	Reason      string         `json:"reason,omitempty"`
	Detail      map[string]any `json:"details,omitempty"`
	Hint        string         `json:"hint,omitempty"`
	Suggestions map[string]any `json:"suggestions,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New creates an Error with the given kind, HTTP-like status, and message.
func New(kind Kind, status int, message string) *Error {
	return &Error{Kind: kind, Status: status, Message: message}
}

// Unauthenticated builds a no-credentials error.
func Unauthenticated(message string) *Error {
	return New(KindUnauthenticated, http.StatusUnauthorized, message)
}

// UpstreamAuth builds a refresh-exchange failure wrapping the cause.
func UpstreamAuth(err error) *Error {
	e := New(KindUpstreamAuth, http.StatusUnauthorized, "token refresh failed")
	attachUpstream(e, err)
	return e
}

// Validation builds a missing/malformed-field error.
func Validation(message string) *Error {
	return New(KindValidation, http.StatusBadRequest, message)
}

// ClassificationMismatch builds a funding-type incompatibility error with
// structured detail.
func ClassificationMismatch(message, accountID, actualType string) *Error {
	e := New(KindClassificationMismatch, http.StatusBadRequest, message)
	e.Detail = map[string]any{"accountId": accountID, "actualType": actualType}
	return e
}

// DuplicateDetected builds a duplicate-transaction error carrying the
// existing transaction id.
func DuplicateDetected(existingID string) *Error {
	e := New(KindDuplicateDetected, http.StatusConflict, "duplicate_purchase")
	e.Detail = map[string]any{"existing": map[string]any{"Id": existingID}}
	return e
}

// SizeLimit builds an upload-too-large error.
func SizeLimit(message string) *Error {
	return New(KindSizeLimit, http.StatusRequestEntityTooLarge, message)
}

// AttachmentFetch builds a receipt-source failure wrapping the cause.
func AttachmentFetch(err error) *Error {
	return New(KindAttachmentFetch, http.StatusBadRequest, fmt.Sprintf("attachment source failed: %v", err))
}

// Translate normalizes any error into an *Error. Already-translated errors
// pass through unchanged; QBO API errors are classified by status and their
// fault envelope extracted; transport failures become upstream_unavailable.
func Translate(err error) *Error {
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}

	var apiErr *qbo.APIError
	if errors.As(err, &apiErr) {
		return fromAPIError(apiErr)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return New(KindUpstreamUnavailable, http.StatusBadGateway, "upstream request failed")
	}

	return New(KindInternal, http.StatusInternalServerError, "internal_error")
}

// fromAPIError maps a QBO response error into the taxonomy.
func fromAPIError(apiErr *qbo.APIError) *Error {
	if apiErr.Status >= 500 {
		e := New(KindUpstreamUnavailable, http.StatusBadGateway, fmt.Sprintf("upstream returned %d", apiErr.Status))
		e.Reason = summarizeBody(apiErr.Body)
		return e
	}

	e := New(KindUpstreamFault, apiErr.Status, "upstream rejected request")
	if apiErr.Fault != nil {
		e.Fault = apiErr.Fault
	} else {
		e.Reason = summarizeBody(apiErr.Body)
	}
	return e
}

// attachUpstream copies fault/reason details from a wrapped upstream error.
func attachUpstream(e *Error, err error) {
	var apiErr *qbo.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Fault != nil {
			e.Fault = apiErr.Fault
		} else {
			e.Reason = summarizeBody(apiErr.Body)
		}
		return
	}
	if err != nil {
		e.Reason = err.Error()
	}
}

// summarizeBody extracts a short human-readable reason from an opaque error
// body without echoing the whole payload.
func summarizeBody(body string) string {
	var m map[string]any
	if err := json.Unmarshal([]byte(body), &m); err == nil {
		for _, key := range []string{"message", "error", "summary", "error_description"} {
			if v, ok := m[key].(string); ok && v != "" {
				return v
			}
		}
	}
	const maxLen = 200
	if len(body) > maxLen {
		return body[:maxLen]
	}
	return body
}
