// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType classifies geocoding failures.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeRateLimit
	ErrorTypeQuotaExceeded
	ErrorTypeTimeout
	ErrorTypeNotFound
	ErrorTypeInvalidRequest
	ErrorTypeNetworkError
)

var errorTypeNames = map[ErrorType]string{
	ErrorTypeUnknown:        "unknown",
	ErrorTypeRateLimit:      "rate_limit",
	ErrorTypeQuotaExceeded:  "quota_exceeded",
	ErrorTypeTimeout:        "timeout",
	ErrorTypeNotFound:       "not_found",
	ErrorTypeInvalidRequest: "invalid_request",
	ErrorTypeNetworkError:   "network",
}

func (t ErrorType) String() string {
	if name, ok := errorTypeNames[t]; ok {
		return name
	}

	return fmt.Sprintf("ErrorType(%d)", int(t))
}

// Error is a classified geocoding failure.
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func isType(err error, t ErrorType) bool {
	var geoErr *Error
	if errors.As(err, &geoErr) {
		return geoErr.Type == t
	}

	return false
}

// IsRateLimitError reports whether err was caused by provider throttling.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	if isType(err, ErrorTypeRateLimit) {
		return true
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429")
}

// IsQuotaExceededError reports whether the provider quota is exhausted.
func IsQuotaExceededError(err error) bool {
	if err == nil {
		return false
	}

	if isType(err, ErrorTypeQuotaExceeded) {
		return true
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "over_query_limit") ||
		strings.Contains(errStr, "quota exceeded")
}

// IsTimeoutError reports whether the request timed out.
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}

	if isType(err, ErrorTypeTimeout) {
		return true
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// IsNotFoundError reports whether the address could not be resolved.
func IsNotFoundError(err error) bool {
	return isType(err, ErrorTypeNotFound)
}

// ClassifyHTTPError maps a non 200 response from the provider to an Error.
func ClassifyHTTPError(statusCode int, body string) *Error {
	var e *Error

	switch statusCode {
	case http.StatusTooManyRequests:
		e = &Error{Type: ErrorTypeRateLimit, Message: "rate limit reached"}
	case http.StatusForbidden:
		e = &Error{Type: ErrorTypeQuotaExceeded, Message: "quota exceeded or access denied"}
	case http.StatusBadRequest:
		e = &Error{Type: ErrorTypeInvalidRequest, Message: "invalid request"}
	case http.StatusNotFound:
		e = &Error{Type: ErrorTypeNotFound, Message: "location not found"}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		e = &Error{Type: ErrorTypeNetworkError, Message: fmt.Sprintf("service unavailable (status %d)", statusCode)}
	default:
		e = &Error{Type: ErrorTypeUnknown, Message: fmt.Sprintf("HTTP error %d", statusCode)}
	}

	if body = strings.TrimSpace(body); body != "" {
		const maxBody = 200
		if len(body) > maxBody {
			body = body[:maxBody] + "…"
		}

		e.Message += ": " + body
	}

	return e
}

// classifyStatus maps a Geocoding API status field to an Error. OK returns nil.
func classifyStatus(status, message string) *Error {
	var e *Error

	switch status {
	case "OK":
		return nil
	case "ZERO_RESULTS":
		e = &Error{Type: ErrorTypeNotFound, Message: "no results"}
	case "OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT":
		e = &Error{Type: ErrorTypeQuotaExceeded, Message: strings.ToLower(status)}
	case "REQUEST_DENIED", "INVALID_REQUEST":
		e = &Error{Type: ErrorTypeInvalidRequest, Message: strings.ToLower(status)}
	default:
		e = &Error{Type: ErrorTypeUnknown, Message: "google maps status " + status}
	}

	if message != "" {
		e.Message += ": " + message
	}

	return e
}
