// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

type errorCheckTestCase struct {
	name string
	err  error
	want bool
}

func runErrorCheckTest(t *testing.T, tests []errorCheckTestCase, checkFunc func(error) bool) {
	t.Helper()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkFunc(tt.err))
		})
	}
}

func TestIsRateLimitError(t *testing.T) {
	runErrorCheckTest(t, []errorCheckTestCase{
		{"typed", &Error{Type: ErrorTypeRateLimit, Message: "slow down"}, true},
		{"wrapped typed", fmt.Errorf("report 3: %w", &Error{Type: ErrorTypeRateLimit}), true},
		{"message", errors.New("too many requests"), true},
		{"status code in message", errors.New("got 429"), true},
		{"other typed", &Error{Type: ErrorTypeNotFound, Message: "nothing"}, false},
		{"nil", nil, false},
	}, IsRateLimitError)
}

func TestIsQuotaExceededError(t *testing.T) {
	runErrorCheckTest(t, []errorCheckTestCase{
		{"typed", &Error{Type: ErrorTypeQuotaExceeded}, true},
		{"google status", errors.New("status OVER_QUERY_LIMIT"), true},
		{"generic", errors.New("boom"), false},
		{"nil", nil, false},
	}, IsQuotaExceededError)
}

func TestIsTimeoutError(t *testing.T) {
	runErrorCheckTest(t, []errorCheckTestCase{
		{"typed", &Error{Type: ErrorTypeTimeout}, true},
		{"deadline", errors.New("context deadline exceeded"), true},
		{"generic", errors.New("boom"), false},
		{"nil", nil, false},
	}, IsTimeoutError)
}

func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorType
	}{
		{http.StatusTooManyRequests, ErrorTypeRateLimit},
		{http.StatusForbidden, ErrorTypeQuotaExceeded},
		{http.StatusBadRequest, ErrorTypeInvalidRequest},
		{http.StatusNotFound, ErrorTypeNotFound},
		{http.StatusBadGateway, ErrorTypeNetworkError},
		{http.StatusTeapot, ErrorTypeUnknown},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, ClassifyHTTPError(tc.status, "").Type, "status %d", tc.status)
	}

	e := ClassifyHTTPError(http.StatusBadRequest, "  missing address ")
	assert.Equal(t, "invalid request: missing address", e.Error())
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("connection reset")
	e := &Error{Type: ErrorTypeNetworkError, Message: "request failed", Err: inner}

	assert.ErrorIs(t, e, inner)
	assert.Equal(t, "request failed: connection reset", e.Error())
	assert.Equal(t, "network", e.Type.String())
}
