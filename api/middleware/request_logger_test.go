// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vechain/nftstake/log"
)

// mockLogger records the context of Info and Warn calls.
type mockLogger struct {
	loggedData []any
}

func (m *mockLogger) New(_ ...any) log.Logger    { return m }
func (m *mockLogger) Trace(_ string, _ ...any) {}
func (m *mockLogger) Debug(_ string, _ ...any) {}
func (m *mockLogger) Error(_ string, _ ...any) {}

func (m *mockLogger) Info(_ string, ctx ...any) {
	m.loggedData = append(m.loggedData, ctx...)
}

func (m *mockLogger) Warn(_ string, ctx ...any) {
	m.loggedData = append(m.loggedData, ctx...)
}

func respond(status int, delay time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(delay)
		w.WriteHeader(status)
		w.Write([]byte(http.StatusText(status)))
	}
}

func TestRequestLoggerHandler(t *testing.T) {
	tests := []struct {
		name                 string
		handler              http.HandlerFunc
		enabled              bool
		slowQueriesThreshold time.Duration
		log5xxErrors         bool
		shouldLog            bool
	}{
		{"enabled", respond(http.StatusOK, 0), true, 0, false, true},
		{"disabled", respond(http.StatusOK, 0), false, 0, false, false},
		{"slow request", respond(http.StatusOK, 15*time.Millisecond), false, 10 * time.Millisecond, false, true},
		{"fast request", respond(http.StatusOK, 0), false, time.Second, false, false},
		{"5xx logged", respond(http.StatusInternalServerError, 0), false, 0, true, true},
		{"5xx not logged", respond(http.StatusInternalServerError, 0), false, 0, false, false},
		{"4xx never logged", respond(http.StatusBadRequest, 0), false, 0, true, false},
		{"implicit 200", func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte("OK")) }, false, 0, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockLog := &mockLogger{}
			enabled := atomic.Bool{}
			enabled.Store(tt.enabled)

			handler := RequestLoggerMiddleware(mockLog, &enabled, tt.slowQueriesThreshold, tt.log5xxErrors)(tt.handler)

			reqBody := "test body"
			req := httptest.NewRequest("POST", "http://example.com/foo", strings.NewReader(reqBody))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if !tt.shouldLog {
				assert.Empty(t, mockLog.loggedData)
				return
			}
			assert.Contains(t, mockLog.loggedData, "URI")
			assert.Contains(t, mockLog.loggedData, "http://example.com/foo")
			assert.Contains(t, mockLog.loggedData, "POST")
			assert.Contains(t, mockLog.loggedData, reqBody)
			assert.Contains(t, mockLog.loggedData, rr.Code)
			assert.Contains(t, mockLog.loggedData, rr.Header().Get(RequestIDHeader))
		})
	}
}

func TestRequestID(t *testing.T) {
	enabled := atomic.Bool{}
	enabled.Store(true)
	handler := RequestLoggerMiddleware(&mockLogger{}, &enabled, 0, false)(respond(http.StatusOK, 0))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	first := rr.Header().Get(RequestIDHeader)
	assert.Len(t, first, 36)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEqual(t, first, rr.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "client-id")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, "client-id", rr.Header().Get(RequestIDHeader))
}
