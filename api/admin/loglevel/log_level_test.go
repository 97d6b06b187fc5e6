// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package loglevel

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevelHandler(t *testing.T) {
	tests := []struct {
		name             string
		method           string
		body             interface{}
		expectedStatus   int
		expectedLevel    string
		expectedErrorMsg string
	}{
		{
			name:           "Valid POST input - set level to DEBUG",
			method:         "POST",
			body:           map[string]string{"level": "debug"},
			expectedStatus: http.StatusOK,
			expectedLevel:  "DEBUG",
		},
		{
			name:           "Valid POST input - set level to TRACE",
			method:         "POST",
			body:           map[string]string{"level": "trace"},
			expectedStatus: http.StatusOK,
			expectedLevel:  "DEBUG-4",
		},
		{
			name:             "Invalid POST input - invalid level",
			method:           "POST",
			body:             map[string]string{"level": "invalid_body"},
			expectedStatus:   http.StatusBadRequest,
			expectedErrorMsg: "Invalid verbosity level",
		},
		{
			name:           "GET request - get current level INFO",
			method:         "GET",
			body:           nil,
			expectedStatus: http.StatusOK,
			expectedLevel:  "INFO",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logLevel slog.LevelVar
			logLevel.Set(slog.LevelInfo)

			var reqBody []byte
			if tt.body != nil {
				var err error
				reqBody, err = json.Marshal(tt.body)
				require.NoError(t, err)
			}

			req, err := http.NewRequest(tt.method, "/admin/loglevel", bytes.NewBuffer(reqBody))
			require.NoError(t, err)

			rr := httptest.NewRecorder()
			router := mux.NewRouter()
			New(&logLevel).Mount(router, "/admin/loglevel")
			router.ServeHTTP(rr, req)

			require.Equal(t, tt.expectedStatus, rr.Code)

			if tt.expectedLevel != "" {
				var response Response
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
				assert.Equal(t, tt.expectedLevel, response.CurrentLevel)
			} else {
				assert.Equal(t, tt.expectedErrorMsg, strings.Trim(rr.Body.String(), "\n"))
			}
		})
	}
}
