// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package apilogs

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(initial bool) (*httptest.Server, *atomic.Bool) {
	enabled := new(atomic.Bool)
	enabled.Store(initial)

	router := mux.NewRouter()
	New(enabled).Mount(router, "/apilogs")

	return httptest.NewServer(router), enabled
}

func getStatus(t *testing.T, url string) LogStatus {
	res, err := http.Get(url + "/apilogs")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)

	var status LogStatus
	require.NoError(t, json.NewDecoder(res.Body).Decode(&status))
	return status
}

func postStatus(t *testing.T, url, body string) (int, string) {
	res, err := http.Post(url+"/apilogs", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, string(data)
}

func TestGetAPILogsEnabled(t *testing.T) {
	ts, _ := newServer(true)
	defer ts.Close()

	assert.True(t, getStatus(t, ts.URL).Enabled)
}

func TestToggleAPILogs(t *testing.T) {
	ts, enabled := newServer(false)
	defer ts.Close()

	code, _ := postStatus(t, ts.URL, `{"enabled": true}`)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, enabled.Load())
	assert.True(t, getStatus(t, ts.URL).Enabled)

	code, _ = postStatus(t, ts.URL, `{"enabled": false}`)
	assert.Equal(t, http.StatusOK, code)
	assert.False(t, enabled.Load())
}

func TestRejectsMalformedBody(t *testing.T) {
	ts, enabled := newServer(false)
	defer ts.Close()

	code, _ := postStatus(t, ts.URL, `{"enabled": "yes"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, enabled.Load())

	code, _ = postStatus(t, ts.URL, `{"unknown": true}`)
	assert.Equal(t, http.StatusBadRequest, code)
}
