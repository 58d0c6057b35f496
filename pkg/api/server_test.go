/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/dvrwatch/pkg/logger"
	"github.com/carverauto/dvrwatch/pkg/models"
)

var errSaveFailed = errors.New("save failed")

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Stats() models.Stats {
	return m.Called().Get(0).(models.Stats)
}

func (m *mockStore) ListByStatus(filter models.StatusFilter) []models.DeviceStatus {
	return m.Called(filter).Get(0).([]models.DeviceStatus)
}

func (m *mockStore) FindBySite(site string) (models.DeviceStatus, bool) {
	args := m.Called(site)

	return args.Get(0).(models.DeviceStatus), args.Bool(1)
}

func (m *mockStore) UpdateSerial(ctx context.Context, site, serial string) (bool, error) {
	args := m.Called(ctx, site, serial)

	return args.Bool(0), args.Error(1)
}

type mockRefresher struct {
	mock.Mock
}

func (m *mockRefresher) RefreshNow(ctx context.Context) (models.Stats, error) {
	args := m.Called(ctx)

	return args.Get(0).(models.Stats), args.Error(1)
}

func (m *mockRefresher) Trigger() bool {
	return m.Called().Bool(0)
}

func newTestServer(st DeviceStore, r RefreshRunner, opts ...func(*APIServer)) *APIServer {
	base := []func(*APIServer){
		WithDeviceStore(st),
		WithRefreshRunner(r),
		WithLogger(logger.NewTestLogger()),
	}

	return NewAPIServer(models.CORSConfig{AllowedOrigins: []string{"*"}}, append(base, opts...)...)
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()

	var resp models.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))

	return resp
}

var sampleDevices = []models.DeviceStatus{
	{DeviceRecord: models.DeviceRecord{Serial: "111", Site: "A", StoreName: "Main, North"}, Status: models.StatusOnline},
	{DeviceRecord: models.DeviceRecord{Serial: "", Site: "B", StoreName: "Side"}, Status: models.StatusOffline},
}

func TestHandleStats(t *testing.T) {
	st := &mockStore{}
	last := 1700000000.5
	st.On("Stats").Return(models.Stats{Total: 2, Online: 1, Offline: 1, LastUpdated: &last})

	rr := doRequest(t, newTestServer(st, nil), http.MethodGet, "/api/stats", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"total":2,"online":1,"offline":1,"lastUpdated":1700000000.5}`, rr.Body.String())
}

func TestHandleStatsNeverScanned(t *testing.T) {
	st := &mockStore{}
	st.On("Stats").Return(models.Stats{Total: 1, Offline: 1})

	rr := doRequest(t, newTestServer(st, nil), http.MethodGet, "/api/stats", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"total":1,"online":0,"offline":1,"lastUpdated":null}`, rr.Body.String())
}

func TestHandleListDevices(t *testing.T) {
	st := &mockStore{}
	st.On("ListByStatus", models.FilterOnline).Return(sampleDevices[:1])
	st.On("ListByStatus", models.FilterAll).Return(sampleDevices)

	srv := newTestServer(st, nil)

	rr := doRequest(t, srv, http.MethodGet, "/api/dvrs?status=online", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t,
		`{"items":[{"P2P NUMBER":"111","SITE":"A","STORE NAME":"Main, North","status":"online"}]}`,
		rr.Body.String())

	rr = doRequest(t, srv, http.MethodGet, "/api/dvrs", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var list models.ListResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
	assert.Len(t, list.Items, 2)

	rr = doRequest(t, srv, http.MethodGet, "/api/dvrs?status=broken", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, http.StatusBadRequest, decodeError(t, rr).Status)
}

func TestHandleSearch(t *testing.T) {
	st := &mockStore{}
	st.On("FindBySite", "A").Return(sampleDevices[0], true)
	st.On("FindBySite", "Z").Return(models.DeviceStatus{}, false)

	srv := newTestServer(st, nil)

	rr := doRequest(t, srv, http.MethodGet, "/api/search?site=A", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var found models.DeviceStatus
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&found))
	assert.Equal(t, "111", found.Serial)
	assert.Equal(t, models.StatusOnline, found.Status)

	rr = doRequest(t, srv, http.MethodGet, "/api/search?site=Z", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doRequest(t, srv, http.MethodGet, "/api/search", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleUpdateSerial(t *testing.T) {
	st := &mockStore{}
	st.On("UpdateSerial", mock.Anything, "A", "999").Return(true, nil)
	st.On("UpdateSerial", mock.Anything, "Z", "1").Return(false, nil)
	st.On("UpdateSerial", mock.Anything, "B", "2").Return(false, errSaveFailed)
	st.On("UpdateSerial", mock.Anything, "C", "").Return(true, nil)

	srv := newTestServer(st, nil)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"updated", `{"site":"A","p2pNumber":"999"}`, http.StatusOK},
		{"empty serial allowed", `{"site":"C","p2pNumber":""}`, http.StatusOK},
		{"unknown site", `{"site":"Z","p2pNumber":"1"}`, http.StatusNotFound},
		{"persist failure", `{"site":"B","p2pNumber":"2"}`, http.StatusInternalServerError},
		{"missing serial", `{"site":"A"}`, http.StatusBadRequest},
		{"missing site", `{"p2pNumber":"1"}`, http.StatusBadRequest},
		{"invalid json", `{"site":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, srv, http.MethodPost, "/api/update-p2p", tt.body)
			require.Equal(t, tt.status, rr.Code)

			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"ok":true}`, rr.Body.String())
			} else {
				assert.Equal(t, tt.status, decodeError(t, rr).Status)
			}
		})
	}
}

func TestUpdateSerialQueuesRescan(t *testing.T) {
	st := &mockStore{}
	st.On("UpdateSerial", mock.Anything, "A", "999").Return(true, nil)
	st.On("UpdateSerial", mock.Anything, "Z", "1").Return(false, nil)

	refresher := &mockRefresher{}
	refresher.On("Trigger").Return(true).Once()

	srv := newTestServer(st, refresher)

	rr := doRequest(t, srv, http.MethodPost, "/api/update-p2p", `{"site":"A","p2pNumber":"999"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, srv, http.MethodPost, "/api/update-p2p", `{"site":"Z","p2pNumber":"1"}`)
	require.Equal(t, http.StatusNotFound, rr.Code)

	refresher.AssertExpectations(t)
	refresher.AssertNumberOfCalls(t, "Trigger", 1)
}

func TestHandleRefresh(t *testing.T) {
	refresher := &mockRefresher{}
	refresher.On("RefreshNow", mock.Anything).Return(models.Stats{Total: 3, Online: 2, Offline: 1}, nil).Once()
	refresher.On("RefreshNow", mock.Anything).Return(models.Stats{}, context.Canceled).Once()

	srv := newTestServer(&mockStore{}, refresher)

	rr := doRequest(t, srv, http.MethodPost, "/api/refresh", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ok":true,"total":3,"online":2,"offline":1,"lastUpdated":null}`, rr.Body.String())

	rr = doRequest(t, srv, http.MethodPost, "/api/refresh", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = doRequest(t, srv, http.MethodGet, "/api/refresh", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	refresher.AssertExpectations(t)
}

func TestWrongMethodIsNotAllowed(t *testing.T) {
	srv := newTestServer(&mockStore{}, &mockRefresher{})

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/refresh"},
		{http.MethodGet, "/api/update-p2p"},
		{http.MethodPost, "/api/stats"},
		{http.MethodDelete, "/api/dvrs"},
	} {
		rr := doRequest(t, srv, tc.method, tc.path, "")
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code, "%s %s", tc.method, tc.path)
	}
}

func TestHandleDownloadCSV(t *testing.T) {
	st := &mockStore{}
	st.On("ListByStatus", models.FilterOffline).Return(sampleDevices[1:])
	st.On("ListByStatus", models.FilterAll).Return(sampleDevices)

	srv := newTestServer(st, nil)

	rr := doRequest(t, srv, http.MethodGet, "/api/download.csv?status=offline", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "attachment; filename=dvrs_offline.csv", rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	assert.Equal(t, "P2P NUMBER,SITE,STORE NAME\n,B,Side\n", rr.Body.String())

	rr = doRequest(t, srv, http.MethodGet, "/api/download.csv", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "attachment; filename=dvrs_all.csv", rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "P2P NUMBER,SITE,STORE NAME\n111,A,Main  North\n,B,Side\n", rr.Body.String())

	rr = doRequest(t, srv, http.MethodGet, "/api/download.csv?status=nope", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRootWithoutDashboard(t *testing.T) {
	rr := doRequest(t, newTestServer(&mockStore{}, nil), http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"UI not found. API is running."}`, rr.Body.String())
}

func TestRootServesDashboard(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>dvrs</html>"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o600))

	srv := newTestServer(&mockStore{}, nil, WithWebDir(dir))

	rr := doRequest(t, srv, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "dvrs")

	rr = doRequest(t, srv, http.MethodGet, "/static/app.js", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "console.log(1)", rr.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "dvrwatch_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	srv := newTestServer(&mockStore{}, nil, WithMetricsGatherer(reg))

	rr := doRequest(t, srv, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = doRequest(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "dvrwatch_test_total 1")
}

func TestCORSHeadersOnAPIRoutes(t *testing.T) {
	st := &mockStore{}
	st.On("Stats").Return(models.Stats{})

	req := httptest.NewRequest(http.MethodGet, "/api/stats", http.NoBody)
	req.Header.Set("Origin", "http://dashboard.example")

	rr := httptest.NewRecorder()
	newTestServer(st, nil).ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}
