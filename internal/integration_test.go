package internal

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u1kamal/petpulse-backend/config"
	"github.com/u1kamal/petpulse-backend/internal/api"
	"github.com/u1kamal/petpulse-backend/internal/dispatch"
	"github.com/u1kamal/petpulse-backend/internal/model"
	"github.com/u1kamal/petpulse-backend/internal/persist"
	"github.com/u1kamal/petpulse-backend/internal/sched"
	"github.com/u1kamal/petpulse-backend/internal/store"
	"github.com/u1kamal/petpulse-backend/internal/telemetry"
)

// loopbackPublisher stands in for the broker and records every control
// command the coordinator publishes.
type loopbackPublisher struct {
	published []string
}

func (p *loopbackPublisher) PublishJSON(topic string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	p.published = append(p.published, topic+" "+string(raw))
	return nil
}

func (p *loopbackPublisher) IsConnected() bool { return true }

// TestFeedingLifecycle drives the full pipeline over HTTP: refill,
// optimistic feed accounting, clamping, telemetry merge, and history.
func TestFeedingLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()

	appStore := store.NewMemStore()
	history := persist.NewDocument[model.HistoryEntry](filepath.Join(dir, "history.json"))
	schedules := persist.NewDocument[model.Schedule](filepath.Join(dir, "schedules.json"))
	subs := persist.NewDocument[model.PushSubscription](filepath.Join(dir, "subscriptions.json"))
	pub := &loopbackPublisher{}

	dispatcher := dispatch.New(appStore, history, pub)
	scheduler, err := sched.NewService(schedules, dispatcher)
	require.NoError(t, err)
	t.Cleanup(func() { _ = scheduler.Stop() })

	handler := api.NewHandler(appStore, dispatcher, scheduler, history, subs, nil, pub)
	cfg := &config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000, CacheTTL: 1}
	router := api.NewRouter(handler, cfg)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req, err := http.NewRequest(method, path, strings.NewReader(body))
		require.NoError(t, err)
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	// Refill establishes a known container level.
	w := do(http.MethodPost, "/device/D1/refill", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Container refilled","container_weight":500}`, w.Body.String())

	// Feed 50 g: optimistic accounting brings the estimate to 450.
	w = do(http.MethodPost, "/feed", `{"device_id":"D1","amount":50}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(http.MethodGet, "/device/D1/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	var status model.DeviceState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, float64(450), status.ContainerWeight)

	entries, err := history.Load()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "D1", entries[0].DeviceID)
	assert.Equal(t, 50, entries[0].Amount)
	assert.Equal(t, model.SourceManual, entries[0].Source)

	// Telemetry must not reset the container estimate.
	ingest := telemetry.NewService(appStore, noopNotifier{})
	ingest.HandleMessage("feeder/D1/status", []byte(`{"status":"Feeding","weight":12.5}`))

	w = do(http.MethodGet, "/device/D1/status", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, float64(450), status.ContainerWeight)
	assert.True(t, status.Online)

	// Feeding more than remains clamps to zero, never negative.
	w = do(http.MethodPost, "/feed", `{"device_id":"D1","amount":500}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(http.MethodGet, "/device/D1/status", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, float64(0), status.ContainerWeight)

	entries, err = history.Load()
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	// Both control commands went out on the device's control topic.
	require.Len(t, pub.published, 2)
	assert.Contains(t, pub.published[0], "feeder/D1/control")
}

// TestScheduleLifecycleOverHTTP adds a schedule, sees it listed, deletes
// it, and confirms it is gone.
func TestScheduleLifecycleOverHTTP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()

	appStore := store.NewMemStore()
	history := persist.NewDocument[model.HistoryEntry](filepath.Join(dir, "history.json"))
	schedules := persist.NewDocument[model.Schedule](filepath.Join(dir, "schedules.json"))
	subs := persist.NewDocument[model.PushSubscription](filepath.Join(dir, "subscriptions.json"))
	pub := &loopbackPublisher{}

	dispatcher := dispatch.New(appStore, history, pub)
	scheduler, err := sched.NewService(schedules, dispatcher)
	require.NoError(t, err)
	t.Cleanup(func() { _ = scheduler.Stop() })

	handler := api.NewHandler(appStore, dispatcher, scheduler, history, subs, nil, pub)
	cfg := &config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000, CacheTTL: 1}
	router := api.NewRouter(handler, cfg)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req, err := http.NewRequest(method, path, strings.NewReader(body))
		require.NoError(t, err)
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := do(http.MethodPost, "/schedules", `{"device_id":"D1","time":"07:00","amount":30}`)
	require.Equal(t, http.StatusOK, w.Code)
	var addResp struct {
		Schedule model.Schedule `json:"schedule"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &addResp))
	require.NotEmpty(t, addResp.Schedule.ID)

	w = do(http.MethodGet, "/schedules", "")
	require.Equal(t, http.StatusOK, w.Code)
	var listed []model.Schedule
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, addResp.Schedule.ID, listed[0].ID)

	w = do(http.MethodDelete, "/schedules/"+addResp.Schedule.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Schedule deleted","deleted":true}`, w.Body.String())

	w = do(http.MethodGet, "/schedules", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Empty(t, listed)
}

type noopNotifier struct{}

func (noopNotifier) Notify(title, body string) {}
