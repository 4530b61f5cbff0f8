package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u1kamal/petpulse-backend/internal/model"
	"github.com/u1kamal/petpulse-backend/internal/store"
)

// recordingStore counts telemetry merges so tests can assert a message
// was dropped before it reached the store.
type recordingStore struct {
	store.Store
	applied int
}

func (r *recordingStore) ApplyTelemetry(deviceID string, weight float64, status string, seenAt time.Time) {
	r.applied++
	r.Store.ApplyTelemetry(deviceID, weight, status, seenAt)
}

type recordingNotifier struct {
	titles []string
	bodies []string
}

func (r *recordingNotifier) Notify(title, body string) {
	r.titles = append(r.titles, title)
	r.bodies = append(r.bodies, body)
}

func newTestService() (*Service, *recordingStore, *recordingNotifier) {
	rs := &recordingStore{Store: store.NewMemStore()}
	rn := &recordingNotifier{}
	return NewService(rs, rn), rs, rn
}

func TestHandleMessageMergesState(t *testing.T) {
	svc, rs, _ := newTestService()

	svc.HandleMessage("feeder/feeder-1/status", []byte(`{"status":"Idle","weight":37.5}`))

	require.Equal(t, 1, rs.applied)
	st := rs.Get("feeder-1")
	assert.True(t, st.Online)
	assert.Equal(t, 37.5, st.SensorWeight)
	assert.Equal(t, "Idle", st.Status)
	assert.NotEqual(t, model.LastSeenNever, st.LastSeen)
}

func TestHandleMessagePreservesContainerWeight(t *testing.T) {
	svc, rs, _ := newTestService()
	rs.Deduct("feeder-1", 50) // container now 450

	svc.HandleMessage("feeder/feeder-1/status", []byte(`{"status":"Idle","weight":999}`))

	assert.Equal(t, float64(450), rs.Get("feeder-1").ContainerWeight)
}

func TestHandleMessageDefaultsMissingFields(t *testing.T) {
	svc, rs, _ := newTestService()

	svc.HandleMessage("feeder/feeder-1/status", []byte(`{}`))

	st := rs.Get("feeder-1")
	assert.True(t, st.Online)
	assert.Zero(t, st.SensorWeight)
	assert.Empty(t, st.Status)
}

func TestHandleMessageDropsMalformedTopic(t *testing.T) {
	svc, rs, rn := newTestService()

	svc.HandleMessage("feeder/status", []byte(`{"status":"Idle"}`))

	assert.Zero(t, rs.applied)
	assert.Empty(t, rn.titles)
}

func TestHandleMessageDropsMalformedPayload(t *testing.T) {
	svc, rs, rn := newTestService()

	svc.HandleMessage("feeder/feeder-1/status", []byte("not json at all"))

	assert.Zero(t, rs.applied)
	assert.Empty(t, rn.titles)
}

func TestHandleMessageNotifiesOnCompletion(t *testing.T) {
	svc, _, rn := newTestService()

	svc.HandleMessage("feeder/feeder-1/status", []byte(`{"status":"Feeding completed","weight":12}`))

	require.Len(t, rn.titles, 1)
	assert.Equal(t, "Feeding Complete", rn.titles[0])
	assert.Contains(t, rn.bodies[0], "feeder-1")
}

func TestHandleMessageDoesNotNotifyOnOtherStatus(t *testing.T) {
	svc, _, rn := newTestService()

	svc.HandleMessage("feeder/feeder-1/status", []byte(`{"status":"Feeding"}`))

	assert.Empty(t, rn.titles)
}

func TestDeviceIDFromTopic(t *testing.T) {
	testCases := []struct {
		topic    string
		expected string
		ok       bool
	}{
		{topic: "feeder/feeder-1/status", expected: "feeder-1", ok: true},
		{topic: "feeder/a/b/c", expected: "a", ok: true},
		{topic: "feeder/status", ok: false},
		{topic: "feeder", ok: false},
		{topic: "", ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.topic, func(t *testing.T) {
			id, ok := DeviceIDFromTopic(tc.topic)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, id)
		})
	}
}
