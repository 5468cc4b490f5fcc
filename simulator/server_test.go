package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medifleet/medifleet/core/model"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := New(Config{BiddingDelayMS: 20, AssignDelayMS: 20}, nil, nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return s, ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestCreateTaskRunsLifecycle(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/tasks", map[string]string{
		"destination": "ICU",
		"priority":    "high",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	task := decode[model.Task](t, resp)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, model.TaskPending, task.Status)

	deadline := time.Now().Add(2 * time.Second)
	var got model.Task
	for time.Now().Before(deadline) {
		r, err := http.Get(ts.URL + "/api/tasks/" + task.ID)
		require.NoError(t, err)
		got = decode[model.Task](t, r)
		if got.Status == model.TaskAssigned {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.Equal(t, model.TaskAssigned, got.Status)
	// The authority's policy picks the idle robot with the most battery.
	assert.Equal(t, "MediBot-C3", got.RobotName)
	require.NotNil(t, got.AssignedAt)

	r, err := http.Get(ts.URL + "/api/robots")
	require.NoError(t, err)
	robots := decode[[]model.Robot](t, r)
	for _, rb := range robots {
		if rb.ID == got.RobotID {
			assert.Equal(t, model.RobotBusy, rb.Status)
		}
	}
}

func TestCreateTaskRejectsBadDestination(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/tasks", map[string]string{
		"destination": "CAFETERIA",
		"priority":    "high",
	})
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConditionalPatchConflicts(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/tasks", map[string]string{
		"destination": "PHARMACY",
		"priority":    "low",
	})
	task := decode[model.Task](t, resp)

	// Expecting "bidding" while the task is still pending must conflict.
	body := bytes.NewReader([]byte(`{"status":"assigned"}`))
	req, err := http.NewRequest(http.MethodPatch,
		fmt.Sprintf("%s/api/tasks/%s?expected_status=bidding", ts.URL, task.ID), body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	r, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = r.Body.Close() }()
	assert.Equal(t, http.StatusConflict, r.StatusCode)
}

func TestPatchUnknownTaskIs404(t *testing.T) {
	_, ts := newTestServer(t)

	body := bytes.NewReader([]byte(`{"status":"bidding"}`))
	req, err := http.NewRequest(http.MethodPatch, ts.URL+"/api/tasks/nope", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	r, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = r.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, r.StatusCode)
}

func TestGetRobotByID(t *testing.T) {
	s, ts := newTestServer(t)

	robots, err := s.Store().Robots(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, robots)

	r, err := http.Get(ts.URL + "/api/robots/" + robots[0].ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, r.StatusCode)
	got := decode[model.Robot](t, r)
	assert.Equal(t, robots[0].ID, got.ID)
	assert.Equal(t, robots[0].Name, got.Name)

	r, err = http.Get(ts.URL + "/api/robots/nope")
	require.NoError(t, err)
	defer func() { _ = r.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, r.StatusCode)
}

func TestResetAllRobots(t *testing.T) {
	s, ts := newTestServer(t)

	robots, err := s.Store().Robots(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, robots)
	body := bytes.NewReader([]byte(`{"status":"busy","location":"ICU"}`))
	req, err := http.NewRequest(http.MethodPatch, ts.URL+"/api/robots/"+robots[0].ID, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	r, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = r.Body.Close()
	require.Equal(t, http.StatusOK, r.StatusCode)

	resp := postJSON(t, ts.URL+"/api/robots/reset-all", map[string]string{})
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	gr, err := http.Get(ts.URL + "/api/robots")
	require.NoError(t, err)
	got := decode[[]model.Robot](t, gr)
	for _, rb := range got {
		assert.Equal(t, model.RobotIdle, rb.Status)
		assert.Equal(t, model.LocEntrance, rb.Location)
		assert.Zero(t, rb.TasksCompletedToday)
	}
}

func TestAnalyticsEndpoints(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/tasks", map[string]string{
		"destination": "EMERGENCY",
		"priority":    "urgent",
	})
	_ = resp.Body.Close()

	r, err := http.Get(ts.URL + "/api/analytics/stats")
	require.NoError(t, err)
	stats := decode[map[string]any](t, r)
	assert.EqualValues(t, 1, stats["total_tasks"])
	assert.EqualValues(t, 3, stats["active_robots"])

	r, err = http.Get(ts.URL + "/api/analytics/priority-distribution")
	require.NoError(t, err)
	dist := decode[[]map[string]any](t, r)
	require.Len(t, dist, 1)
	assert.Equal(t, "urgent", dist[0]["priority"])

	r, err = http.Get(ts.URL + "/api/analytics/robot-performance")
	require.NoError(t, err)
	perf := decode[[]map[string]any](t, r)
	assert.Len(t, perf, 3)

	r, err = http.Get(ts.URL + "/api/analytics/tasks-over-time")
	require.NoError(t, err)
	week := decode[[]map[string]any](t, r)
	assert.Len(t, week, 7)
}
