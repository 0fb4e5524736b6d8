package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelforge/internal/types"
)

func jsonHandler(t *testing.T, status int, body string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestSoraSubmitAndPoll(t *testing.T) {
	var submitted map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/videos":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&submitted))
			jsonHandler(t, http.StatusOK, `{"id":"video_1","status":"queued"}`)(w, r)
		case r.Method == http.MethodGet && r.URL.Path == "/videos/video_1":
			jsonHandler(t, http.StatusOK, `{"id":"video_1","status":"completed","progress":100}`)(w, r)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	sora := NewSora(srv.URL, "test-key", srv.Client())
	sub, err := sora.Submit(context.Background(), SubmitRequest{
		Prompt: "A sweeping aerial shot of the city.", DurationSec: 12, AspectRatio: "9:16", Model: "sora-2",
	})
	require.NoError(t, err)
	assert.Equal(t, "video_1", sub.JobID)
	assert.Equal(t, types.JobQueued, sub.State)
	assert.Equal(t, "12", submitted["seconds"])
	assert.Equal(t, "720x1280", submitted["size"])

	res, err := sora.Poll(context.Background(), "video_1")
	require.NoError(t, err)
	assert.Equal(t, types.JobCompleted, res.State)
	assert.Equal(t, srv.URL+"/videos/video_1/content", res.OutputRef)
	assert.True(t, res.RequiresAuthFetch)
	assert.Equal(t, 100, res.Progress)
}

func TestSoraPollFailureCarriesMessage(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, http.StatusOK,
		`{"id":"video_1","status":"failed","error":{"message":"moderation block"}}`))
	defer srv.Close()

	sora := NewSora(srv.URL, "test-key", srv.Client())
	res, err := sora.Poll(context.Background(), "video_1")
	require.NoError(t, err)
	assert.Equal(t, types.JobFailed, res.State)
	assert.Equal(t, "moderation block", res.Message)
}

func TestSoraRequiresCredential(t *testing.T) {
	sora := NewSora("http://unused", "", http.DefaultClient)
	_, err := sora.Submit(context.Background(), SubmitRequest{Prompt: "x", DurationSec: 4})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no credential")
}

func TestDoJSONClassifiesTransientErrors(t *testing.T) {
	tests := []struct {
		status    int
		transient bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(jsonHandler(t, tt.status, `{"error":"nope"}`))
		err := doJSON(context.Background(), srv.Client(), http.MethodGet, srv.URL, nil, nil, nil)
		require.Error(t, err, "status %d", tt.status)
		assert.Equal(t, tt.transient, errors.Is(err, ErrTransient), "status %d", tt.status)
		srv.Close()
	}

	// Network-level failures are transient too.
	err := doJSON(context.Background(), http.DefaultClient, http.MethodGet, "http://127.0.0.1:1", nil, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransient))
}

func TestRunwayRejectsOverlongPrompt(t *testing.T) {
	runway := NewRunway("http://unused", "test-key", http.DefaultClient)
	_, err := runway.Submit(context.Background(), SubmitRequest{
		Prompt: strings.Repeat("x", 1001), DurationSec: 10,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPromptTooLong)
}

func TestRunwaySubmitAndPoll(t *testing.T) {
	poll := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "2024-11-06", r.Header.Get("X-Runway-Version"))
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/text_to_video":
			jsonHandler(t, http.StatusOK, `{"id":"task_1","status":"PENDING"}`)(w, r)
		case r.Method == http.MethodGet && r.URL.Path == "/v1/tasks/task_1":
			poll++
			if poll == 1 {
				jsonHandler(t, http.StatusOK, `{"id":"task_1","status":"RUNNING","progress":0.42}`)(w, r)
			} else {
				jsonHandler(t, http.StatusOK, `{"id":"task_1","status":"SUCCEEDED","progress":1,"output":["https://cdn.example/task_1.mp4"]}`)(w, r)
			}
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	runway := NewRunway(srv.URL, "test-key", srv.Client())
	sub, err := runway.Submit(context.Background(), SubmitRequest{
		Prompt: "Slow pan across a sunlit workshop.", DurationSec: 10, AspectRatio: "16:9",
	})
	require.NoError(t, err)
	assert.Equal(t, "task_1", sub.JobID)
	assert.Equal(t, types.JobQueued, sub.State)

	res, err := runway.Poll(context.Background(), "task_1")
	require.NoError(t, err)
	assert.Equal(t, types.JobProcessing, res.State)
	assert.Equal(t, 42, res.Progress)

	res, err = runway.Poll(context.Background(), "task_1")
	require.NoError(t, err)
	assert.Equal(t, types.JobCompleted, res.State)
	assert.Equal(t, "https://cdn.example/task_1.mp4", res.OutputRef)
	assert.Equal(t, 100, res.Progress)
}

func TestRunwayPollFailure(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, http.StatusOK,
		`{"id":"task_1","status":"FAILED","failure":"content policy"}`))
	defer srv.Close()

	runway := NewRunway(srv.URL, "test-key", srv.Client())
	res, err := runway.Poll(context.Background(), "task_1")
	require.NoError(t, err)
	assert.Equal(t, types.JobFailed, res.State)
	assert.Equal(t, "content policy", res.Message)
}

func TestHeygenSubmitAndPoll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v2/video/generate":
			jsonHandler(t, http.StatusOK, `{"data":{"video_id":"vid_1"}}`)(w, r)
		case r.Method == http.MethodGet && r.URL.Path == "/v1/video_status.get":
			assert.Equal(t, "vid_1", r.URL.Query().Get("video_id"))
			jsonHandler(t, http.StatusOK, `{"data":{"status":"completed","video_url":"https://cdn.example/vid_1.mp4"}}`)(w, r)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	heygen := NewHeygen(srv.URL, "test-key", srv.Client())
	sub, err := heygen.Submit(context.Background(), SubmitRequest{
		Prompt: "Welcome to the product tour.", DurationSec: 10, AspectRatio: "9:16",
	})
	require.NoError(t, err)
	assert.Equal(t, "vid_1", sub.JobID)
	assert.Equal(t, types.JobQueued, sub.State)

	res, err := heygen.Poll(context.Background(), "vid_1")
	require.NoError(t, err)
	assert.Equal(t, types.JobCompleted, res.State)
	assert.Equal(t, "https://cdn.example/vid_1.mp4", res.OutputRef)
}

func TestHeygenPollPendingStates(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, http.StatusOK, `{"data":{"status":"waiting"}}`))
	defer srv.Close()

	heygen := NewHeygen(srv.URL, "test-key", srv.Client())
	res, err := heygen.Poll(context.Background(), "vid_1")
	require.NoError(t, err)
	assert.Equal(t, types.JobQueued, res.State)
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistryWith(NewTemplate(), NewSora("http://unused", "k", http.DefaultClient))

	a, err := reg.Get("template")
	require.NoError(t, err)
	assert.Equal(t, "template", a.Name())

	_, err = reg.Get("kling")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownProvider)

	assert.Equal(t, []string{"template", "sora"}, reg.Names())
}
