package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWebhookSender() *WebhookSender {
	return &WebhookSender{
		client:     &http.Client{Timeout: 5 * time.Second},
		timeout:    5 * time.Second,
		attempts:   3,
		retryDelay: time.Millisecond,
	}
}

func TestWebhookPayloadDelivered(t *testing.T) {
	received := make(chan WebhookPayload, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var payload WebhookPayload
		require.NoError(t, json.Unmarshal(body, &payload))
		received <- payload
	}))
	defer server.Close()

	sender := newTestWebhookSender()
	result := &ProcessResult{Status: "success", VideoID: "abc123", PostID: 55}
	require.NoError(t, sender.send(server.URL, "https://site/video/123", result))

	payload := <-received
	assert.Equal(t, "https://site/video/123", payload.SourceURL)
	assert.Equal(t, "process_video", payload.Event)
	assert.NotZero(t, payload.Timestamp)
	require.NotNil(t, payload.Result)
	assert.Equal(t, "success", payload.Result.Status)
	assert.Equal(t, "abc123", payload.Result.VideoID)
	assert.Equal(t, 55, payload.Result.PostID)
}

func TestWebhookInvalidURLNotRetried(t *testing.T) {
	sender := newTestWebhookSender()
	result := &ProcessResult{Status: "success"}

	for _, webhookURL := range []string{"", "ftp://host/hook", "https://", "not a url headers:"} {
		err := sender.send(webhookURL, "https://site/video/123", result)
		require.Error(t, err, "url %q", webhookURL)
		assert.False(t, retry.IsRecoverable(err), "url %q must not be retried", webhookURL)
	}
}

func TestWebhookNon2xxIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	sender := newTestWebhookSender()
	err := sender.send(server.URL, "https://site/video/123", &ProcessResult{Status: "failed"})
	require.Error(t, err)
	assert.True(t, retry.IsRecoverable(err))
}

func TestWebhookAsyncRetriesUntilSuccess(t *testing.T) {
	var hits atomic.Int32
	done := make(chan struct{}, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		done <- struct{}{}
	}))
	defer server.Close()

	sender := newTestWebhookSender()
	sender.SendAsync(server.URL, "https://site/video/123", &ProcessResult{Status: "success"})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("webhook was never delivered")
	}
	assert.Equal(t, int32(2), hits.Load())
}

func TestWebhookAsyncGivesUpAfterAttempts(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	sender := newTestWebhookSender()
	sender.SendAsync(server.URL, "https://site/video/123", &ProcessResult{Status: "failed"})

	require.Eventually(t, func() bool {
		return hits.Load() == 3
	}, 5*time.Second, 10*time.Millisecond)

	// No further attempt after the budget is spent.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(3), hits.Load())
}

func TestProcessEndpointDeliversWebhook(t *testing.T) {
	received := make(chan WebhookPayload, 1)
	receiver := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload WebhookPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		received <- payload
	}))
	defer receiver.Close()

	f := newFixture()
	appServer := NewAppServer(f.service(t))
	appServer.webhookSender = newTestWebhookSender()
	router := setupRoutes(appServer)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/process?url="+url.QueryEscape("https://site/video/123")+
			"&webhook="+url.QueryEscape(receiver.URL), nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case payload := <-received:
		assert.Equal(t, "https://site/video/123", payload.SourceURL)
		require.NotNil(t, payload.Result)
		assert.Equal(t, "success", payload.Result.Status)
		assert.Equal(t, "abc123", payload.Result.VideoID)
	case <-time.After(5 * time.Second):
		t.Fatal("webhook was never delivered")
	}
}
