package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// WebhookPayload is delivered to the caller-supplied webhook URL when a
// pipeline run reaches a terminal state.
type WebhookPayload struct {
	SourceURL string         `json:"source_url"`
	Result    *ProcessResult `json:"result"`
	Timestamp int64          `json:"timestamp"`
	Event     string         `json:"event"`
}

// WebhookSender delivers pipeline results to caller webhooks.
type WebhookSender struct {
	client     *http.Client
	timeout    time.Duration
	attempts   uint
	retryDelay time.Duration
}

// NewWebhookSender creates a WebhookSender.
func NewWebhookSender() *WebhookSender {
	return &WebhookSender{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		timeout:    10 * time.Second,
		attempts:   3,
		retryDelay: 2 * time.Second,
	}
}

// SendAsync delivers the result without blocking the caller. Delivery is
// retried a few times; a final failure is only logged, it never affects the
// pipeline outcome.
func (w *WebhookSender) SendAsync(webhookURL, sourceURL string, result *ProcessResult) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logrus.Errorf("webhook panic: %v", r)
			}
		}()

		err := retry.Do(
			func() error { return w.send(webhookURL, sourceURL, result) },
			retry.Attempts(w.attempts),
			retry.Delay(w.retryDelay),
			retry.LastErrorOnly(true),
		)
		if err != nil {
			logrus.Errorf("webhook delivery failed [%s]: %v", webhookURL, err)
			return
		}
		logrus.Infof("webhook delivered [%s]", webhookURL)
	}()
}

func (w *WebhookSender) send(webhookURL, sourceURL string, result *ProcessResult) error {
	if err := w.validateURL(webhookURL); err != nil {
		return retry.Unrecoverable(err)
	}

	payload := WebhookPayload{
		SourceURL: sourceURL,
		Result:    result,
		Timestamp: time.Now().Unix(),
		Event:     "process_video",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return retry.Unrecoverable(errors.Wrap(err, "failed to marshal webhook payload"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return retry.Unrecoverable(errors.Wrap(err, "failed to create webhook request"))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "vidpress-crawler-webhook/1.0")

	resp, err := w.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "webhook request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func (w *WebhookSender) validateURL(webhookURL string) error {
	if webhookURL == "" {
		return errors.New("webhook URL is empty")
	}

	u, err := url.Parse(webhookURL)
	if err != nil {
		return errors.Wrap(err, "invalid webhook URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("webhook URL must be http or https")
	}
	if u.Host == "" {
		return errors.New("webhook URL must include a host")
	}
	return nil
}
