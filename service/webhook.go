package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"helpbot/config"
	"helpbot/metrics"
	"helpbot/model"
	"helpbot/platform"
)

// maxLoggedBody bounds how much of a failed webhook response ends up in the log.
const maxLoggedBody = 512

// Notifier forwards a persisted message to an external automation endpoint.
type Notifier interface {
	Enabled() bool
	// Notify reports whether the endpoint accepted the message (2xx).
	Notify(ctx context.Context, msg *model.Message) bool
}

// WebhookNotifier POSTs messages as JSON to an n8n webhook.
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger *logrus.Logger
}

// NewNotifier returns a disabled notifier when no webhook URL is configured.
func NewNotifier(cfg config.Webhook, logger *logrus.Logger) Notifier {
	if cfg.URL == "" {
		logger.Infof("[%s] N8N_WEBHOOK_URL not configured, webhook notifier disabled", "startup")
		return DisabledNotifier{}
	}
	return NewWebhookNotifier(cfg.URL, cfg.Timeout, logger)
}

func NewWebhookNotifier(url string, timeout time.Duration, logger *logrus.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (n *WebhookNotifier) Enabled() bool {
	return true
}

func (n *WebhookNotifier) Notify(ctx context.Context, msg *model.Message) bool {
	ok := n.deliver(ctx, msg)
	metrics.WebhookDeliveries.WithLabelValues(metrics.Result(ok)).Inc()
	return ok
}

func (n *WebhookNotifier) deliver(ctx context.Context, msg *model.Message) bool {
	requestId := platform.RequestID(ctx)

	jsonData, err := json.Marshal(msg)
	if err != nil {
		n.logger.Errorf("[%s] marshal message %s for webhook error, %s", requestId, msg.ID, err)
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(jsonData))
	if err != nil {
		n.logger.Errorf("[%s] create webhook request error, %s", requestId, err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Errorf("[%s] n8n webhook %s error for message %s, %s", requestId, errorClass(err), msg.ID, err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBody))
		n.logger.Errorf("[%s] n8n webhook HTTP error for message %s, status: %d, response: %s",
			requestId, msg.ID, resp.StatusCode, body)
		return false
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	n.logger.Infof("[%s] message %s sent to n8n webhook, status: %d", requestId, msg.ID, resp.StatusCode)
	return true
}

// errorClass names the kind of transport failure for log lines.
func errorClass(err error) string {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return "timeout"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return "connection"
	}
	return "request"
}

// DisabledNotifier is used when no webhook URL is configured.
type DisabledNotifier struct{}

func (DisabledNotifier) Enabled() bool { return false }

func (DisabledNotifier) Notify(context.Context, *model.Message) bool { return false }
