package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ibrahim-qi/sesh-app/internal/config"
	"github.com/ibrahim-qi/sesh-app/internal/metrics"
	"github.com/valyala/fasthttp"
)

// RecapMessage is the webhook body posted when a session ends. Text is the
// shareable recap; the rest lets a receiver render its own.
type RecapMessage struct {
	SessionID   string    `json:"session_id"`
	SquadName   string    `json:"squad_name"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Text        string    `json:"text"`
	Recap       any       `json:"recap"`
}

type WebhookClient struct {
	url      string
	client   *fasthttp.Client
	statusMu sync.RWMutex
	status   DeliveryStatus
}

type DeliveryStatus struct {
	Delivered  int       `json:"delivered"`
	Failed     int       `json:"failed"`
	LastStatus int       `json:"last_status"`
	LastError  string    `json:"last_error,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func NewWebhookClient(cfg *config.Config) *WebhookClient {
	return &WebhookClient{
		url: cfg.RecapWebhookURL,
		client: &fasthttp.Client{
			MaxConnsPerHost:     16,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

func (c *WebhookClient) Enabled() bool {
	return c.url != ""
}

func (c *WebhookClient) Status() DeliveryStatus {
	c.statusMu.RLock()
	defer c.statusMu.RUnlock()
	return c.status
}

func (c *WebhookClient) record(code int, err error) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()

	c.status.LastStatus = code
	if err != nil {
		c.status.Failed++
		c.status.LastError = err.Error()
	} else {
		c.status.Delivered++
		c.status.LastError = ""
	}
	c.status.UpdatedAt = time.Now()
}

// SendRecap posts msg to the configured URL. Without a URL it does nothing.
func (c *WebhookClient) SendRecap(ctx context.Context, msg RecapMessage) error {
	if !c.Enabled() {
		return nil
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode recap: %w", err)
	}

	code, err := c.post(ctx, body)
	c.record(code, err)
	metrics.ObserveWebhook(err)
	return err
}

func (c *WebhookClient) post(ctx context.Context, body []byte) (int, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return 0, fmt.Errorf("failed to post recap: %w", err)
		}
	} else {
		if err := c.client.Do(req, resp); err != nil {
			return 0, fmt.Errorf("failed to post recap: %w", err)
		}
	}

	code := resp.StatusCode()
	if code < 200 || code >= 300 {
		return code, fmt.Errorf("recap webhook returned %d", code)
	}
	return code, nil
}
