// Package webhookdispatch implements the Webhook Dispatcher (4.4): for a
// given (instance, event, data) triple it delivers to every enabled
// matching subscription and records one history row per attempt.
package webhookdispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"chatgateway/internal/domain/webhook"
	"chatgateway/pkg/logger"
)

const (
	deliveryTimeout = 5 * time.Second
	userAgent       = "chatgateway-instance-manager/1.0"
	maxResponseBody = 8 * 1024
)

// Dispatcher is the concrete net/http-based implementation of
// webhook.Dispatcher.
type Dispatcher struct {
	subs    webhook.SubscriptionRepository
	history webhook.HistoryRepository
	client  *http.Client
	log     logger.Logger
}

func New(subs webhook.SubscriptionRepository, history webhook.HistoryRepository, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		subs:    subs,
		history: history,
		client:  &http.Client{Timeout: deliveryTimeout},
		log:     log,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, instanceID, event string, data map[string]interface{}) {
	go d.DispatchAndWait(context.WithoutCancel(ctx), instanceID, event, data)
}

func (d *Dispatcher) DispatchAndWait(ctx context.Context, instanceID, event string, data map[string]interface{}) []*webhook.History {
	subs, err := d.subs.ListEnabledForEvent(ctx, instanceID, event)
	if err != nil {
		d.log.ErrorWithError("failed to resolve webhook subscriptions", err, logger.Fields{
			"instance_id": instanceID, "event": event,
		})
		return nil
	}
	if len(subs) == 0 {
		return nil
	}

	results := make([]*webhook.History, len(subs))
	var wg sync.WaitGroup
	for i, sub := range subs {
		wg.Add(1)
		go func(i int, sub *webhook.Subscription) {
			defer wg.Done()
			results[i] = d.deliverOne(ctx, instanceID, event, data, sub)
		}(i, sub)
	}
	wg.Wait()
	return results
}

func (d *Dispatcher) deliverOne(ctx context.Context, instanceID, event string, data map[string]interface{}, sub *webhook.Subscription) *webhook.History {
	payload := map[string]interface{}{
		"event":      event,
		"data":       data,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"instanceId": instanceID,
	}

	h := webhook.NewHistory(instanceID, sub.ID(), event, payload)

	body, err := json.Marshal(payload)
	if err != nil {
		msg := err.Error()
		h.Complete(webhook.HistoryFailed, nil, 0, nil, &msg)
		d.writeHistory(ctx, h)
		return h
	}

	deliverCtx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(deliverCtx, http.MethodPost, sub.TargetURL(), bytes.NewReader(body))
	if err != nil {
		msg := err.Error()
		h.Complete(webhook.HistoryFailed, nil, 0, nil, &msg)
		d.writeHistory(ctx, h)
		return h
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := d.client.Do(req)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		if deliverCtx.Err() == context.DeadlineExceeded {
			msg := "webhook delivery timed out after 5s"
			h.Complete(webhook.HistoryTimeout, nil, elapsed, nil, &msg)
		} else {
			msg := err.Error()
			h.Complete(webhook.HistoryFailed, nil, elapsed, nil, &msg)
		}
		d.writeHistory(ctx, h)
		return h
	}
	defer resp.Body.Close()

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	respStr := string(snippet)
	status := resp.StatusCode

	if status >= 200 && status < 300 {
		h.Complete(webhook.HistorySuccess, &status, elapsed, &respStr, nil)
	} else {
		msg := fmt.Sprintf("non-2xx response: %d", status)
		h.Complete(webhook.HistoryFailed, &status, elapsed, &respStr, &msg)
	}
	d.writeHistory(ctx, h)
	return h
}

// writeHistory persists the attempt. A write failure is logged only and
// never masks the delivery outcome already computed on h (4.4).
func (d *Dispatcher) writeHistory(ctx context.Context, h *webhook.History) {
	if err := d.history.Create(ctx, h); err != nil {
		d.log.ErrorWithError("failed to persist webhook history row", err, logger.Fields{
			"webhook_id": h.WebhookID(), "instance_id": h.InstanceID(), "event": h.Event(),
		})
	}
}
