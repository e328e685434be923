package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/vsinha/printcenter/pkg/domain/entities"
	"github.com/vsinha/printcenter/pkg/domain/repositories"
	"github.com/vsinha/printcenter/pkg/infrastructure/events"
)

// WebhookPayload is the JSON body posted for each delivered notification
type WebhookPayload struct {
	Event        string                `json:"event"`
	Recipient    WebhookRecipient      `json:"recipient"`
	Notification entities.Notification `json:"notification"`
}

type WebhookRecipient struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// Webhook posts created notifications to an external endpoint for recipients
// subscribed to email. Delivery runs in the background; Wait blocks until
// every pending delivery has finished.
type Webhook struct {
	url        string
	maxElapsed time.Duration
	client     *http.Client
	store      repositories.Store
	logger     zerolog.Logger
	wg         sync.WaitGroup
}

func NewWebhook(url string, maxElapsed time.Duration, store repositories.Store, client *http.Client, logger zerolog.Logger) *Webhook {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Webhook{
		url:        url,
		maxElapsed: maxElapsed,
		client:     client,
		store:      store,
		logger:     logger.With().Str("component", "webhook").Logger(),
	}
}

var webhookTypes = []string{events.NotificationCreatedEvent}

func (h *Webhook) Types() []string { return webhookTypes }

func (h *Webhook) CanHandle(eventType string) bool { return handles(webhookTypes, eventType) }

func (h *Webhook) Handle(ctx context.Context, event events.Event) error {
	created, ok := event.Data().(events.NotificationCreated)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Data(), event.Type())
	}
	n := created.Notification

	var (
		user       *entities.User
		subscribed bool
	)
	err := h.store.View(ctx, func(tx repositories.Tx) error {
		var err error
		if user, err = tx.Users().Get(n.RecipientID); err != nil {
			return err
		}
		prefs, err := tx.Preferences().Get(n.RecipientID)
		if errors.Is(err, repositories.ErrNotFound) {
			prefs = entities.DefaultPreferences(n.RecipientID)
		} else if err != nil {
			return err
		}
		subscribed = prefs.EmailSubscription
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to load recipient %s: %w", n.RecipientID, err)
	}
	if !subscribed {
		return nil
	}

	body, err := json.Marshal(WebhookPayload{
		Event:        event.Type(),
		Recipient:    WebhookRecipient{ID: user.ID, Email: user.Email, FullName: user.FullName},
		Notification: n,
	})
	if err != nil {
		return err
	}

	// the request context ends with the response; delivery must outlive it
	deliverCtx := context.WithoutCancel(ctx)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		if err := h.deliver(deliverCtx, body); err != nil {
			h.logger.Error().Err(err).
				Str("notification", n.ID).
				Str("recipient", n.RecipientID).
				Msg("webhook delivery failed")
			return
		}
		h.logger.Debug().Str("notification", n.ID).Msg("webhook delivered")
	}()
	return nil
}

// deliver retries 5xx responses and transport errors; 4xx responses are final
func (h *Webhook) deliver(ctx context.Context, body []byte) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = h.maxElapsed
	return backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := h.client.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		switch {
		case resp.StatusCode >= 500:
			return fmt.Errorf("webhook returned %s", resp.Status)
		case resp.StatusCode >= 400:
			return backoff.Permanent(fmt.Errorf("webhook returned %s", resp.Status))
		}
		return nil
	}, backoff.WithContext(bo, ctx))
}

// Wait blocks until every in-flight delivery has finished
func (h *Webhook) Wait() {
	h.wg.Wait()
}
