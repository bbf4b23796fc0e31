// Package notify abstracts announcement delivery. Delivery is best effort:
// the lifecycle engine never rolls back a committed transition because a
// message failed to post.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/logger"
	"github.com/google/uuid"

	"giveaway/internal/models"
)

// Notifier posts and updates drawing announcements on the chat platform.
type Notifier interface {
	// AnnounceOpened posts the opening announcement and returns its
	// reference for later edits.
	AnnounceOpened(ctx context.Context, d *models.Drawing) (string, error)

	// AnnounceEnded posts the winner announcement.
	AnnounceEnded(ctx context.Context, d *models.Drawing, winners []string) error

	// UpdateAnnouncement refreshes the original announcement message.
	UpdateAnnouncement(ctx context.Context, d *models.Drawing) error
}

// LogNotifier writes announcements to the log. Default when no webhook is
// configured; announcement refs are generated locally.
type LogNotifier struct{}

func (LogNotifier) AnnounceOpened(_ context.Context, d *models.Drawing) (string, error) {
	ref := uuid.NewString()
	logger.Infof("drawing %s opened in %s: %q, %d winner(s), ends %s",
		d.ID, d.ChannelRef, d.Prize, d.WinnerQuota, d.EndTime.Format(time.RFC3339))
	return ref, nil
}

func (LogNotifier) AnnounceEnded(_ context.Context, d *models.Drawing, winners []string) error {
	logger.Infof("drawing %s ended: %q won by %v", d.ID, d.Prize, winners)
	return nil
}

func (LogNotifier) UpdateAnnouncement(_ context.Context, d *models.Drawing) error {
	logger.Infof("drawing %s announcement updated", d.ID)
	return nil
}

// WebhookNotifier posts announcement events as JSON to a configured URL.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a notifier posting to the given URL.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{url: url, client: &http.Client{Timeout: 10 * time.Second}}
}

type webhookEvent struct {
	Event   string          `json:"event"`
	Drawing *models.Drawing `json:"drawing"`
	Winners []string        `json:"winners,omitempty"`
}

type webhookResponse struct {
	MessageID string `json:"message_id"`
}

func (n *WebhookNotifier) post(ctx context.Context, event webhookEvent) (string, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: webhook returned status %d", models.ErrDeliveryFailed, resp.StatusCode)
	}

	var body webhookResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.MessageID == "" {
		// Receiver did not hand back a message id; mint a local ref so
		// the drawing still gets a stable announcement reference.
		return uuid.NewString(), nil
	}
	return body.MessageID, nil
}

func (n *WebhookNotifier) AnnounceOpened(ctx context.Context, d *models.Drawing) (string, error) {
	return n.post(ctx, webhookEvent{Event: "drawing_opened", Drawing: d})
}

func (n *WebhookNotifier) AnnounceEnded(ctx context.Context, d *models.Drawing, winners []string) error {
	_, err := n.post(ctx, webhookEvent{Event: "drawing_ended", Drawing: d, Winners: winners})
	return err
}

func (n *WebhookNotifier) UpdateAnnouncement(ctx context.Context, d *models.Drawing) error {
	_, err := n.post(ctx, webhookEvent{Event: "drawing_updated", Drawing: d})
	return err
}
