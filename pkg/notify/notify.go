// Package notify pushes cycle summaries to external channels. Only the
// Discord webhook transport is implemented; an empty webhook URL makes the
// notifier a no-op.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/guloader/guloader/pkg/config"
)

type Notifier struct {
	cfg  config.NotificationConfig
	http *http.Client
}

func NewNotifier(cfg config.NotificationConfig) *Notifier {
	return &Notifier{
		cfg:  cfg,
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

// Enabled reports whether any delivery channel is configured.
func (n *Notifier) Enabled() bool {
	return n.cfg.DiscordWebhook != ""
}

type discordPayload struct {
	Content string `json:"content"`
}

// NotifyNewChapters announces the outcome of a monitor cycle. Delivery
// errors are logged, never propagated; a notification is not worth failing
// a cycle over.
func (n *Notifier) NotifyNewChapters(ctx context.Context, newChapters, downloaded, failed int) {
	if !n.Enabled() {
		return
	}

	msg := fmt.Sprintf("📚 %d new chapter(s) discovered, %d downloaded", newChapters, downloaded)
	if failed > 0 {
		msg += fmt.Sprintf(", %d failed", failed)
	}
	if err := n.post(ctx, msg); err != nil {
		logrus.WithError(err).Warn("discord notification failed")
	}
}

func (n *Notifier) post(ctx context.Context, content string) error {
	body, err := json.Marshal(discordPayload{Content: content})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.DiscordWebhook, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
