package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/slack-go/slack"

	"github.com/jadenj13/notify-review/internals/review"
)

type Notifier struct {
	hc       *http.Client
	botToken string
	apiURL   string
}

type Option func(*Notifier)

// WithAPIURL points the notifier at a different Slack API root (must end in "/").
func WithAPIURL(url string) Option {
	return func(n *Notifier) { n.apiURL = url }
}

func WithHTTPClient(c *http.Client) Option {
	return func(n *Notifier) { n.hc = c }
}

func NewNotifier(botToken string, opts ...Option) *Notifier {
	n := &Notifier{
		hc:       http.DefaultClient,
		botToken: botToken,
		apiURL:   slack.APIURL,
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Notify sends the review request to the reviewer's DM. Slack answering
// ok=false (unknown handle, revoked token) is returned as an error.
func (n *Notifier) Notify(ctx context.Context, msg review.Notification) error {
	m := FormatMessage(msg)

	body, err := json.Marshal(slack.Msg{
		Channel: m.Channel,
		Text:    m.Text,
		Blocks:  slack.Blocks{BlockSet: m.Blocks},
	})
	if err != nil {
		return fmt.Errorf("slack notify %s: encode: %w", m.Channel, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.apiURL+"chat.postMessage", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack notify %s: %w", m.Channel, err)
	}
	req.Header.Set("Authorization", "Bearer "+n.botToken)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := n.hc.Do(req)
	if err != nil {
		return fmt.Errorf("slack notify %s: %w", m.Channel, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("slack notify %s: status %d", m.Channel, resp.StatusCode)
	}

	var sr slack.SlackResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return fmt.Errorf("slack notify %s: decode response: %w", m.Channel, err)
	}
	if err := sr.Err(); err != nil {
		return fmt.Errorf("slack notify %s: %w", m.Channel, err)
	}
	return nil
}
