package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gorillawebsocket "github.com/gorilla/websocket"

	"github.com/hospdash/hospdash/internal/platform/notification"
	"github.com/hospdash/hospdash/internal/platform/websocket"
)

// Watch subscribes to live events for the given patients and forwards each
// event's message to sink at info level. It blocks until ctx is cancelled
// (returning nil) or the connection fails.
func (c *Client) Watch(ctx context.Context, patients []string, sink notification.Sink) error {
	wsURL, err := c.watchURL(patients)
	if err != nil {
		return err
	}
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, resp, err := gorillawebsocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return &APIError{Status: resp.StatusCode, Message: readMessage(resp.Body)}
		}
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	c.logger.Info().Int("patients", len(patients)).Msg("watching live events")
	for {
		var ev websocket.Event
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read event: %w", err)
		}
		if ev.Message == "" {
			continue
		}
		sink.Notify(ctx, ev.Message, notification.LevelInfo)
	}
}

func (c *Client) watchURL(patients []string) (string, error) {
	u, err := url.Parse(c.baseURL + "/ws")
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	topics := make([]string, 0, len(patients))
	for _, p := range patients {
		topics = append(topics, websocket.PatientTopic(p))
	}
	q := u.Query()
	q.Set("topics", strings.Join(topics, ","))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
