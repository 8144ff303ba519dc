package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/vedran77/projectdesk/internal/transport/ws"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// WatchURL turns the API base URL into the project event stream URL.
func WatchURL(apiBase, token string) (string, error) {
	u, err := url.Parse(apiBase)
	if err != nil {
		return "", fmt.Errorf("parsing api url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	u.RawQuery = url.Values{"token": {token}}.Encode()
	return u.String(), nil
}

// Watch subscribes to project events and re-fetches the project list on
// each one. It returns when ctx ends or the stream closes.
func (c *Controller) Watch(ctx context.Context, wsURL string) error {
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("connecting to event stream: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	c.log.Info("watching project events")
	for {
		var evt ws.Event
		if err := wsjson.Read(ctx, conn, &evt); err != nil {
			if ctx.Err() != nil || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("reading event stream: %w", err)
		}

		if !evt.IsProjectEvent() {
			continue
		}
		c.log.Debug("project event", zap.String("type", evt.Type))
		c.FetchProjects(ctx)
	}
}
