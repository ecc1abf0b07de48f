package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"assetwatch/internal/assetbus"
)

// Client is a connection to an upstream asset processor event stream.
type Client struct {
	url   string
	conn  *websocket.Conn
	pub   assetbus.Publisher
	hooks Hooks
}

// Dial connects to the WebSocket event stream at url. Events read by Run are
// published to pub.
func Dial(ctx context.Context, url string, pub assetbus.Publisher, hooks Hooks) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial feed %s: %w", url, err)
	}
	return &Client{url: url, conn: conn, pub: pub, hooks: hooks}, nil
}

// Run pumps events until the stream ends or ctx is done. It closes the
// connection before returning and must be called at most once.
func (c *Client) Run(ctx context.Context) error {
	log := c.hooks.logger()
	log.Info().Str("url", c.url).Msg("feed connected")
	n, err := Pump(ctx, c.conn, c.pub, c.hooks)
	log.Info().Str("url", c.url).Int("events", n).AnErr("reason", err).Msg("feed disconnected")
	return err
}

// Close sends a normal close frame without waiting for Run to return.
func (c *Client) Close() error {
	return c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(closeGrace))
}

// DefaultRetry is the reconnect delay Follow uses when retry <= 0.
const DefaultRetry = 2 * time.Second

// Follow keeps a feed connected to url until ctx is done, reconnecting after
// retry whenever the dial fails or the stream ends. It always returns ctx.Err().
func Follow(ctx context.Context, url string, pub assetbus.Publisher, hooks Hooks, retry time.Duration) error {
	if retry <= 0 {
		retry = DefaultRetry
	}
	log := hooks.logger()
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		c, err := Dial(ctx, url, pub, hooks)
		if err == nil {
			err = c.Run(ctx)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Dur("retry", retry).Msg("feed interrupted")
		}
		timer.Reset(retry)
	}
}
