package feed

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"assetwatch/internal/assetbus"
)

// Hooks observes what a pump does with incoming messages. All fields are optional.
type Hooks struct {
	Logger   *zerolog.Logger
	Accepted func(assetbus.Event)
	Rejected func(error)
}

func (h Hooks) logger() zerolog.Logger {
	if h.Logger == nil {
		return zerolog.Nop()
	}
	return *h.Logger
}

// closeGrace bounds how long a close frame may take to write.
const closeGrace = time.Second

// Pump reads text messages from conn, decodes each as an asset event and
// publishes it. Malformed messages are skipped. Pump returns the number of
// published events when the peer closes normally (nil error), the read fails,
// or ctx is done (ctx.Err()). conn is closed on return.
func Pump(ctx context.Context, conn *websocket.Conn, pub assetbus.Publisher, hooks Hooks) (int, error) {
	log := hooks.logger()
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(closeGrace))
			_ = conn.Close()
		case <-stop:
		}
	}()
	defer func() {
		close(stop)
		wg.Wait()
		_ = conn.Close()
	}()

	n := 0
	for {
		typ, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return n, ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return n, nil
			}
			return n, err
		}
		if typ != websocket.TextMessage {
			continue
		}
		e, err := DecodeEvent(msg)
		if err != nil {
			log.Warn().Err(err).Msg("feed: dropping malformed event")
			if hooks.Rejected != nil {
				hooks.Rejected(err)
			}
			continue
		}
		pub.Publish(e)
		n++
		if hooks.Accepted != nil {
			hooks.Accepted(e)
		}
	}
}
