package huobi

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/yitech/chartfeed/adapter"
	"github.com/yitech/chartfeed/model/candle"
)

// token implements adapter.Token for a single channel subscription.
type token struct {
	cancel context.CancelFunc
}

func (t *token) Unsubscribe() { t.cancel() }

// subscribeChannel opens a WebSocket session subscribed to channel,
// invoking handler for every tick. It reconnects automatically on error
// and resubscribes the channel after each reconnect.
func subscribeChannel(ctx context.Context, wsURL string, log zerolog.Logger, channel string, handler adapter.TickHandler) (adapter.Token, error) {
	ctx, cancel := context.WithCancel(ctx)
	log = log.With().Str("channel", channel).Logger()

	go func() {
		backoff := time.Second
		for {
			if ctx.Err() != nil {
				return
			}
			if err := connectAndRead(ctx, wsURL, log, channel, handler); err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Dur("backoff", backoff).Msg("ws session ended, reconnecting")
				select {
				case <-time.After(backoff):
				case <-ctx.Done():
					return
				}
				if backoff < 30*time.Second {
					backoff *= 2
				}
			} else {
				backoff = time.Second
			}
		}
	}()

	return &token{cancel: cancel}, nil
}

// wsWriter serializes frame writes: the cancel goroutine's unsub/close
// can race the read loop's pong, and the connection allows only one
// writer at a time.
type wsWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsWriter) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(v)
}

func (w *wsWriter) writeClose() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// connectAndRead maintains a single WebSocket session until the context
// is cancelled or an error occurs.
func connectAndRead(ctx context.Context, wsURL string, log zerolog.Logger, channel string, handler adapter.TickHandler) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()
	w := &wsWriter{conn: conn}

	// Unsubscribe and close when the context is cancelled.
	go func() {
		<-ctx.Done()
		w.writeJSON(map[string]string{"unsub": channel, "id": "chartfeed"})
		w.writeClose()
		conn.Close()
	}()

	if err := w.writeJSON(map[string]string{"sub": channel, "id": "chartfeed"}); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			return fmt.Errorf("read: %w", err)
		}

		// The server gzip-compresses every frame.
		if msgType == websocket.BinaryMessage {
			msg, err = gunzip(msg)
			if err != nil {
				log.Warn().Err(err).Msg("inflate error")
				continue
			}
		}

		frame, err := parseFrame(channel, msg)
		if err != nil {
			log.Warn().Err(err).Msg("parse error")
			continue
		}

		switch {
		case frame.ping != 0:
			// Heartbeat: every ping must be answered or the server
			// drops the connection.
			if err := w.writeJSON(map[string]int64{"pong": frame.ping}); err != nil {
				return fmt.Errorf("pong: %w", err)
			}
		case frame.tick != nil:
			if ctx.Err() != nil {
				return nil
			}
			handler(*frame.tick)
		}
	}
}

// wsFrame is the decoded result of one server message: a heartbeat, a
// control ack, or a tick for our channel.
type wsFrame struct {
	ping int64
	tick *candle.Candle
}

// wsMsg is the server message envelope. Exactly one of the fields is
// populated per message.
type wsMsg struct {
	Ping   int64           `json:"ping"`
	Subbed string          `json:"subbed"`
	Unsub  string          `json:"unsubbed"`
	Ch     string          `json:"ch"`
	Tick   json.RawMessage `json:"tick"`
}

// parseFrame decodes one inflated server message. Ticks for other
// channels and control acks decode to an empty frame.
func parseFrame(channel string, msg []byte) (wsFrame, error) {
	var m wsMsg
	if err := json.Unmarshal(msg, &m); err != nil {
		return wsFrame{}, err
	}
	if m.Ping != 0 {
		return wsFrame{ping: m.Ping}, nil
	}
	if m.Ch != channel || m.Tick == nil {
		return wsFrame{}, nil
	}

	var row klineRow
	if err := json.Unmarshal(m.Tick, &row); err != nil {
		return wsFrame{}, fmt.Errorf("tick: %w", err)
	}
	c, err := row.toCandle()
	if err != nil {
		return wsFrame{}, err
	}
	return wsFrame{tick: &c}, nil
}

// gunzip inflates one compressed frame.
func gunzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
