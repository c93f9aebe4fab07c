package provider

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pulse-qa/pulse/internal/domain"
)

const dialTimeout = 10 * time.Second

// WSPush is a Push provider over a websocket connection to the relay's
// /v1/stream endpoint. Each Subscribe call owns one connection.
type WSPush struct {
	baseURL string
	dialer  *websocket.Dialer
	header  http.Header
	log     *zap.Logger
}

// NewWSPush creates a websocket push provider for the given server base URL
// (http, https, ws or wss scheme). A nil logger disables logging.
func NewWSPush(serverURL string, log *zap.Logger) *WSPush {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSPush{
		baseURL: strings.TrimRight(serverURL, "/"),
		dialer:  websocket.DefaultDialer,
		log:     log,
	}
}

// Subscribe dials the stream endpoint for topic. A successful dial is the
// subscription ack; the read loop then feeds onEvent until the connection
// drops. A dial failure is returned to the caller instead of going through
// onStatus.
func (p *WSPush) Subscribe(topic string, onEvent func(domain.ActivityLogEntry), onStatus func(PushStatus)) (Handle, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	u := wsScheme(p.baseURL) + "/v1/stream/" + topic
	conn, resp, err := p.dialer.DialContext(ctx, u, p.header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}

	h := &wsHandle{conn: conn}
	p.log.Debug("subscribed", zap.String("topic", topic))
	onStatus(StatusSubscribed)
	go h.readLoop(topic, onEvent, onStatus, p.log)
	return h, nil
}

type wsHandle struct {
	conn   *websocket.Conn
	once   sync.Once
	closed atomic.Bool
}

// Unsubscribe sends a close frame and drops the connection. The read loop
// notices and exits without reporting a status.
func (h *wsHandle) Unsubscribe() {
	h.once.Do(func() {
		h.closed.Store(true)
		deadline := time.Now().Add(time.Second)
		_ = h.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = h.conn.Close()
	})
}

func (h *wsHandle) readLoop(topic string, onEvent func(domain.ActivityLogEntry), onStatus func(PushStatus), log *zap.Logger) {
	for {
		var e domain.ActivityLogEntry
		if err := h.conn.ReadJSON(&e); err != nil {
			if h.closed.Load() {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("stream closed by peer", zap.String("topic", topic))
				onStatus(StatusClosed)
			} else {
				log.Debug("stream read failed", zap.String("topic", topic), zap.Error(err))
				onStatus(StatusError)
			}
			return
		}
		onEvent(e)
	}
}

// wsScheme rewrites an http(s) base URL to its websocket equivalent.
func wsScheme(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base
}
