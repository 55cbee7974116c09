package channel

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zerosync-co/ghosttext/internal/logging"
	"github.com/zerosync-co/ghosttext/internal/pubsub"
	"github.com/zerosync-co/ghosttext/internal/suggest"
)

const (
	handshakeTimeout = 5 * time.Second
	closeGracePeriod = time.Second
)

// Client is a websocket Channel. The connection is dialed on the first Send
// and redialed on the next Send after it breaks.
type Client struct {
	url    string
	header http.Header
	dialer *websocket.Dialer
	broker *pubsub.Broker[suggest.Suggestion]
	log    *slog.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
	wg     sync.WaitGroup
}

type ClientOption func(*Client)

func WithHeader(h http.Header) ClientOption {
	return func(c *Client) {
		c.header = h
	}
}

func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func NewClient(url string, opts ...ClientOption) *Client {
	c := &Client{
		url:    url,
		dialer: &websocket.Dialer{HandshakeTimeout: handshakeTimeout, Proxy: http.ProxyFromEnvironment},
		broker: pubsub.NewBroker[suggest.Suggestion](),
		log:    slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.With("component", "channel", "url", url)
	return c
}

func (c *Client) Subscribe(ctx context.Context) <-chan pubsub.Event[suggest.Suggestion] {
	return c.broker.Subscribe(ctx)
}

func (c *Client) Send(ctx context.Context, req suggest.Request) error {
	payload, err := EncodeRequest(req)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	conn, err := c.connectLocked(ctx)
	if err != nil {
		return err
	}

	deadline, _ := ctx.Deadline()
	if err := conn.SetWriteDeadline(deadline); err != nil {
		c.dropLocked(conn)
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.dropLocked(conn)
		return fmt.Errorf("write request %d: %w", req.Version, err)
	}
	c.log.Debug("request sent", "version", req.Version)
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	var err error
	if conn != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
		err = conn.Close()
	}
	c.wg.Wait()
	c.broker.Shutdown()
	return err
}

func (c *Client) connectLocked(ctx context.Context) (*websocket.Conn, error) {
	if c.conn != nil {
		return c.conn, nil
	}
	conn, resp, err := c.dialer.DialContext(ctx, c.url, c.header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.url, err)
	}
	c.log.Debug("connected")
	c.conn = conn
	c.wg.Add(1)
	go c.readLoop(conn)
	return conn, nil
}

// dropLocked forgets a broken connection so the next Send redials.
func (c *Client) dropLocked(conn *websocket.Conn) {
	if c.conn == conn {
		c.conn = nil
	}
	conn.Close()
}

func (c *Client) readLoop(conn *websocket.Conn) {
	defer c.wg.Done()
	defer logging.RecoverPanic("channel-read-loop", func() {
		c.mu.Lock()
		c.dropLocked(conn)
		c.mu.Unlock()
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			c.dropLocked(conn)
			c.mu.Unlock()
			if !closed && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Warn("connection lost", "error", err)
			}
			return
		}
		c.dispatch(data)
	}
}

func (c *Client) dispatch(data []byte) {
	f, err := Decode(data)
	if err != nil {
		c.log.Warn("dropping undecodable frame", "error", err)
		return
	}
	switch f.Type {
	case TypeData:
		c.broker.Publish(suggest.EventSuggestion, f.Suggestion)
	case TypeError:
		c.log.Warn("backend reported an error", "version", f.Error.RequestVersion, "message", f.Error.Message)
		if f.Error.RequestVersion != 0 {
			// An empty answer settles the request instead of leaving it pending.
			c.broker.Publish(suggest.EventSuggestion, suggest.Suggestion{
				OriginVersion: f.Error.RequestVersion,
				Anchor:        f.Error.Anchor,
			})
		}
	default:
		c.log.Debug("ignoring frame", "type", f.Type)
	}
}
