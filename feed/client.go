// Package feed maintains the live connection to the remote spot aggregation
// feed and converts each inbound application message into zero or one spot
// submitted to the ingest pipeline.
//
// The connection is layered: a persistent WebSocket transport, SockJS
// session framing on top of it, and STOMP messaging inside the SockJS
// frames. The session URL embeds a random server/session id pair generated
// fresh per connection attempt.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"spotfeed/metrics"
	"spotfeed/spot"
	"spotfeed/stomp"
)

// ReconnectDelay is the fixed wait between connection attempts. The feed is
// a best-effort source: no backoff, no retry limit, no circuit breaker.
const ReconnectDelay = 10 * time.Second

// bodyExcerptLen bounds how much of an undecodable payload lands in the log.
const bodyExcerptLen = 120

// Sink receives decoded spots; satisfied by pipeline.Pipeline.
type Sink interface {
	Submit(s *spot.Spot)
}

// Client speaks the layered feed protocol and feeds parsed records into the
// pipeline as its only downstream sink.
type Client struct {
	endpoint string // base URL up to the SockJS path root, e.g. wss://host/feed
	host     string // STOMP virtual host header
	topics   []string
	sink     Sink
	metrics  *metrics.Metrics
	dialer   *websocket.Dialer
}

// NewClient builds a feed client for the given endpoint and subscription
// topics.
func NewClient(endpoint, host string, topics []string, sink Sink, m *metrics.Metrics) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		host:     host,
		topics:   topics,
		sink:     sink,
		metrics:  m,
		dialer:   websocket.DefaultDialer,
	}
}

// Run connects and receives until ctx is cancelled. Any connection-level
// failure, handshake included, waits the fixed delay and reconnects
// indefinitely. Cancellation is observed at the delay, the dial, and every
// blocking receive.
func (c *Client) Run(ctx context.Context) {
	for {
		err := c.session(ctx)
		if ctx.Err() != nil {
			log.Println("Feed: shutting down")
			return
		}
		log.Printf("Feed: session ended: %v (reconnecting in %s)", err, ReconnectDelay)
		if c.metrics != nil {
			c.metrics.FeedReconnects.Inc()
		}
		timer := time.NewTimer(ReconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Println("Feed: shutting down")
			return
		case <-timer.C:
		}
	}
}

// session runs one complete connection: dial, SockJS open, STOMP handshake,
// subscriptions, then the steady-state receive loop.
func (c *Client) session(ctx context.Context) error {
	url := fmt.Sprintf("%s/%s/websocket", c.endpoint, sessionPath())
	log.Printf("Feed: connecting to %s", url)

	conn, _, err := c.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	// Unblock reads when the context is cancelled; gorilla reads have no
	// context form.
	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-sessionCtx.Done()
		conn.Close()
	}()

	// The very first frame must be the SockJS open marker. Anything else is
	// suspicious but not fatal.
	_, first, err := conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("read open frame: %w", err)
	}
	if classifyFrame(first) != frameOpen {
		log.Printf("Feed: expected SockJS open frame, got %q", excerpt(first))
	}

	if err := c.sendFrame(conn, stomp.NewConnect(c.host)); err != nil {
		return fmt.Errorf("send CONNECT: %w", err)
	}
	if err := c.awaitConnected(conn); err != nil {
		return err
	}
	for i, topic := range c.topics {
		sub := stomp.NewSubscribe(fmt.Sprintf("sub-%d", i), topic)
		if err := c.sendFrame(conn, sub); err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
	}
	log.Printf("Feed: connected, subscribed to %d topics", len(c.topics))
	if c.metrics != nil {
		c.metrics.FeedConnected.Set(1)
		defer c.metrics.FeedConnected.Set(0)
	}

	for {
		frames, err := c.readFrames(conn)
		if err != nil {
			return err
		}
		for _, raw := range frames {
			c.handleFrame(raw)
		}
	}
}

// awaitConnected consumes frames until the CONNECTED response arrives.
func (c *Client) awaitConnected(conn *websocket.Conn) error {
	for {
		frames, err := c.readFrames(conn)
		if err != nil {
			return fmt.Errorf("handshake: %w", err)
		}
		for _, raw := range frames {
			frame, err := stomp.Parse(raw)
			if err != nil {
				log.Printf("Feed: discarding unparsable handshake frame: %v", err)
				continue
			}
			if frame.Command == stomp.CmdConnected {
				return nil
			}
			log.Printf("Feed: unexpected %s frame during handshake", frame.Command)
		}
	}
}

var errSessionClosed = errors.New("session closed by server")

// readFrames blocks for one transport message and unpacks it into zero or
// more messaging-layer frames, handling the SockJS alphabet.
func (c *Client) readFrames(conn *websocket.Conn) ([]string, error) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		switch classifyFrame(data) {
		case frameHeartbeat:
			continue
		case frameClose:
			return nil, errSessionClosed
		case frameArray:
			msgs, err := innerMessages(data)
			if err != nil {
				log.Printf("Feed: bad array frame: %v", err)
				continue
			}
			return msgs, nil
		case frameOpen:
			continue
		default:
			log.Printf("Feed: ignoring unknown frame %q", excerpt(data))
		}
	}
}

// handleFrame decodes one messaging-layer frame; only MESSAGE frames carry
// spot payloads. Decode failures are contained per message.
func (c *Client) handleFrame(raw string) {
	frame, err := stomp.Parse(raw)
	if err != nil {
		log.Printf("Feed: unparsable frame: %v (%q)", err, excerpt([]byte(raw)))
		return
	}
	if frame.Command != stomp.CmdMessage {
		log.Printf("Feed: dropping %s frame", frame.Command)
		return
	}
	s, err := decodeSpot([]byte(frame.Body))
	if err != nil {
		log.Printf("Feed: payload decode failed: %v (%q)", err, excerpt([]byte(frame.Body)))
		if c.metrics != nil {
			c.metrics.DecodeErrors.Inc()
		}
		return
	}
	if s == nil {
		return
	}
	if c.metrics != nil {
		c.metrics.FeedMessages.WithLabelValues(string(s.Source)).Inc()
	}
	c.sink.Submit(s)
}

func (c *Client) sendFrame(conn *websocket.Conn, frame *stomp.Frame) error {
	payload, err := encodeOutbound(frame.Marshal())
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}

func excerpt(data []byte) string {
	if len(data) > bodyExcerptLen {
		return string(data[:bodyExcerptLen]) + "..."
	}
	return string(data)
}
