package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/followup/backend/internal/core/ports"
	"github.com/followup/backend/internal/infrastructure/logger"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	leaveWriteTimeout       = time.Second
)

type ClientConfig struct {
	// URL of the realtime websocket endpoint, e.g. ws://host:8080/realtime/v1/websocket.
	URL              string
	Encoding         string
	Header           http.Header
	HandshakeTimeout time.Duration
	Logger           *logger.Logger
}

// Client joins channels on a remote realtime endpoint. Every subscription
// owns its own websocket connection.
type Client struct {
	url    string
	header http.Header
	codec  Codec
	dialer *websocket.Dialer
	logger *logger.Logger
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("realtime: client url is required")
	}
	codec, err := CodecFor(cfg.Encoding)
	if err != nil {
		return nil, err
	}
	timeout := cfg.HandshakeTimeout
	if timeout == 0 {
		timeout = defaultHandshakeTimeout
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}

	url := cfg.URL
	if codec.Name() != "json" {
		url += "?encoding=" + codec.Name()
	}

	return &Client{
		url:    url,
		header: cfg.Header,
		codec:  codec,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: timeout,
		},
		logger: log,
	}, nil
}

func (c *Client) Subscribe(ctx context.Context, channel string) (ports.Subscription, error) {
	return c.Listen(ctx, channel)
}

// Listen starts joining channel in the background. Progress is reported on
// States; broadcasts from other members arrive on Frames.
func (c *Client) Listen(ctx context.Context, channel string) (*RemoteSubscription, error) {
	runCtx, cancel := context.WithCancel(ctx)
	s := &RemoteSubscription{
		client:  c,
		channel: channel,
		states:  make(chan ports.SubscriptionState, 4),
		frames:  make(chan Frame, subscriberBuffer),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go s.run(runCtx)
	return s, nil
}

type RemoteSubscription struct {
	client  *Client
	channel string
	states  chan ports.SubscriptionState
	frames  chan Frame
	cancel  context.CancelFunc
	done    chan struct{}

	mu     sync.Mutex
	conn   *websocket.Conn
	joined bool
	closed bool
}

func (s *RemoteSubscription) States() <-chan ports.SubscriptionState { return s.states }

// Frames is closed once the connection ends.
func (s *RemoteSubscription) Frames() <-chan Frame { return s.frames }

func (s *RemoteSubscription) emit(state ports.SubscriptionState) {
	select {
	case s.states <- state:
	default:
	}
}

func (s *RemoteSubscription) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.frames)

	log := s.client.logger
	conn, _, err := s.client.dialer.DialContext(ctx, s.client.url, s.client.header)
	if err != nil {
		log.Warnw("realtime_dial_failed", "channel", s.channel, "error", err)
		s.emit(ports.SubscriptionChannelError)
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.conn = conn
	err = s.writeLocked(Frame{Type: FrameJoin, Channel: s.channel})
	s.mu.Unlock()
	if err != nil {
		log.Warnw("realtime_join_write_failed", "channel", s.channel, "error", err)
		s.emit(ports.SubscriptionChannelError)
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !s.isClosed() {
				log.Warnw("realtime_read_failed", "channel", s.channel, "error", err)
				s.emit(ports.SubscriptionClosed)
			}
			return
		}

		var f Frame
		if err := s.client.codec.Unmarshal(data, &f); err != nil {
			log.Warnw("realtime_frame_decode_failed", "channel", s.channel, "error", err)
			continue
		}

		switch f.Type {
		case FrameJoined:
			if f.Channel != s.channel {
				continue
			}
			s.mu.Lock()
			s.joined = true
			s.mu.Unlock()
			s.emit(ports.SubscriptionSubscribed)
		case FrameBroadcast:
			select {
			case s.frames <- f:
			default:
				log.Warnw("realtime_listener_lagging", "channel", s.channel, "event", f.Event)
			}
		case FrameError:
			log.Warnw("realtime_server_error", "channel", s.channel, "error", f.Error)
			if !s.isJoined() {
				s.emit(ports.SubscriptionChannelError)
				return
			}
		case FrameLeft:
			s.emit(ports.SubscriptionClosed)
			return
		}
	}
}

func (s *RemoteSubscription) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *RemoteSubscription) isJoined() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.joined
}

// writeLocked must be called with s.mu held.
func (s *RemoteSubscription) writeLocked(f Frame) error {
	data, err := s.client.codec.Marshal(f)
	if err != nil {
		return err
	}
	msgType := websocket.TextMessage
	if s.client.codec.Binary() {
		msgType = websocket.BinaryMessage
	}
	return s.conn.WriteMessage(msgType, data)
}

func (s *RemoteSubscription) Send(ctx context.Context, msg ports.BroadcastMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSubscriptionClosed
	}
	if s.conn == nil || !s.joined {
		return fmt.Errorf("realtime: channel %q not joined", s.channel)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultHandshakeTimeout)
	}
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return s.writeLocked(broadcastFrame(s.channel, msg))
}

// Close leaves the channel, closes the connection and waits for the reader
// goroutine to exit. Later calls return nil.
func (s *RemoteSubscription) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.cancel()

	var err error
	if s.conn != nil {
		if s.joined {
			_ = s.conn.SetWriteDeadline(time.Now().Add(leaveWriteTimeout))
			_ = s.writeLocked(Frame{Type: FrameLeave, Channel: s.channel})
		}
		err = s.conn.Close()
	}
	s.mu.Unlock()

	<-s.done
	return err
}
