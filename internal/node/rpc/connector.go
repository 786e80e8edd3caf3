package rpc

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/status"

	"github.com/05nelsonm/zap-desktop/internal/node/constants"
)

type State int

const (
	StateIdle State = iota
	StateConnecting
	StateReady
	StateDisconnecting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateDisconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

// ServiceKind identifies which lnd gRPC surface a connector fronts.
type ServiceKind string

const (
	ServiceWalletUnlocker ServiceKind = "WalletUnlocker"
	ServiceLightning      ServiceKind = "Lightning"
)

// ClientConn is the slice of *grpc.ClientConn the connector uses, pulled out
// so tests can substitute a fake channel.
type ClientConn interface {
	Invoke(ctx context.Context, method string, args any, reply any, opts ...grpc.CallOption) error
	NewStream(ctx context.Context, desc *grpc.StreamDesc, method string, opts ...grpc.CallOption) (grpc.ClientStream, error)
	Connect()
	GetState() connectivity.State
	WaitForStateChange(ctx context.Context, s connectivity.State) bool
	Close() error
}

// DialFunc opens a channel to target using creds. The returned channel is
// expected to be idle; the connector drives it to ready itself.
type DialFunc func(target string, creds *Credentials) (ClientConn, error)

func grpcDial(target string, creds *Credentials) (ClientConn, error) {
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(creds.Transport),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(rawCodec{})),
	}
	if creds.PerRPC != nil {
		opts = append(opts, grpc.WithPerRPCCredentials(creds.PerRPC))
	}
	return grpc.NewClient(target, opts...)
}

// Connector owns one gRPC service connection and its little state machine:
// idle -> connecting -> ready -> idle. It is the sole writer of its state;
// nothing outside the connector can force a transition.
type Connector struct {
	kind     ServiceKind
	target   string
	cert     Source
	macaroon Source

	dial         DialFunc
	readyTimeout time.Duration

	mu    sync.Mutex
	state State
	conn  ClientConn
	creds *Credentials
}

// NewConnector builds an idle connector for one service on one target. A
// zero macaroon Source means the service authenticates with TLS alone, as
// the wallet unlocker does before any macaroon exists.
func NewConnector(kind ServiceKind, target string, cert, macaroon Source) *Connector {
	return &Connector{
		kind:         kind,
		target:       target,
		cert:         cert,
		macaroon:     macaroon,
		dial:         grpcDial,
		readyTimeout: constants.GRPCReadyTimeout,
	}
}

func (c *Connector) Kind() ServiceKind {
	return c.kind
}

func (c *Connector) Target() string {
	return c.target
}

func (c *Connector) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect validates the host, builds credentials, opens the channel and
// blocks until it reports ready or the bounded wait elapses. At most one
// attempt may be in flight per connector; a second Connect while one is
// running fails immediately without starting a new dial.
func (c *Connector) Connect(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateIdle:
		c.state = StateConnecting
	case StateConnecting, StateDisconnecting:
		c.mu.Unlock()
		return ErrConnectInProgress
	case StateReady:
		c.mu.Unlock()
		return fmt.Errorf("%s connector is already connected to %s", c.kind, c.target)
	}
	c.mu.Unlock()

	err := c.connect(ctx)
	if err != nil {
		c.mu.Lock()
		c.state = StateIdle
		c.conn = nil
		c.creds = nil
		c.mu.Unlock()
		return err
	}
	return nil
}

func (c *Connector) connect(ctx context.Context) error {
	if err := ValidateHost(c.target); err != nil {
		return err
	}

	creds, err := BuildCredentials(ctx, c.cert, c.macaroon)
	if err != nil {
		return err
	}

	conn, err := c.dial(c.target, creds)
	if err != nil {
		return fmt.Errorf("unable to open gRPC channel to %s: %w", c.target, err)
	}
	conn.Connect()

	// Cancellation is deadline based: there is no way to abort an
	// in-flight dial, so on timeout the channel is simply abandoned
	// and closed.
	readyCtx, cancel := context.WithTimeout(ctx, c.readyTimeout)
	defer cancel()

	for {
		s := conn.GetState()
		if s == connectivity.Ready {
			break
		}
		if s == connectivity.Shutdown {
			_ = conn.Close()
			return fmt.Errorf("gRPC channel to %s shut down while connecting", c.target)
		}
		if !conn.WaitForStateChange(readyCtx, s) {
			_ = conn.Close()
			return ErrDialTimeout
		}
	}

	c.mu.Lock()
	c.conn = conn
	c.creds = creds
	c.state = StateReady
	c.mu.Unlock()

	log.Info().Msgf("%s connector ready on %s", c.kind, c.target)
	return nil
}

// Disconnect closes the channel if one is open. Disconnecting an idle
// connector is a no-op.
func (c *Connector) Disconnect() error {
	c.mu.Lock()
	if c.state == StateConnecting {
		c.mu.Unlock()
		return ErrConnectInProgress
	}
	if c.state != StateReady {
		c.mu.Unlock()
		return nil
	}
	c.state = StateDisconnecting
	conn := c.conn
	c.conn = nil
	c.creds = nil
	c.mu.Unlock()

	err := conn.Close()

	c.mu.Lock()
	c.state = StateIdle
	c.mu.Unlock()

	return err
}

// Invoke forwards one unary call with a raw payload and returns the raw
// response. It is a thin pass-through: no retries, no interpretation beyond
// mapping UNIMPLEMENTED onto the named error kind.
func (c *Connector) Invoke(ctx context.Context, method string, payload []byte) ([]byte, error) {
	conn, err := c.readyConn()
	if err != nil {
		return nil, err
	}

	req := &rawMessage{data: payload}
	resp := &rawMessage{}
	err = conn.Invoke(ctx, method, req, resp, grpc.ForceCodec(rawCodec{}))
	if err != nil {
		if status.Code(err) == codes.Unimplemented {
			return nil, fmt.Errorf("%s: %w", method, ErrServiceUnimplemented)
		}
		return nil, err
	}
	return resp.data, nil
}

// Subscribe opens a server-streaming call and delivers raw messages on the
// returned channel until the stream or ctx ends. The channel is closed when
// the stream is done.
func (c *Connector) Subscribe(ctx context.Context, method string, payload []byte) (<-chan []byte, error) {
	conn, err := c.readyConn()
	if err != nil {
		return nil, err
	}

	desc := &grpc.StreamDesc{
		StreamName:    method,
		ServerStreams: true,
	}
	stream, err := conn.NewStream(ctx, desc, method, grpc.ForceCodec(rawCodec{}))
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(&rawMessage{data: payload}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		for {
			m := &rawMessage{}
			if err := stream.RecvMsg(m); err != nil {
				if err != io.EOF && ctx.Err() == nil {
					log.Warn().Err(err).Msgf("%s stream %s ended", c.kind, method)
				}
				return
			}
			select {
			case out <- m.data:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (c *Connector) readyConn() (ClientConn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateReady || c.conn == nil {
		return nil, ErrNotReady
	}
	return c.conn, nil
}
