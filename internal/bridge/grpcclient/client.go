// Copyright (c) 2025 Enginebridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package grpcclient provides a gRPC-backed implementation of the Gateway
// interface. It talks to `enginebridge serve` over the Gateway.Invoke
// server stream, hands every log message to a callback as it arrives and
// returns the final outcome or the error the server reported.
//
// The package converts between the wire messages and the internal model
// types, and maps status codes back to the bridge error kinds.
package grpcclient

import (
	"context"
	"errors"
	"io"

	"enginebridge/cli/internal/bridge"
	"enginebridge/cli/internal/bridge/model"
	"enginebridge/cli/internal/bridge/wire"
	bridgeerrors "enginebridge/cli/internal/errors"
	"enginebridge/cli/internal/logging"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// LogFunc receives a normalized log line from the remote engine.
type LogFunc func(model.Line)

// Client implements bridge.Gateway against a remote gateway server.
type Client struct {
	conn  *grpc.ClientConn
	onLog LogFunc
	log   *pterm.Logger

	dialOpts []grpc.DialOption
}

var (
	_ bridge.Gateway = (*Client)(nil)
	_ bridge.Invoker = (*Client)(nil)
)

// Option customizes a Client.
type Option func(*Client)

// WithLogFunc sets the callback for streamed log lines.
func WithLogFunc(f LogFunc) Option { return func(c *Client) { c.onLog = f } }

// WithLogger sets the diagnostic logger.
func WithLogger(l *pterm.Logger) Option { return func(c *Client) { c.log = l } }

// WithDialOptions replaces the default insecure transport options.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(c *Client) { c.dialOpts = opts }
}

// Dial creates a client for addr. The connection is established lazily on
// the first call.
func Dial(addr string, opts ...Option) (*Client, error) {
	c := &Client{
		log:      logging.Nop(),
		dialOpts: []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())},
	}
	for _, o := range opts {
		o(c)
	}
	conn, err := grpc.NewClient(addr, c.dialOpts...)
	if err != nil {
		return nil, bridgeerrors.Wrap(bridgeerrors.TransportFailed, "dial "+addr, err)
	}
	c.conn = conn
	return c, nil
}

// Close releases the connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) GetSchools(ctx context.Context) ([]model.School, error) {
	return bridge.New(c).GetSchools(ctx)
}

func (c *Client) StartVerify(ctx context.Context, payload map[string]any) (*model.Outcome, error) {
	return bridge.New(c).StartVerify(ctx, payload)
}

func (c *Client) GenerateDocs(ctx context.Context, payload map[string]any) (*model.Outcome, error) {
	return bridge.New(c).GenerateDocs(ctx, payload)
}

// Invoke runs action on the remote engine.
func (c *Client) Invoke(ctx context.Context, action model.Action, payload map[string]any) (*model.Outcome, error) {
	req, err := wire.EncodeRequest(action, payload)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	id := uuid.NewString()
	ctx = metadata.AppendToOutgoingContext(ctx, wire.RequestIDKey, id)

	cs, err := c.conn.NewStream(ctx, &wire.InvokeStreamDesc, wire.InvokeMethod)
	if err != nil {
		return nil, wire.FromStatus(err, nil)
	}
	stream := &grpc.GenericClientStream[structpb.Struct, structpb.Struct]{ClientStream: cs}
	if err := stream.Send(req); err != nil && !errors.Is(err, io.EOF) {
		return nil, wire.FromStatus(err, nil)
	}
	if err := stream.CloseSend(); err != nil {
		return nil, wire.FromStatus(err, nil)
	}
	c.log.Debug("remote invocation started", c.log.Args("id", id, "action", action))

	for {
		msg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil, bridgeerrors.New(bridgeerrors.TransportFailed, "stream ended without an outcome")
		}
		if err != nil {
			return nil, wire.FromStatus(err, stream.Trailer())
		}
		ev, err := wire.DecodeEvent(msg)
		if err != nil {
			c.log.Warn("skipping unknown message", c.log.Args("id", id, "error", err))
			continue
		}
		switch ev.Kind {
		case wire.KindLog:
			if c.onLog != nil {
				ev.Line.RequestID = id
				c.onLog(ev.Line)
			}
		case wire.KindOutcome:
			c.log.Debug("remote invocation finished", c.log.Args("id", id))
			return ev.Outcome, nil
		}
	}
}
