// Copyright (c) 2025 Enginebridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package grpcserver exposes the command gateway over gRPC.
//
// Each Invoke call runs one engine invocation. Engine output is normalized
// through a per-call log feed and streamed to the client as log messages;
// the stream then ends with either one outcome message or an error status.
package grpcserver

import (
	"context"
	"net"
	"sync"

	"enginebridge/cli/internal/bridge/model"
	"enginebridge/cli/internal/bridge/wire"
	"enginebridge/cli/internal/logfeed"
	"enginebridge/cli/internal/logging"
	"enginebridge/cli/internal/runner"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// Engine runs one invocation, forwarding raw lines to sink.
// *runner.Runner implements it.
type Engine interface {
	Run(ctx context.Context, req model.Request, sink runner.Sink) (*model.Outcome, error)
}

// GatewayServer is the handler type registered for the Gateway service.
type GatewayServer interface {
	Invoke(req *structpb.Struct, stream grpc.ServerStreamingServer[structpb.Struct]) error
}

// ServiceDesc registers the Gateway service without generated stubs.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: wire.ServiceName,
	HandlerType: (*GatewayServer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Invoke",
			Handler:       invokeHandler,
			ServerStreams: true,
		},
	},
	Metadata: "enginebridge/gateway",
}

func invokeHandler(srv any, stream grpc.ServerStream) error {
	m := new(structpb.Struct)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(GatewayServer).Invoke(m, &grpc.GenericServerStream[structpb.Struct, structpb.Struct]{ServerStream: stream})
}

// Server implements GatewayServer on top of an Engine.
type Server struct {
	engine Engine
	log    *pterm.Logger
}

var _ GatewayServer = (*Server)(nil)

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the diagnostic logger.
func WithLogger(l *pterm.Logger) Option { return func(s *Server) { s.log = l } }

// New creates a server for engine.
func New(engine Engine, opts ...Option) *Server {
	s := &Server{engine: engine, log: logging.Nop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Register attaches the Gateway service to gs.
func (s *Server) Register(gs *grpc.Server) {
	gs.RegisterService(&ServiceDesc, s)
}

// Serve registers the service on a fresh grpc.Server and serves lis until
// ctx is done.
func (s *Server) Serve(ctx context.Context, lis net.Listener, opts ...grpc.ServerOption) error {
	gs := grpc.NewServer(opts...)
	s.Register(gs)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			gs.GracefulStop()
		case <-done:
		}
	}()

	s.log.Info("gateway listening", s.log.Args("addr", lis.Addr().String()))
	return gs.Serve(lis)
}

// Invoke runs one engine invocation and streams its log and outcome.
func (s *Server) Invoke(in *structpb.Struct, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ctx := stream.Context()
	action, payload, err := wire.DecodeRequest(in)
	if err != nil {
		return s.fail(stream, err)
	}
	req := model.NewRequest(action, payload)
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(wire.RequestIDKey); len(ids) > 0 {
			if _, parseErr := uuid.Parse(ids[0]); parseErr == nil {
				req.ID = ids[0]
			}
		}
	}

	feed := logfeed.NewFeed()
	var (
		mu      sync.Mutex
		sendErr error
	)
	sink := func(l model.Line) {
		mu.Lock()
		defer mu.Unlock()
		entry, ok := feed.Push(l.Text)
		if !ok || sendErr != nil {
			return
		}
		msg, err := wire.EncodeLog(l.Stream, entry.Text, entry.Time)
		if err == nil {
			err = stream.Send(msg)
		}
		if err != nil {
			// Keep the engine running; the client may still read the outcome.
			sendErr = err
			s.log.Warn("dropping log lines", s.log.Args("id", req.ID, "error", err))
		}
	}

	out, err := s.engine.Run(ctx, req, sink)
	if err != nil {
		s.log.Info("invocation failed", s.log.Args("id", req.ID, "action", action, "error", logging.Mask(err.Error())))
		return s.fail(stream, err)
	}
	msg, err := wire.EncodeOutcome(out)
	if err != nil {
		return err
	}
	return stream.Send(msg)
}

func (s *Server) fail(stream grpc.ServerStream, err error) error {
	if md := wire.Trailer(err); md != nil {
		stream.SetTrailer(md)
	}
	return wire.Status(err)
}
