// Copyright (c) 2025 Enginebridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package wire describes the gRPC protocol spoken between `enginebridge serve`
// and remote gateway clients.
//
// The service has a single server-streaming method. Messages are
// google.protobuf.Struct values so no generated code is needed: the request
// carries {action, payload}; every response carries a kind, either "log"
// with {text, stream, time} or "outcome" with {result}. Failures end the
// stream with a status code plus trailer metadata that preserves the error
// kind, exit code and stderr.
package wire

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"enginebridge/cli/internal/bridge/model"
	bridgeerrors "enginebridge/cli/internal/errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName  = "enginebridge.Gateway"
	InvokeMethod = "/" + ServiceName + "/Invoke"

	KindLog     = "log"
	KindOutcome = "outcome"

	// Metadata keys. The -bin suffix lets stderr carry arbitrary bytes.
	RequestIDKey = "enginebridge-request-id"
	ErrorKindKey = "enginebridge-error-kind"
	ExitCodeKey  = "enginebridge-exit-code"
	StderrKey    = "enginebridge-stderr-bin"
)

// InvokeStreamDesc describes the Invoke method for client streams.
var InvokeStreamDesc = grpc.StreamDesc{StreamName: "Invoke", ServerStreams: true}

// Event is one decoded response message.
type Event struct {
	Kind    string
	Line    model.Line
	Time    time.Time
	Outcome *model.Outcome
}

// EncodeRequest builds the Invoke request message.
func EncodeRequest(action model.Action, payload map[string]any) (*structpb.Struct, error) {
	fields := map[string]any{"action": string(action)}
	if payload != nil {
		fields["payload"] = payload
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, bridgeerrors.Wrap(bridgeerrors.InvalidRequest, "encode request", err)
	}
	return s, nil
}

// DecodeRequest reads the action and payload from a request message.
func DecodeRequest(s *structpb.Struct) (model.Action, map[string]any, error) {
	m := s.AsMap()
	name, _ := m["action"].(string)
	action, err := model.ParseAction(name)
	if err != nil {
		return "", nil, bridgeerrors.Wrap(bridgeerrors.InvalidRequest, "decode request", err)
	}
	var payload map[string]any
	switch p := m["payload"].(type) {
	case nil:
	case map[string]any:
		payload = p
	default:
		return "", nil, bridgeerrors.New(bridgeerrors.InvalidRequest, fmt.Sprintf("payload must be an object, got %T", p))
	}
	return action, payload, nil
}

// EncodeLog builds a log response.
func EncodeLog(stream model.Stream, text string, at time.Time) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"kind":   KindLog,
		"stream": string(stream),
		"text":   text,
		"time":   at.UTC().Format(time.RFC3339Nano),
	})
}

// EncodeOutcome builds the final outcome response.
func EncodeOutcome(o *model.Outcome) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"kind":   KindOutcome,
		"result": o.Raw,
	})
}

// DecodeEvent reads a response message.
func DecodeEvent(s *structpb.Struct) (Event, error) {
	m := s.AsMap()
	kind, _ := m["kind"].(string)
	switch kind {
	case KindLog:
		text, _ := m["text"].(string)
		stream, _ := m["stream"].(string)
		ev := Event{Kind: kind, Line: model.Line{Stream: model.Stream(stream), Text: text}}
		if ts, ok := m["time"].(string); ok {
			ev.Time, _ = time.Parse(time.RFC3339Nano, ts)
		}
		return ev, nil
	case KindOutcome:
		return Event{Kind: kind, Outcome: model.NewOutcome(m["result"])}, nil
	default:
		return Event{}, fmt.Errorf("unknown response kind %q", kind)
	}
}

// Status converts an invocation error into a gRPC status error.
func Status(err error) error {
	code := codes.Unknown
	switch bridgeerrors.KindOf(err) {
	case bridgeerrors.InvalidRequest:
		code = codes.InvalidArgument
	case bridgeerrors.SpawnFailed:
		code = codes.Unavailable
	case bridgeerrors.NonZeroExit:
		code = codes.Aborted
	case bridgeerrors.UnparseableResult:
		code = codes.DataLoss
	case bridgeerrors.Canceled:
		code = codes.Canceled
	}
	return status.Error(code, err.Error())
}

// Trailer carries the fields of err that a status message cannot.
func Trailer(err error) metadata.MD {
	var e *bridgeerrors.E
	if !bridgeerrors.As(err, &e) {
		return nil
	}
	md := metadata.Pairs(ErrorKindKey, string(e.Kind))
	if e.Kind == bridgeerrors.NonZeroExit {
		md.Append(ExitCodeKey, strconv.Itoa(e.ExitCode))
		md.Append(StderrKey, e.Stderr)
	}
	return md
}

// FromStatus rebuilds an invocation error from a status error and the
// stream trailer. Errors without a kind in the trailer come from the
// transport itself.
func FromStatus(err error, trailer metadata.MD) error {
	st, _ := status.FromError(err)
	if kinds := trailer.Get(ErrorKindKey); len(kinds) > 0 {
		kind := bridgeerrors.Kind(kinds[0])
		if kind == bridgeerrors.NonZeroExit {
			code := -1
			if v := trailer.Get(ExitCodeKey); len(v) > 0 {
				if n, convErr := strconv.Atoi(v[0]); convErr == nil {
					code = n
				}
			}
			var stderr string
			if v := trailer.Get(StderrKey); len(v) > 0 {
				stderr = v[0]
			}
			return bridgeerrors.Exit(code, stderr)
		}
		return bridgeerrors.New(kind, strings.TrimPrefix(st.Message(), string(kind)+": "))
	}
	switch st.Code() {
	case codes.Canceled, codes.DeadlineExceeded:
		return bridgeerrors.Wrap(bridgeerrors.Canceled, "remote invocation stopped", err)
	}
	return bridgeerrors.Wrap(bridgeerrors.TransportFailed, "remote gateway", err)
}
