package grpcserver

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"enginebridge/cli/internal/bridge/grpcclient"
	"enginebridge/cli/internal/bridge/model"
	bridgeerrors "enginebridge/cli/internal/errors"
	"enginebridge/cli/internal/runner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// scriptedEngine replays fixed lines, then returns out or err.
type scriptedEngine struct {
	lines []model.Line
	out   *model.Outcome
	err   error
	block bool

	mu   sync.Mutex
	reqs []model.Request
}

func (e *scriptedEngine) Run(ctx context.Context, req model.Request, sink runner.Sink) (*model.Outcome, error) {
	e.mu.Lock()
	e.reqs = append(e.reqs, req)
	e.mu.Unlock()
	for _, l := range e.lines {
		l.RequestID = req.ID
		sink(l)
	}
	if e.block {
		<-ctx.Done()
		return nil, bridgeerrors.Wrap(bridgeerrors.Canceled, "engine run stopped", ctx.Err())
	}
	return e.out, e.err
}

func startServer(t *testing.T, engine Engine, opts ...grpcclient.Option) *grpcclient.Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- New(engine).Serve(ctx, lis) }()

	opts = append(opts, grpcclient.WithDialOptions(
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	))
	c, err := grpcclient.Dial("passthrough:///bufnet", opts...)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
		cancel()
		assert.NoError(t, <-served)
	})
	return c
}

type lineLog struct {
	mu    sync.Mutex
	lines []model.Line
}

func (l *lineLog) add(line model.Line) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, line)
}

func (l *lineLog) texts() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.lines))
	for _, line := range l.lines {
		out = append(out, line.Text)
	}
	return out
}

func TestInvokeStreamsNormalizedLogsThenOutcome(t *testing.T) {
	engine := &scriptedEngine{
		lines: []model.Line{
			{Stream: model.Stderr, Text: "[INFO] Step 1/4: rendering"},
			{Stream: model.Stderr, Text: "[INFO] Step 1/4: rendering"},
			{Stream: model.Stdout, Text: "HTTP Request: POST https://example.test"},
			{Stream: model.Stderr, Text: "[OK] Uploaded"},
		},
		out: model.NewOutcome(map[string]any{"success": true, "message": "pending"}),
	}
	logs := &lineLog{}
	c := startServer(t, engine, grpcclient.WithLogFunc(logs.add))

	out, err := c.StartVerify(context.Background(), map[string]any{"firstName": "Ana"})
	require.NoError(t, err)
	assert.True(t, out.Success())
	assert.Equal(t, "pending", out.Message())
	assert.Equal(t, []string{"Generating PDF...", "Uploaded"}, logs.texts())

	require.Len(t, engine.reqs, 1)
	assert.Equal(t, model.ActionVerify, engine.reqs[0].Action)
	assert.Equal(t, map[string]any{"firstName": "Ana"}, engine.reqs[0].Payload)
}

func TestInvokeGetSchools(t *testing.T) {
	engine := &scriptedEngine{out: model.NewOutcome([]any{
		map[string]any{"id": 3.0, "name": "Gamma Institute"},
	})}
	c := startServer(t, engine)

	schools, err := c.GetSchools(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.School{{ID: "3", Name: "Gamma Institute"}}, schools)
	assert.Nil(t, engine.reqs[0].Payload)
}

func TestInvokeNonZeroExitKeepsDetails(t *testing.T) {
	engine := &scriptedEngine{
		lines: []model.Line{{Stream: model.Stderr, Text: "fatal: disk full"}},
		err:   bridgeerrors.Exit(1, "fatal: disk full\n"),
	}
	logs := &lineLog{}
	c := startServer(t, engine, grpcclient.WithLogFunc(logs.add))

	_, err := c.GenerateDocs(context.Background(), map[string]any{})
	var e *bridgeerrors.E
	require.True(t, bridgeerrors.As(err, &e), "got %v", err)
	assert.Equal(t, bridgeerrors.NonZeroExit, e.Kind)
	assert.Equal(t, 1, e.ExitCode)
	assert.Equal(t, "fatal: disk full\n", e.Stderr)
	assert.Equal(t, []string{"fatal: disk full"}, logs.texts())
}

func TestInvokeErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bridgeerrors.Kind
	}{
		{"spawn", bridgeerrors.New(bridgeerrors.SpawnFailed, "no such file"), bridgeerrors.SpawnFailed},
		{"unparseable", bridgeerrors.New(bridgeerrors.UnparseableResult, "no result"), bridgeerrors.UnparseableResult},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := startServer(t, &scriptedEngine{err: tt.err})
			_, err := c.StartVerify(context.Background(), map[string]any{})
			assert.Equal(t, tt.want, bridgeerrors.KindOf(err))
		})
	}
}

func TestInvokeUnknownActionRejected(t *testing.T) {
	engine := &scriptedEngine{}
	c := startServer(t, engine)

	_, err := c.Invoke(context.Background(), model.Action("format_disk"), nil)
	assert.Equal(t, bridgeerrors.InvalidRequest, bridgeerrors.KindOf(err))
	assert.Empty(t, engine.reqs, "engine never runs for an unknown action")
}

func TestInvokeClientCancellationStopsEngine(t *testing.T) {
	engine := &scriptedEngine{block: true}
	c := startServer(t, engine)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err := c.StartVerify(ctx, map[string]any{})
	assert.Equal(t, bridgeerrors.Canceled, bridgeerrors.KindOf(err))
}

func TestDialUnreachable(t *testing.T) {
	c, err := grpcclient.Dial("passthrough:///unreachable", grpcclient.WithDialOptions(
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return nil, net.ErrClosed }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	))
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = c.GetSchools(ctx)
	require.Error(t, err)
	assert.Contains(t, []bridgeerrors.Kind{bridgeerrors.TransportFailed, bridgeerrors.Canceled}, bridgeerrors.KindOf(err))
}
