package realtime

import (
	"context"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/dk/stagecraft/internal/ctxlog"
	"github.com/dk/stagecraft/internal/pipeline"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Event names emitted to the preview namespace.
const (
	eventStageUpdate = "stage_update"
	eventPreview     = "preview"
)

// connectTimeout bounds how long NewSocketIOPublisher waits for the initial
// connection before giving up.
const connectTimeout = 10 * time.Second

// SocketIOPublisher emits workflow events over a socket.io connection. The
// connection is established once at construction and reused for the life of
// the publisher.
type SocketIOPublisher struct {
	io        *socket.Socket
	connected *atomic.Bool
}

// NewSocketIOPublisher connects to the given endpoint and namespace over
// websocket, failing if the connection is not up within the connect timeout.
func NewSocketIOPublisher(ctx context.Context, endpoint, namespace string) (*SocketIOPublisher, error) {
	logger := ctxlog.FromContext(ctx).With("endpoint", endpoint, "namespace", namespace)
	logger.Debug("Connecting realtime publisher.")

	parsedURL, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to parse realtime endpoint: %w", err)
	}
	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	connected := &atomic.Bool{}
	done := make(chan error, 1)

	io.On(types.EventName("connect"), func(...any) {
		connected.Store(true)
		logger.Info("✅ Realtime publisher connected.", "sid", io.Id())
		done <- nil
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		if len(errs) > 0 {
			if err, ok := errs[0].(error); ok {
				done <- err
				return
			}
		}
		done <- fmt.Errorf("realtime connection failed")
	})

	io.Connect()

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	select {
	case <-connectCtx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("timed out waiting for realtime connection to %s", endpoint)
	case err := <-done:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("failed to connect realtime publisher: %w", err)
		}
	}

	return &SocketIOPublisher{io: io, connected: connected}, nil
}

// PublishStages emits the current stage-state snapshot.
func (p *SocketIOPublisher) PublishStages(ctx context.Context, sessionID string, states []pipeline.StageState) error {
	if !p.connected.Load() {
		return fmt.Errorf("realtime publisher is not connected")
	}
	ctxlog.FromContext(ctx).Debug("Emitting stage update.", "session", sessionID, "stages", len(states))
	p.io.Emit(eventStageUpdate, map[string]any{
		"session": sessionID,
		"stages":  states,
	})
	return nil
}

// PublishPreview emits the finished preview document.
func (p *SocketIOPublisher) PublishPreview(ctx context.Context, sessionID, document string) error {
	if !p.connected.Load() {
		return fmt.Errorf("realtime publisher is not connected")
	}
	ctxlog.FromContext(ctx).Debug("Emitting preview.", "session", sessionID, "bytes", len(document))
	p.io.Emit(eventPreview, map[string]any{
		"session":  sessionID,
		"document": document,
	})
	return nil
}

// Close disconnects the underlying socket.
func (p *SocketIOPublisher) Close() error {
	p.connected.Store(false)
	p.io.Disconnect()
	return nil
}
