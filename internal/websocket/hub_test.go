package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/goleak"

	"arvaiapulse/internal/config"
)

// mockConnection records writes and blocks reads until closed
type mockConnection struct {
	mu      sync.Mutex
	written [][]byte
	closed  chan struct{}
	once    sync.Once
}

func newMockConnection() *mockConnection {
	return &mockConnection{closed: make(chan struct{})}
}

func (m *mockConnection) WriteMessage(messageType int, data []byte) error {
	select {
	case <-m.closed:
		return errors.New("connection closed")
	default:
	}
	if messageType == websocket.TextMessage {
		m.mu.Lock()
		m.written = append(m.written, append([]byte(nil), data...))
		m.mu.Unlock()
	}
	return nil
}

func (m *mockConnection) ReadMessage() (int, []byte, error) {
	<-m.closed
	return 0, nil, &websocket.CloseError{Code: websocket.CloseNormalClosure}
}

func (m *mockConnection) Close() error {
	m.once.Do(func() { close(m.closed) })
	return nil
}

func (m *mockConnection) SetReadDeadline(time.Time) error   { return nil }
func (m *mockConnection) SetWriteDeadline(time.Time) error  { return nil }
func (m *mockConnection) SetReadLimit(int64)                {}
func (m *mockConnection) SetPongHandler(func(string) error) {}
func (m *mockConnection) RemoteAddr() string                { return "127.0.0.1:5555" }

func (m *mockConnection) messageTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, 0, len(m.written))
	for _, raw := range m.written {
		var msg Message
		if err := json.Unmarshal(raw, &msg); err == nil {
			types = append(types, msg.Type)
		}
	}
	return types
}

func (m *mockConnection) isClosed() bool {
	select {
	case <-m.closed:
		return true
	default:
		return false
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHub_StartStopIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(quietLogger(), nil)
	hub.Start()
	hub.Start()
	hub.Stop()
	hub.Stop()

	// A stopped hub stays stopped.
	hub.Start()
	assert.Equal(t, 0, hub.ClientCount())
	hub.Stop()
}

func TestHub_StopWithoutStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(quietLogger(), nil)
	assert.NotPanics(t, hub.Stop)
	hub.Broadcast(TypeDatasetReloaded, nil)
}

func TestHub_BroadcastReachesClients(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(quietLogger(), nil)
	hub.Start()

	conns := []*mockConnection{newMockConnection(), newMockConnection()}
	for _, conn := range conns {
		ServeWS(hub, conn, config.WebSocketConfig{}, "trace-1")
	}
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(TypeDatasetReloaded, map[string]interface{}{"records": 40})

	for _, conn := range conns {
		conn := conn
		require.Eventually(t, func() bool { return len(conn.messageTypes()) == 2 }, time.Second, 5*time.Millisecond)
		assert.Equal(t, []string{TypeConnection, TypeDatasetReloaded}, conn.messageTypes())
	}
	assert.Equal(t, int64(2), hub.TotalConnections())

	hub.Stop()
	for _, conn := range conns {
		conn := conn
		require.Eventually(t, conn.isClosed, time.Second, 5*time.Millisecond)
	}
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_ClientDisconnectUnregisters(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(quietLogger(), nil)
	hub.Start()
	defer hub.Stop()

	conn := newMockConnection()
	ServeWS(hub, conn, config.WebSocketConfig{}, "")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_MessageEnvelope(t *testing.T) {
	raw, err := encode(TypeDatasetReloaded, map[string]string{"checksum": "abc"})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "dataset:reloaded", decoded["type"])
	assert.Equal(t, map[string]interface{}{"checksum": "abc"}, decoded["data"])
	assert.NotEmpty(t, decoded["timestamp"])
}

func TestNewClient_KeepaliveDefaults(t *testing.T) {
	hub := NewHub(quietLogger(), nil)

	client := NewClient(hub, newMockConnection(), config.WebSocketConfig{}, "", nil)
	assert.Equal(t, 60*time.Second, client.pongWait)
	assert.Equal(t, 54*time.Second, client.pingPeriod)
	assert.Equal(t, "127.0.0.1:5555", client.remoteAddr)
	assert.NotEmpty(t, client.ID())

	client = NewClient(hub, newMockConnection(), config.WebSocketConfig{
		PingPeriod: 20 * time.Second,
		PongWait:   10 * time.Second,
	}, "", nil)
	assert.Equal(t, 9*time.Second, client.pingPeriod)

	client = NewClient(hub, newMockConnection(), config.WebSocketConfig{
		PingPeriod: 5 * time.Second,
		PongWait:   10 * time.Second,
	}, "", nil)
	assert.Equal(t, 5*time.Second, client.pingPeriod)
}

func TestOTelMetrics_Record(t *testing.T) {
	defer goleak.VerifyNone(t)

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics, err := NewOTelMetrics(mp.Meter("test"))
	require.NoError(t, err)

	hub := NewHub(quietLogger(), metrics)
	hub.Start()

	conn := newMockConnection()
	ServeWS(hub, conn, config.WebSocketConfig{}, "")
	require.Eventually(t, func() bool { return len(conn.messageTypes()) == 1 }, time.Second, 5*time.Millisecond)
	hub.Stop()
	require.Eventually(t, conn.isClosed, time.Second, 5*time.Millisecond)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	names := make(map[string]bool)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	assert.True(t, names["websocket_connections_total"])
	assert.True(t, names["websocket_connections_active"])
	assert.True(t, names["websocket_messages_total"])
}

func TestOTelMetrics_NilSafe(t *testing.T) {
	var m *OTelMetrics
	assert.NotPanics(t, func() {
		m.RecordConnection(context.Background())
		m.RecordDisconnection(context.Background(), time.Second)
		m.RecordMessage(context.Background(), "sent", "server", 10)
		m.RecordDroppedMessage(context.Background())
	})
}
