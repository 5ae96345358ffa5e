package flowlog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestNewDisabledWithoutConn(t *testing.T) {
	local := slog.New(slog.NewTextHandler(os.Stdout, nil))
	l := New("topo", "block-a", nil, local)
	assert.False(t, l.enabled)

	// None of these should panic even without a NATS connection.
	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warning message")
	l.Error("error message", fmt.Errorf("boom"))
}

func TestEntryJSONMarshaling(t *testing.T) {
	entry := Entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     LevelInfo,
		Topology:  "topo",
		Block:     "block-a",
		Message:   "hello",
		Stack:     "trace",
	}

	data, err := json.Marshal(entry)
	require.NoError(t, err)

	var decoded Entry
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, entry, decoded)
}

func TestEntryJSONMarshalingOmitsEmptyStack(t *testing.T) {
	entry := Entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     LevelInfo,
		Topology:  "topo",
		Block:     "block-a",
		Message:   "hello",
	}

	data, err := json.Marshal(entry)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	_, hasStack := raw["stack"]
	assert.False(t, hasStack, "empty stack should be omitted from JSON")
}

// TestIntegration_PublishesToNATS spins up a disposable NATS container and
// verifies a Logger republishes entries to the flowcore.logs.{topology}.{block}
// subject, grounded on netbridge/bridge_test.go's testcontainers usage.
func TestIntegration_PublishesToNATS(t *testing.T) {
	ctx := context.Background()
	container, natsURL := startNATSContainer(ctx, t)
	defer container.Terminate(ctx)

	nc, err := nats.Connect(natsURL)
	require.NoError(t, err)
	defer nc.Close()

	topologyName, block := "test-topology", "test-block"
	local := slog.New(slog.NewTextHandler(os.Stdout, nil))
	l := New(topologyName, block, nc, local)
	require.True(t, l.enabled)

	subject := fmt.Sprintf("flowcore.logs.%s.%s", topologyName, block)
	received := make(chan Entry, 4)
	sub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
		var entry Entry
		if err := json.Unmarshal(msg.Data, &entry); err != nil {
			t.Errorf("unmarshal log entry: %v", err)
			return
		}
		received <- entry
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	time.Sleep(100 * time.Millisecond)
	l.Error("something broke", fmt.Errorf("root cause"))

	select {
	case entry := <-received:
		assert.Equal(t, LevelError, entry.Level)
		assert.Equal(t, "something broke", entry.Message)
		assert.Equal(t, topologyName, entry.Topology)
		assert.Equal(t, block, entry.Block)
		assert.NotEmpty(t, entry.Stack)
	case <-time.After(2 * time.Second):
		t.Fatal("did not receive published log entry in time")
	}
}

func startNATSContainer(ctx context.Context, t *testing.T) (testcontainers.Container, string) {
	req := testcontainers.ContainerRequest{
		Image:        "nats:latest",
		ExposedPorts: []string{"4222/tcp"},
		WaitingFor:   wait.ForListeningPort("4222/tcp"),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, "4222")
	require.NoError(t, err)

	return container, fmt.Sprintf("nats://%s:%s", host, mapped.Port())
}
