package netbridge

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pothosware/flowcore/actor"
	"github.com/pothosware/flowcore/buffer"
	"github.com/pothosware/flowcore/dtype"
	"github.com/pothosware/flowcore/natsclient"
	"github.com/pothosware/flowcore/port"
	"github.com/pothosware/flowcore/topology"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestIntegration_BridgeRoundTripsBytes spins up a disposable NATS
// container and exercises a network-sink/network-source pair end to end,
// verifying scenario 1 of spec.md §8 ("source -> sink byte equality") holds
// across a real network boundary, not just an in-process flow. Grounded on
// natsclient/integration_test.go's testcontainers usage.
func TestIntegration_BridgeRoundTripsBytes(t *testing.T) {
	ctx := context.Background()
	container, natsURL := startNATSContainer(ctx, t)
	defer container.Terminate(ctx)

	client, err := natsclient.NewClient(natsURL)
	require.NoError(t, err)
	require.NoError(t, client.Connect(ctx))
	defer client.Close(ctx)

	dt := dtype.New(dtype.UInt8, 1)
	factory := NewBridgeFactory(client, dt, "heap")

	flow := topology.Flow{
		Src: topology.Endpoint{Block: "src", Port: "0"},
		Dst: topology.Endpoint{Block: "dst", Port: "0"},
	}
	sink, source, err := factory("test-bridge", flow, "envA", "envB")
	require.NoError(t, err)

	// A plain consumer worker stands in for the downstream block the
	// source's output would otherwise feed inside a real topology.
	var received []byte
	consumer := actor.NewWorker("consumer", func(w *actor.Worker) error {
		in, err := w.Inputs().Get("0")
		if err != nil {
			return err
		}
		n := in.Elements()
		if n == 0 {
			return nil
		}
		data, ok := in.Buffer(n * in.DType().Size())
		if !ok {
			return nil
		}
		received = append(received, data...)
		in.Consume(n)
		return nil
	})
	consumerIn := consumer.Inputs().Setup("0", dt, "heap")
	consumerIn.SetReserve(1)

	sinkIn, err := sink.Worker.Inputs().Get("0")
	require.NoError(t, err)
	sourceOut, err := source.Worker.Outputs().Get("0")
	require.NoError(t, err)
	sourceOut.Subscribe(port.Subscriber{ActorName: "consumer", PortName: "0", In: consumerIn})

	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	chunk := buffer.Alloc(len(payload), dt)
	copy(chunk.Bytes(), payload)
	sinkIn.Post(chunk)

	// Only an active worker runs its work function; each activation
	// completes on that worker's first ProcessTask below.
	sink.Worker.Activate()
	source.Worker.Activate()
	consumer.Activate()

	deadline := time.Now().Add(5 * time.Second)
	for len(received) < len(payload) && time.Now().Before(deadline) {
		sink.Worker.ProcessTask()
		source.Worker.ProcessTask()
		consumer.ProcessTask()
		time.Sleep(10 * time.Millisecond)
	}

	require.Equal(t, payload, received)
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
