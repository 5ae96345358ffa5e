// Package natsclient wraps a NATS connection with circuit breaker protection
// and automatic reconnection, used as netbridge's cross-process transport and
// flowlog's optional log-republishing connection.
//
// # Core features
//
// Circuit breaker: after a threshold of consecutive failures (default 5)
// the circuit opens and Connect fails fast with ErrCircuitOpen. After a
// backoff that doubles each time the circuit opens, capped at maxBackoff,
// the circuit returns to Disconnected so the next Connect call may try
// again; the breaker does not reconnect by itself.
//
// Connection lifecycle: Disconnected -> Connecting -> Connected ->
// Reconnecting -> Connected, with configurable callbacks on disconnect,
// on reconnect and on health change.
//
// # Basic usage
//
//	client, err := natsclient.NewClient("nats://localhost:4222")
//	if err != nil {
//	    return err
//	}
//
//	ctx := context.Background()
//	if err := client.Connect(ctx); err != nil {
//	    return err
//	}
//	defer client.Close(ctx)
//
//	client.Publish(ctx, "flowcore.bridge.sink-0", data)
//	client.Subscribe(ctx, "flowcore.bridge.sink-0", func(_ context.Context, data []byte) {
//	    // handle message
//	})
//
// Streams, consumers, and key-value buckets are out of scope: this module's
// network bridge (package netbridge) only needs core publish/subscribe.
package natsclient
