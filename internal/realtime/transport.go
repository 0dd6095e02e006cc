package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoTransport is returned by Connect when the client was built without a
// duplex transport (e.g. in a context where Redis is not configured).
var ErrNoTransport = errors.New("realtime: no transport available")

// ErrNotConnected is returned by transport operations that require an
// established connection.
var ErrNotConnected = errors.New("realtime: transport not connected")

// Message is a single server-pushed event received from a room.
type Message struct {
	Room  string
	Event string
	Data  json.RawMessage
}

// Transport is the duplex connection to the realtime event server. The
// production implementation is Redis pub/sub; tests substitute a fake.
type Transport interface {
	// Connect establishes the underlying connection. Idempotent.
	Connect(ctx context.Context) error
	// JoinRoom subscribes the connection to a room's events.
	JoinRoom(ctx context.Context, room string) error
	// LeaveRoom unsubscribes the connection from a room.
	LeaveRoom(ctx context.Context, room string) error
	// Messages returns the channel of inbound events for the current
	// connection. The channel is closed when the connection closes.
	Messages() <-chan Message
	// Close tears down the connection. A subsequent Connect performs a
	// fresh handshake.
	Close() error
}

// ProductRoom names the broadcast scope for one product.
func ProductRoom(productID int64) string {
	return fmt.Sprintf("product:%d", productID)
}
