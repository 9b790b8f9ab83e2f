package realtime

import "context"

// Conn is a live channel handle. The transport owns reconnection and
// reports it through KindConnect and KindDisconnect events.
type Conn interface {
	// Events yields inbound events. It is closed after Close.
	Events() <-chan Event

	// Emit sends a named event with a JSON-encodable payload.
	Emit(name string, payload any) error

	// Close tears the connection down and stops reconnecting.
	Close() error
}

// Transport opens channels authenticated with a bearer token
type Transport interface {
	Connect(ctx context.Context, token string) (Conn, error)
}
