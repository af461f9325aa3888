package irisfast

import "context"

type MessageCallback func(message *Message)

type StateCallback func(state WebSocketState)

// WSClient is the ingress side of Iris; WebSocket implements it.
type WSClient interface {
	Connect(ctx context.Context) error
	OnMessage(cb MessageCallback) int
	RemoveMessageCallback(id int)
	OnStateChange(cb StateCallback) int
	RemoveStateCallback(id int)
	State() WebSocketState
	Close(ctx context.Context) error
}

var _ WSClient = (*WebSocket)(nil)
