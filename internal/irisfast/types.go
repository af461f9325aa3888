package irisfast

// Message is one inbound Iris event.
type Message struct {
	Msg    string       `json:"msg"`
	Room   string       `json:"room"`
	Sender *string      `json:"sender,omitempty"`
	JSON   *MessageJSON `json:"json,omitempty"`
}

// MessageJSON carries the raw KakaoTalk chat log fields Iris forwards.
type MessageJSON struct {
	UserID      string `json:"user_id"`
	ChatID      string `json:"chat_id"`
	MessageID   string `json:"id,omitempty"`
	Type        string `json:"type,omitempty"`
	IsGroupChat *bool  `json:"is_group_chat,omitempty"`
}

// Config mirrors the Iris /config response.
type Config struct {
	BotName           string `json:"bot_name"`
	Port              int    `json:"bot_http_port"`
	WebserverEndpoint string `json:"web_server_endpoint"`
	PollingSpeed      int    `json:"db_polling_rate"`
	MessageRate       int    `json:"message_send_rate"`
	BotID             int64  `json:"bot_id"`
}

// ReplyRequest is the /reply payload for both text and image replies.
type ReplyRequest struct {
	Type string `json:"type"`
	Room string `json:"room"`
	Data string `json:"data"`
}

type WebSocketState string

const (
	WSStateDisconnected WebSocketState = "disconnected"
	WSStateConnecting   WebSocketState = "connecting"
	WSStateConnected    WebSocketState = "connected"
	WSStateReconnecting WebSocketState = "reconnecting"
	WSStateFailed       WebSocketState = "failed"
)
