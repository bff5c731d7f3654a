package gateway

// inboundMessage is the client's request shape for one turn.
type inboundMessage struct {
	UserID      string `json:"user_id"`
	SessionID   string `json:"session_id"`
	UserMessage string `json:"user_message"`
	Search      bool   `json:"search"`
}
