package websockets

// MessageType defines the type of a WebSocket message.
type MessageType string

const (
	// MessageTypeRequestUpdate is for messages about a wage advance request changing state.
	MessageTypeRequestUpdate MessageType = "requestUpdate"
	// MessageTypeBalanceUpdate is for messages about a confirmed shop payment.
	MessageTypeBalanceUpdate MessageType = "balanceUpdate"
)

// Message represents a generic WebSocket message.
type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

// RequestUpdatePayload is the payload for a requestUpdate message.
type RequestUpdatePayload struct {
	Event        string   `json:"event"`
	RecipientIds []string `json:"recipient_ids"`
	RequestID    string   `json:"request_id,omitempty"`
	Amount       int64    `json:"amount,omitempty"`
	ScheduleID   string   `json:"schedule_id,omitempty"`
	Reason       string   `json:"reason,omitempty"`
}

// BalanceUpdatePayload is the payload for a balanceUpdate message.
type BalanceUpdatePayload struct {
	UserID        string `json:"user_id"`
	OperationID   string `json:"operation_id"`
	TransactionID string `json:"transaction_id,omitempty"`
	Change        int64  `json:"change"`
}
