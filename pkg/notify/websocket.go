package notify

import (
	"context"

	"github.com/chris/wage-advance-ledger/pkg/websockets"
)

// WebSocketNotifier pushes notifications to connected clients.
type WebSocketNotifier struct {
	publisher websockets.Publisher
}

func NewWebSocketNotifier(publisher websockets.Publisher) *WebSocketNotifier {
	return &WebSocketNotifier{publisher: publisher}
}

var _ Notifier = (*WebSocketNotifier)(nil)

func (w *WebSocketNotifier) Notify(ctx context.Context, n Notification) error {
	return w.publisher.Publish(ctx, toMessage(n))
}

func toMessage(n Notification) websockets.Message {
	if n.Kind == KindBalanceDeducted {
		userID := ""
		if len(n.RecipientIds) > 0 {
			userID = n.RecipientIds[0]
		}
		return websockets.Message{
			Type: websockets.MessageTypeBalanceUpdate,
			Payload: websockets.BalanceUpdatePayload{
				UserID:        userID,
				OperationID:   n.OperationId,
				TransactionID: n.TransactionId,
				Change:        -n.Amount,
			},
		}
	}
	return websockets.Message{
		Type: websockets.MessageTypeRequestUpdate,
		Payload: websockets.RequestUpdatePayload{
			Event:        string(n.Kind),
			RecipientIds: n.RecipientIds,
			RequestID:    n.RequestId,
			Amount:       n.Amount,
			ScheduleID:   n.ScheduleId,
			Reason:       n.Reason,
		},
	}
}
