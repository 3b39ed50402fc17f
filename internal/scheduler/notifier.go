package scheduler

import (
	"context"
	"encoding/json"
	"fmt"

	"stoker/internal/logging"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
)

// Notifier delivers run results out of band. Delivery failures never affect
// the run outcome; the scheduler logs and moves on.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// LarkNotifier sends run results to a Lark chat.
type LarkNotifier struct {
	client *lark.Client
	chatID string
	logger logging.Logger
}

// NewLarkNotifier creates a LarkNotifier with the given app credentials.
func NewLarkNotifier(appID, appSecret, chatID string, logger logging.Logger) *LarkNotifier {
	return &LarkNotifier{
		client: lark.NewClient(appID, appSecret),
		chatID: chatID,
		logger: logging.OrNop(logger),
	}
}

// Send posts a text message to the configured chat.
func (n *LarkNotifier) Send(ctx context.Context, text string) error {
	if n.client == nil {
		return fmt.Errorf("lark client not initialized")
	}

	textJSON, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("marshal text content: %w", err)
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType("chat_id").
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(n.chatID).
			MsgType("text").
			Content(string(textJSON)).
			Build()).
		Build()

	resp, err := n.client.Im.Message.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("lark send: %w", err)
	}
	if !resp.Success() {
		return fmt.Errorf("lark send error: code=%d msg=%s", resp.Code, resp.Msg)
	}

	n.logger.Debug("Sent Lark message to %s", n.chatID)
	return nil
}

// NopNotifier is used when notifications are disabled.
type NopNotifier struct{}

// Send is a no-op.
func (NopNotifier) Send(_ context.Context, _ string) error {
	return nil
}
