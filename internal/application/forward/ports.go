package forward

import (
	"context"

	"mailforward/internal/domain/mail"
)

type Mailbox interface {
	// ListMessages returns one page of messages carrying labelID. An empty
	// next page token means the listing is complete.
	ListMessages(ctx context.Context, labelID string, unreadOnly bool, pageToken string, pageSize int64) ([]mail.InboundMessage, string, error)
	GetMetadata(ctx context.Context, messageID string) ([]string, error)
	GetFullMessage(ctx context.Context, messageID string) (*mail.MessageDetails, error)
	MarkRead(ctx context.Context, messageID string) error
}

type Outbox interface {
	EnqueueText(threadID int64, text string)
	EnqueueAttachment(threadID int64, attachment mail.Attachment)
}

type Renderer interface {
	Render(body string) string
}

type Router interface {
	Route(labelIDs []string) (int64, bool)
	LabelIDs() []string
}
