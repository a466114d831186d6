package gmail

import (
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/api/gmail/v1"

	"mailforward/internal/domain/mail"
)

const unreadLabel = "UNREAD"

// Client implements mailbox operations on top of the Gmail API.
type Client struct {
	srv *gmail.Service
}

func NewClient(srv *gmail.Service) *Client {
	return &Client{srv: srv}
}

func (c *Client) ListLabels(ctx context.Context) ([]mail.Label, error) {
	list, err := c.srv.Users.Labels.List("me").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gmail list labels: %w", err)
	}

	labels := make([]mail.Label, 0, len(list.Labels))
	for _, l := range list.Labels {
		labels = append(labels, mail.Label{Name: l.Name, ID: l.Id})
	}
	return labels, nil
}

func (c *Client) ListMessages(ctx context.Context, labelID string, unreadOnly bool, pageToken string, pageSize int64) ([]mail.InboundMessage, string, error) {
	call := c.srv.Users.Messages.List("me").
		LabelIds(labelID).
		MaxResults(pageSize).
		Context(ctx)
	if unreadOnly {
		call = call.Q("is:unread")
	}
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, "", fmt.Errorf("gmail list messages: %w", err)
	}

	msgs := make([]mail.InboundMessage, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		msgs = append(msgs, mail.InboundMessage{ID: m.Id, LabelIDs: m.LabelIds})
	}
	return msgs, resp.NextPageToken, nil
}

func (c *Client) GetMetadata(ctx context.Context, messageID string) ([]string, error) {
	msg, err := c.srv.Users.Messages.Get("me", messageID).
		Format("metadata").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("gmail get metadata: %w", err)
	}
	return msg.LabelIds, nil
}

func (c *Client) GetFullMessage(ctx context.Context, messageID string) (*mail.MessageDetails, error) {
	msg, err := c.srv.Users.Messages.Get("me", messageID).
		Format("raw").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("gmail get message: %w", err)
	}

	raw, err := decodeRaw(msg.Raw)
	if err != nil {
		return nil, fmt.Errorf("decode raw message %s: %w", messageID, err)
	}

	return ParseRaw(messageID, raw)
}

func (c *Client) MarkRead(ctx context.Context, messageID string) error {
	_, err := c.srv.Users.Messages.Modify("me", messageID, &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{unreadLabel},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gmail mark read: %w", err)
	}
	return nil
}

// EnableWatch enables Gmail push notifications for the given labels.
func (c *Client) EnableWatch(ctx context.Context, topicName string, labelIDs []string) error {
	req := &gmail.WatchRequest{
		TopicName: topicName,
		LabelIds:  labelIDs,
	}

	if _, err := c.srv.Users.Watch("me", req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gmail watch: %w", err)
	}
	return nil
}

// decodeRaw accepts the URL-safe alphabet with or without padding.
func decodeRaw(s string) ([]byte, error) {
	if b, err := base64.URLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawURLEncoding.DecodeString(s)
}
