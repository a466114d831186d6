package mail

import (
	"strings"
	"time"
)

// InboundMessage is a mailbox listing entry.
type InboundMessage struct {
	ID       string
	LabelIDs []string
}

// MessageDetails is the fully fetched message.
type MessageDetails struct {
	ID          string
	Subject     string
	From        string
	Date        time.Time
	Body        string
	Attachments []Attachment
}

func NewMessageDetails(id, from, subject, body string, date time.Time) *MessageDetails {
	return &MessageDetails{
		ID:      id,
		From:    from,
		Subject: subject,
		Body:    body,
		Date:    date,
	}
}

type Attachment struct {
	Filename string
	MimeType string
	Data     []byte
}

func (a Attachment) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(a.MimeType), "image/")
}

func (a Attachment) IsPDF() bool {
	return strings.EqualFold(a.MimeType, "application/pdf")
}
