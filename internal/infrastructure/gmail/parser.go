package gmail

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/charset"
	mimemail "github.com/emersion/go-message/mail"

	"mailforward/internal/domain/mail"
)

var wordDecoder = &mime.WordDecoder{CharsetReader: charset.Reader}

// ParseRaw parses an RFC 5322 message. The body is the first text/plain
// part, or the first text/html part when there is no plain text.
// Attachments are parts with a disposition and a file name.
func ParseRaw(id string, raw []byte) (*mail.MessageDetails, error) {
	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil && !tolerable(err) {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}

	h := mimemail.Header{Header: entity.Header}
	subject, err := h.Subject()
	if err != nil {
		subject = entity.Header.Get("Subject")
	}
	from, err := h.Text("From")
	if err != nil {
		from = entity.Header.Get("From")
	}
	date, _ := h.Date()

	var p parts
	if err := p.walk(entity); err != nil {
		return nil, fmt.Errorf("failed to parse body: %w", err)
	}

	body := p.plain
	if body == "" {
		body = p.html
	}

	details := mail.NewMessageDetails(id, from, subject, body, date)
	details.Attachments = p.attachments
	return details, nil
}

type parts struct {
	plain       string
	html        string
	attachments []mail.Attachment
}

func (p *parts) walk(entity *message.Entity) error {
	mediaType, params, err := entity.Header.ContentType()
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		mr := entity.MultipartReader()
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil && !tolerable(err) {
				return err
			}
			if err := p.walk(part); err != nil {
				return err
			}
		}
		return nil
	}

	data, err := io.ReadAll(entity.Body)
	if err != nil {
		return fmt.Errorf("failed to read part: %w", err)
	}

	disposition, dispParams, _ := entity.Header.ContentDisposition()
	filename := dispParams["filename"]
	if filename == "" {
		filename = params["name"]
	}

	if disposition != "" && (filename != "" || disposition == "attachment") {
		if filename == "" {
			filename = "attachment"
		}
		p.attachments = append(p.attachments, mail.Attachment{
			Filename: decodeWords(filename),
			MimeType: mediaType,
			Data:     data,
		})
		return nil
	}

	switch mediaType {
	case "text/plain":
		if p.plain == "" {
			p.plain = string(data)
		}
	case "text/html":
		if p.html == "" {
			p.html = string(data)
		}
	}
	return nil
}

// tolerable reports errors after which the entity is still readable, with
// the body left undecoded.
func tolerable(err error) bool {
	return message.IsUnknownCharset(err) || message.IsUnknownEncoding(err)
}

func decodeWords(s string) string {
	decoded, err := wordDecoder.DecodeHeader(s)
	if err != nil {
		return s
	}
	return decoded
}
