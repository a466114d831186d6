// Package telegram delivers rendered messages and attachments into forum
// threads of one Telegram group.
package telegram

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"golang.org/x/time/rate"
)

// Telegram allows about 20 messages per minute into one group.
const (
	groupRate  = time.Minute / 20
	groupBurst = 20
)

type Client struct {
	bot     *bot.Bot
	chatID  int64
	limiter *rate.Limiter
}

// NewClient connects to the Bot API. Extra options are passed to bot.New.
func NewClient(token string, chatID int64, opts ...bot.Option) (*Client, error) {
	b, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &Client{
		bot:     b,
		chatID:  chatID,
		limiter: rate.NewLimiter(rate.Every(groupRate), groupBurst),
	}, nil
}

// SendText posts MarkdownV2 text into the thread.
func (c *Client) SendText(ctx context.Context, threadID int64, text string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err := c.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          c.chatID,
		MessageThreadID: int(threadID),
		Text:            text,
		ParseMode:       models.ParseModeMarkdown,
	})
	if err != nil {
		return fmt.Errorf("telegram send message: %w", err)
	}
	return nil
}

func (c *Client) SendPhoto(ctx context.Context, threadID int64, filename string, data []byte) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err := c.bot.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:          c.chatID,
		MessageThreadID: int(threadID),
		Photo:           &models.InputFileUpload{Filename: filename, Data: bytes.NewReader(data)},
	})
	if err != nil {
		return fmt.Errorf("telegram send photo: %w", err)
	}
	return nil
}

func (c *Client) SendDocument(ctx context.Context, threadID int64, filename string, data []byte, caption string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err := c.bot.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:          c.chatID,
		MessageThreadID: int(threadID),
		Document:        &models.InputFileUpload{Filename: filename, Data: bytes.NewReader(data)},
		Caption:         caption,
	})
	if err != nil {
		return fmt.Errorf("telegram send document: %w", err)
	}
	return nil
}
