package forward

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mailforward/internal/domain/mail"
	"mailforward/internal/domain/payment"
)

const (
	backlogPageSize = 500
	newPageSize     = 50
)

// Coordinator moves labeled mail into the outbox.
type Coordinator struct {
	mailbox   Mailbox
	outbox    Outbox
	router    Router
	renderer  Renderer
	processed *ProcessedSet
	maxLength int
	logger    zerolog.Logger
	wake      chan struct{}
}

func NewCoordinator(
	mailbox Mailbox,
	outbox Outbox,
	router Router,
	renderer Renderer,
	processed *ProcessedSet,
	maxLength int,
	logger zerolog.Logger,
) *Coordinator {
	return &Coordinator{
		mailbox:   mailbox,
		outbox:    outbox,
		router:    router,
		renderer:  renderer,
		processed: processed,
		maxLength: maxLength,
		logger:    logger.With().Str("component", "coordinator").Logger(),
		wake:      make(chan struct{}, 1),
	}
}

// Run processes the whole backlog once, then checks for unread mail every
// interval until ctx is cancelled. The interval is measured from the start
// of a check, so a slow check shortens the following sleep.
func (c *Coordinator) Run(ctx context.Context, interval time.Duration) error {
	c.logger.Info().Msg("Processing backlog")
	if err := c.ProcessAll(ctx); err != nil {
		c.logger.Error().Err(err).Msg("Backlog listing failed")
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("Poll loop stopped")
			return ctx.Err()
		case <-timer.C:
		case <-c.wake:
			c.logger.Debug().Msg("Woken by push notification")
		}

		start := time.Now()
		if err := c.ProcessNew(ctx); err != nil {
			c.logger.Error().Err(err).Msg("New message listing failed")
		}

		sleep := interval - time.Since(start)
		if sleep < 0 {
			sleep = 0
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(sleep)
	}
}

// Wake asks the poll loop to check for new mail now. It never blocks;
// wake-ups arriving while one is pending are merged.
func (c *Coordinator) Wake() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// ProcessAll handles every message under the configured labels.
func (c *Coordinator) ProcessAll(ctx context.Context) error {
	return c.processBatch(ctx, false, backlogPageSize, true)
}

// ProcessNew handles unread messages under the configured labels, one page
// per label.
func (c *Coordinator) ProcessNew(ctx context.Context) error {
	return c.processBatch(ctx, true, newPageSize, false)
}

func (c *Coordinator) processBatch(ctx context.Context, unreadOnly bool, pageSize int64, allPages bool) error {
	logger := c.logger.With().Str("batch", uuid.NewString()).Logger()

	messages, err := c.collect(ctx, unreadOnly, pageSize, allPages)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		logger.Debug().Msg("No messages to process")
		return nil
	}

	logger.Info().Int("count", len(messages)).Msg("Processing messages")

	var wg sync.WaitGroup
	for _, msg := range messages {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			c.processMessage(ctx, logger, id)
		}(msg.ID)
	}
	wg.Wait()

	return nil
}

// collect lists each configured label separately since a multi-label
// filter would only return messages carrying all of them.
func (c *Coordinator) collect(ctx context.Context, unreadOnly bool, pageSize int64, allPages bool) ([]mail.InboundMessage, error) {
	seen := make(map[string]struct{})
	var out []mail.InboundMessage

	for _, labelID := range c.router.LabelIDs() {
		pageToken := ""
		for {
			page, next, err := c.mailbox.ListMessages(ctx, labelID, unreadOnly, pageToken, pageSize)
			if err != nil {
				return nil, fmt.Errorf("list messages for label %s: %w", labelID, err)
			}
			for _, m := range page {
				if _, dup := seen[m.ID]; dup {
					continue
				}
				seen[m.ID] = struct{}{}
				out = append(out, m)
			}
			if !allPages || next == "" {
				break
			}
			pageToken = next
		}
	}
	return out, nil
}

func (c *Coordinator) processMessage(ctx context.Context, logger zerolog.Logger, id string) {
	logger = logger.With().Str("message_id", id).Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("Message processing failed")
			if err := c.mailbox.MarkRead(ctx, id); err != nil {
				logger.Error().Err(err).Msg("Failed to mark message as read")
			}
		}
	}()

	if c.processed.Contains(id) {
		logger.Debug().Msg("Already processed, skipping")
		return
	}

	details, err := c.mailbox.GetFullMessage(ctx, id)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to fetch message")
		return
	}

	labelIDs, err := c.mailbox.GetMetadata(ctx, id)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to fetch message labels")
		return
	}

	threadID, ok := c.router.Route(labelIDs)
	if !ok {
		logger.Warn().Strs("label_ids", labelIDs).Msg("No thread configured for message labels")
		return
	}

	text := payment.Truncate(c.renderer.Render(details.Body), c.maxLength)
	c.outbox.EnqueueText(threadID, text)
	for _, a := range details.Attachments {
		c.outbox.EnqueueAttachment(threadID, a)
	}
	logger.Info().
		Int64("thread_id", threadID).
		Int("attachments", len(details.Attachments)).
		Msg("Message queued")

	if err := c.mailbox.MarkRead(ctx, id); err != nil {
		logger.Error().Err(err).Msg("Failed to mark message as read")
		return
	}

	c.processed.Add(id)
	logger.Info().Msg("Message processed")
}
