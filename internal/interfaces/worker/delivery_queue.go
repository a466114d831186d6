package worker

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"mailforward/internal/domain/mail"
)

const (
	// MinInterval separates two sends to the same thread.
	MinInterval = 5 * time.Second
	// RetryBackoff is the pause after a failed send.
	RetryBackoff = 5 * time.Second

	summaryLength = 80
)

type Sender interface {
	SendText(ctx context.Context, threadID int64, text string) error
	SendPhoto(ctx context.Context, threadID int64, filename string, data []byte) error
	SendDocument(ctx context.Context, threadID int64, filename string, data []byte, caption string) error
}

// Journal records successful deliveries.
type Journal interface {
	Record(ctx context.Context, d mail.Delivery) error
}

// Entry is a queued item: rendered text or one attachment.
type Entry struct {
	ThreadID   int64
	Text       string
	Attachment *mail.Attachment
}

func (e Entry) Kind() string {
	switch {
	case e.Attachment == nil:
		return "text"
	case e.Attachment.IsImage():
		return "photo"
	case e.Attachment.IsPDF():
		return "pdf"
	default:
		return "document"
	}
}

// Queue is an unbounded FIFO drained by a single consumer. Sends to one
// thread are spaced by MinInterval; failed entries go back to the tail
// and are retried without limit.
type Queue struct {
	sender  Sender
	journal Journal
	logger  zerolog.Logger

	mu      sync.Mutex
	entries []Entry
	notify  chan struct{}

	sendMu   sync.Mutex
	lastSend map[int64]time.Time

	minInterval time.Duration
	backoff     time.Duration
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewQueue builds a queue delivering through sender. journal may be nil.
func NewQueue(sender Sender, journal Journal, logger zerolog.Logger) *Queue {
	return &Queue{
		sender:      sender,
		journal:     journal,
		logger:      logger.With().Str("component", "delivery").Logger(),
		notify:      make(chan struct{}, 1),
		lastSend:    make(map[int64]time.Time),
		minInterval: MinInterval,
		backoff:     RetryBackoff,
		now:         time.Now,
		sleep:       sleepContext,
	}
}

func (q *Queue) EnqueueText(threadID int64, text string) {
	q.push(Entry{ThreadID: threadID, Text: text})
}

func (q *Queue) EnqueueAttachment(threadID int64, attachment mail.Attachment) {
	q.push(Entry{ThreadID: threadID, Attachment: &attachment})
}

// Len reports the number of entries waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Run consumes the queue until ctx is cancelled. Entries still queued at
// that point are dropped.
func (q *Queue) Run(ctx context.Context) {
	q.logger.Info().Msg("Delivery queue started")

	for {
		entry, ok := q.next(ctx)
		if !ok {
			q.logger.Info().Int("pending", q.Len()).Msg("Delivery queue stopped")
			return
		}
		q.dispatch(ctx, entry)
	}
}

func (q *Queue) push(e Entry) {
	q.mu.Lock()
	q.entries = append(q.entries, e)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *Queue) pop() (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return Entry{}, false
	}
	e := q.entries[0]
	q.entries[0] = Entry{}
	q.entries = q.entries[1:]
	return e, true
}

func (q *Queue) next(ctx context.Context) (Entry, bool) {
	for {
		if e, ok := q.pop(); ok {
			return e, true
		}
		select {
		case <-ctx.Done():
			return Entry{}, false
		case <-q.notify:
		}
	}
}

// dispatch holds sendMu across the interval check, the wait and the send
// so no two sends to one thread can slip under the interval.
func (q *Queue) dispatch(ctx context.Context, e Entry) {
	q.sendMu.Lock()
	defer q.sendMu.Unlock()

	logger := q.logger.With().Int64("thread_id", e.ThreadID).Str("kind", e.Kind()).Logger()

	if last, ok := q.lastSend[e.ThreadID]; ok {
		if wait := q.minInterval - q.now().Sub(last); wait > 0 {
			logger.Debug().Dur("wait", wait).Msg("Waiting for thread interval")
			if err := q.sleep(ctx, wait); err != nil {
				return
			}
		}
	}

	err := q.send(ctx, e)
	q.lastSend[e.ThreadID] = q.now()

	if err != nil {
		logger.Warn().Err(err).Msg("Send failed, requeueing")
		q.push(e)
		_ = q.sleep(ctx, q.backoff)
		return
	}

	logger.Info().Msg("Delivered")

	if q.journal != nil {
		d := mail.Delivery{
			ThreadID: e.ThreadID,
			Kind:     e.Kind(),
			Summary:  summarize(e),
			SentAt:   q.now(),
		}
		if err := q.journal.Record(ctx, d); err != nil {
			logger.Error().Err(err).Msg("Failed to record delivery")
		}
	}
}

func (q *Queue) send(ctx context.Context, e Entry) error {
	a := e.Attachment
	switch {
	case a == nil:
		return q.sender.SendText(ctx, e.ThreadID, e.Text)
	case a.IsImage():
		return q.sender.SendPhoto(ctx, e.ThreadID, a.Filename, a.Data)
	case a.IsPDF():
		return q.sender.SendDocument(ctx, e.ThreadID, a.Filename, a.Data, "")
	default:
		return q.sender.SendDocument(ctx, e.ThreadID, a.Filename, a.Data, "Файл: "+a.Filename)
	}
}

func summarize(e Entry) string {
	if e.Attachment != nil {
		return e.Attachment.Filename
	}
	if utf8.RuneCountInString(e.Text) <= summaryLength {
		return e.Text
	}
	return string([]rune(e.Text)[:summaryLength])
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
