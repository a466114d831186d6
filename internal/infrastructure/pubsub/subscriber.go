package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"cloud.google.com/go/pubsub"
	"github.com/rs/zerolog"
)

// Notification represents Gmail Pub/Sub notification
type Notification struct {
	EmailAddress string `json:"emailAddress"`
	HistoryID    uint64 `json:"historyId"`
}

// Subscriber handles Pub/Sub messages
type Subscriber struct {
	client         *pubsub.Client
	subscriptionID string
	logger         zerolog.Logger

	mu           sync.Mutex
	processedIDs map[uint64]bool
}

// NewSubscriber creates a new Pub/Sub subscriber
func NewSubscriber(ctx context.Context, projectID, subscriptionID string, logger zerolog.Logger) (*Subscriber, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	return &Subscriber{
		client:         client,
		subscriptionID: subscriptionID,
		logger:         logger.With().Str("component", "pubsub").Logger(),
		processedIDs:   make(map[uint64]bool),
	}, nil
}

// Listen blocks receiving messages until ctx is cancelled. Every message is
// acked; handler sees each history id at most once.
func (s *Subscriber) Listen(ctx context.Context, handler func(ctx context.Context, historyID uint64)) error {
	sub := s.client.Subscription(s.subscriptionID)

	s.logger.Info().Str("subscription", s.subscriptionID).Msg("Pub/Sub listener started")

	return sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		defer m.Ack()

		if n, ok := s.accept(m.Data); ok {
			s.logger.Info().
				Str("email", n.EmailAddress).
				Uint64("history_id", n.HistoryID).
				Msg("New notification")
			handler(ctx, n.HistoryID)
		}
	})
}

// accept parses data and reports whether it is a notification not seen
// before. Receive runs callbacks concurrently.
func (s *Subscriber) accept(data []byte) (*Notification, bool) {
	n, err := parseNotification(data)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Parse notification error")
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processedIDs[n.HistoryID] {
		return nil, false
	}
	s.processedIDs[n.HistoryID] = true
	return n, true
}

// Close closes the Pub/Sub client
func (s *Subscriber) Close() error {
	return s.client.Close()
}

func parseNotification(data []byte) (*Notification, error) {
	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("unmarshal notification: %w", err)
	}
	return &n, nil
}
