package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/devnode/internal/apperror"
	"github.com/sakif/devnode/internal/auth"
	"github.com/sakif/devnode/internal/metrics"
	"github.com/sakif/devnode/internal/model"
	"github.com/sakif/devnode/internal/repository"
)

const MaxMessageLength = 5000

// MessageService is the direct-message log. Clients poll Conversation;
// there is no push channel. Once Send returns, the message is visible to
// both parties' next poll.
type MessageService struct {
	store   repository.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewMessageService(store repository.Store, m *metrics.Metrics, logger *slog.Logger) *MessageService {
	return &MessageService{store: store, metrics: m, logger: logger}
}

// Send appends a message and leaves an "info" notification for the
// receiver, both in one transaction. Content is stored as typed; only
// leading and trailing whitespace is checked for emptiness.
func (s *MessageService) Send(ctx context.Context, sender auth.Identity, receiverID int64, content string) (*model.Message, error) {
	if receiverID <= 0 {
		return nil, apperror.ValidationFailed("receiver_id", "receiver_id is required")
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperror.ValidationFailed("content", "message content is required")
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("message must be %d characters or less", MaxMessageLength))
	}

	msg := &model.Message{SenderID: sender.ID, ReceiverID: receiverID, Content: content}

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Users().GetByID(ctx, receiverID); err != nil {
			return err
		}
		if err := tx.Messages().Create(ctx, msg); err != nil {
			return err
		}
		return tx.Notifications().Create(ctx, &model.Notification{
			UserID:  receiverID,
			Type:    model.NotificationInfo,
			Message: fmt.Sprintf("New message from %s", sender.Username),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("service/message: sending %d->%d: %w", sender.ID, receiverID, err)
	}

	s.metrics.RecordSocialEvent(metrics.EventMessage)
	s.metrics.RecordNotification(model.NotificationInfo)
	s.logger.Debug("message sent",
		slog.Int64("id", msg.ID),
		slog.Int64("from", sender.ID),
		slog.Int64("to", receiverID),
	)
	return msg, nil
}

// Conversation returns the messages between userID and otherID, oldest
// first, whichever of them asks.
func (s *MessageService) Conversation(ctx context.Context, userID, otherID int64) ([]model.Message, error) {
	msgs, err := s.store.Messages().Conversation(ctx, userID, otherID)
	if err != nil {
		return nil, fmt.Errorf("service/message: conversation %d<->%d: %w", userID, otherID, err)
	}
	return msgs, nil
}
