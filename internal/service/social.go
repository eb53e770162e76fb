package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/devnode/internal/apperror"
	"github.com/sakif/devnode/internal/auth"
	"github.com/sakif/devnode/internal/metrics"
	"github.com/sakif/devnode/internal/model"
	"github.com/sakif/devnode/internal/repository"
)

// SocialService owns the friendship lifecycle.
//
// STATE MACHINE (one row per unordered pair):
//
//	(none) --SendRequest(A→B)--> pending --Accept(by B)--> accepted
//	   ^                            |                          |
//	   +--------- Remove (either party, any direction) --------+
//
// A notification is written in the same transaction as the action that
// triggers it, so a request never exists without its notification.
type SocialService struct {
	store   repository.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewSocialService(store repository.Store, m *metrics.Metrics, logger *slog.Logger) *SocialService {
	return &SocialService{store: store, metrics: m, logger: logger}
}

// SendRequest creates a pending request from requester to receiverID and
// notifies the receiver.
//
// Any existing row for the pair, in either direction and either status,
// is a Conflict. The pair's unique index backs up the check when two
// requests race.
func (s *SocialService) SendRequest(ctx context.Context, requester auth.Identity, receiverID int64) (*model.Friendship, error) {
	if receiverID <= 0 {
		return nil, apperror.ValidationFailed("receiver_id", "receiver_id is required")
	}
	if receiverID == requester.ID {
		return nil, apperror.ValidationFailed("receiver_id", "you cannot send a friend request to yourself")
	}

	f := &model.Friendship{SenderID: requester.ID, ReceiverID: receiverID, Status: model.FriendshipPending}

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Users().GetByID(ctx, receiverID); err != nil {
			return err
		}

		existing, err := tx.Friendships().Between(ctx, requester.ID, receiverID)
		switch {
		case err == nil && existing.Status == model.FriendshipAccepted:
			return apperror.Conflict("you are already connected")
		case err == nil:
			return apperror.Conflict("request already exists")
		case !errors.Is(err, apperror.ErrNotFound):
			return err
		}

		if err := tx.Friendships().Create(ctx, f); err != nil {
			return err
		}
		return tx.Notifications().Create(ctx, &model.Notification{
			UserID:  receiverID,
			Type:    model.NotificationFriendRequest,
			Message: fmt.Sprintf("%s sent you a friend request", requester.Username),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("service/social: request %d->%d: %w", requester.ID, receiverID, err)
	}

	s.metrics.RecordSocialEvent(metrics.EventFriendRequest)
	s.metrics.RecordNotification(model.NotificationFriendRequest)
	s.logger.Info("friend request sent",
		slog.Int64("from", requester.ID),
		slog.Int64("to", receiverID),
	)
	return f, nil
}

// Accept turns senderID's pending request to accepter into a friendship and
// notifies the sender. With no matching pending row it does nothing and
// reports false; that includes accepting twice, or "accepting" one's own
// outgoing request.
func (s *SocialService) Accept(ctx context.Context, accepter auth.Identity, senderID int64) (bool, error) {
	if senderID <= 0 {
		return false, apperror.ValidationFailed("sender_id", "sender_id is required")
	}

	var accepted bool
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		accepted, err = tx.Friendships().Accept(ctx, senderID, accepter.ID)
		if err != nil || !accepted {
			return err
		}
		return tx.Notifications().Create(ctx, &model.Notification{
			UserID:  senderID,
			Type:    model.NotificationFriendAccept,
			Message: fmt.Sprintf("%s accepted your friend request", accepter.Username),
		})
	})
	if err != nil {
		return false, fmt.Errorf("service/social: accept %d->%d: %w", senderID, accepter.ID, err)
	}

	if accepted {
		s.metrics.RecordSocialEvent(metrics.EventFriendAccept)
		s.metrics.RecordNotification(model.NotificationFriendAccept)
		s.logger.Info("friend request accepted",
			slog.Int64("from", senderID),
			slog.Int64("by", accepter.ID),
		)
	} else {
		s.logger.Debug("accept matched no pending request",
			slog.Int64("from", senderID),
			slog.Int64("by", accepter.ID),
		)
	}
	return accepted, nil
}

// Network returns every friendship userID is part of, annotated with how
// each row looks from userID's side.
func (s *SocialService) Network(ctx context.Context, userID int64) ([]model.Connection, error) {
	rows, err := s.store.Friendships().ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/social: listing network of %d: %w", userID, err)
	}
	return model.Annotate(userID, rows), nil
}

// Remove deletes the row between userID and otherID whatever its direction
// or status: it cancels a pending request, declines an incoming one, or
// ends a friendship.
func (s *SocialService) Remove(ctx context.Context, userID, otherID int64) error {
	if err := s.store.Friendships().DeleteBetween(ctx, userID, otherID); err != nil {
		return fmt.Errorf("service/social: removing %d<->%d: %w", userID, otherID, err)
	}

	s.metrics.RecordSocialEvent(metrics.EventFriendRemove)
	s.logger.Info("connection removed",
		slog.Int64("userID", userID),
		slog.Int64("otherID", otherID),
	)
	return nil
}
