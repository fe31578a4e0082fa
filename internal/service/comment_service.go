package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/event-platform/internal/domain"
	"github.com/spec-kit/event-platform/internal/events"
	"github.com/spec-kit/event-platform/internal/repository"
	apperrors "github.com/spec-kit/event-platform/pkg/util"
)

const maxCommentLength = 2000

// CommentService handles per-event discussion threads.
type CommentService struct {
	comments   repository.CommentRepository
	eventsRepo repository.EventRepository
	dispatcher events.Dispatcher
}

// NewCommentService constructs the service.
func NewCommentService(comments repository.CommentRepository, eventsRepo repository.EventRepository, dispatcher events.Dispatcher) *CommentService {
	return &CommentService{comments: comments, eventsRepo: eventsRepo, dispatcher: dispatcher}
}

// Create posts a comment on an existing event.
func (s *CommentService) Create(ctx context.Context, userID, eventID, content string) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("content required", nil)
	}
	if len(content) > maxCommentLength {
		return nil, apperrors.NewValidationError("content too long", nil)
	}

	if _, err := s.eventsRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("event", nil)
		}
		return nil, apperrors.MapError(err)
	}

	comment := &domain.Comment{
		Content: content,
		UserID:  userID,
		EventID: eventID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventCommentAdded,
			EventID:   eventID,
			ActorID:   userID,
			Timestamp: time.Now(),
			Payload:   events.CommentAddedPayload{CommentID: comment.ID, UserID: userID},
		})
	}
	return comment, nil
}

// ListByEvent returns an event's comments, oldest first.
func (s *CommentService) ListByEvent(ctx context.Context, eventID string) ([]domain.Comment, error) {
	if _, err := s.eventsRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("event", nil)
		}
		return nil, apperrors.MapError(err)
	}
	comments, err := s.comments.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return comments, nil
}

// Delete removes the caller's own comment. A comment that does not
// exist or belongs to someone else reports NotFound either way.
func (s *CommentService) Delete(ctx context.Context, commentID, userID string) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("comment", nil)
		}
		return apperrors.MapError(err)
	}
	if comment.UserID != userID {
		return apperrors.NewNotFound("comment", nil)
	}
	if err := s.comments.Delete(ctx, commentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("comment", nil)
		}
		return apperrors.MapError(err)
	}
	return nil
}
