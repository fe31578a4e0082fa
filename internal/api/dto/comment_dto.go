package dto

import (
	"time"

	"github.com/spec-kit/event-platform/internal/domain"
)

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	EventID string `json:"event_id"`
	Content string `json:"content"`
}

// CommentResponse one comment.
type CommentResponse struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	UserID    string    `json:"user_id"`
	EventID   string    `json:"event_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentFromDomain maps a comment to its response shape.
func CommentFromDomain(comment *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        comment.ID,
		Content:   comment.Content,
		UserID:    comment.UserID,
		EventID:   comment.EventID,
		CreatedAt: comment.CreatedAt,
	}
}
