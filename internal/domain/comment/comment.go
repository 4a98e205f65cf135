package comment

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("comment not found")
	ErrNotAuthor = errors.New("you can only change your own comment")
)

type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type Comment struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	BusinessID string    `json:"businessId"`
	Body       string    `json:"comment"`
	Author     *Author   `json:"user,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type CreateCommentRequest struct {
	BusinessID string `json:"businessId" binding:"required,uuid"`
	Body       string `json:"comment" binding:"required,min=1,max=2000"`
}

type UpdateCommentRequest struct {
	Body string `json:"comment" binding:"required,min=1,max=2000"`
}

func NewFromCreateRequest(userID string, req CreateCommentRequest) Comment {
	now := time.Now().UTC()
	return Comment{
		ID:         uuid.NewString(),
		UserID:     userID,
		BusinessID: req.BusinessID,
		Body:       req.Body,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
