package rating

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("rating not found")
	ErrAlreadyRated = errors.New("you have already rated this business")
	ErrNotAuthor    = errors.New("you can only change your own rating")
)

const (
	MinValue = 1
	MaxValue = 5
)

type Rating struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	BusinessID string    `json:"businessId"`
	Value      int       `json:"rating"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type CreateRatingRequest struct {
	BusinessID string `json:"businessId" binding:"required,uuid"`
	Value      int    `json:"rating" binding:"required,min=1,max=5"`
}

type UpdateRatingRequest struct {
	Value int `json:"rating" binding:"required,min=1,max=5"`
}

// Summary is the list of ratings for a business with their mean.
type Summary struct {
	BusinessID string   `json:"businessId"`
	Count      int      `json:"count"`
	Average    float64  `json:"average"`
	Ratings    []Rating `json:"ratings"`
}

func NewFromCreateRequest(userID string, req CreateRatingRequest) Rating {
	now := time.Now().UTC()
	return Rating{
		ID:         uuid.NewString(),
		UserID:     userID,
		BusinessID: req.BusinessID,
		Value:      req.Value,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func Summarize(businessID string, ratings []Rating) Summary {
	s := Summary{BusinessID: businessID, Count: len(ratings), Ratings: ratings}
	if s.Ratings == nil {
		s.Ratings = []Rating{}
	}
	if len(ratings) == 0 {
		return s
	}

	total := 0
	for _, r := range ratings {
		total += r.Value
	}
	s.Average = float64(total) / float64(len(ratings))
	return s
}
