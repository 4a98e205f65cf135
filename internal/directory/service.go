// Package directory holds the business listing operations: businesses,
// their categories, and the comments and ratings users attach to them.
package directory

import (
	"context"
	"errors"

	"github.com/yabe12/bizdir/internal/domain/business"
	"github.com/yabe12/bizdir/internal/domain/category"
	"github.com/yabe12/bizdir/internal/domain/comment"
	"github.com/yabe12/bizdir/internal/domain/rating"
	"github.com/yabe12/bizdir/internal/utils"
)

var (
	ErrInvalidID         = errors.New("invalid ID format")
	ErrNoBusinesses      = errors.New("No businesses found for this category")
	ErrNoSearchResults   = errors.New("No businesses found matching the search criteria")
	ErrInvalidPageCursor = errors.New("invalid cursor")
	ErrEmptyCommentBody  = errors.New("comment must not be blank")
	ErrRatingOutOfRange  = errors.New("Rating must be between 1 and 5")
)

type BusinessStore interface {
	Create(ctx context.Context, b business.Business) (business.Business, error)
	GetByID(ctx context.Context, id string) (business.Business, error)
	ListCursor(ctx context.Context, limit int, after *utils.BusinessCursor) ([]business.Business, *string, bool, error)
	ListByCategory(ctx context.Context, categoryID string) ([]business.Business, error)
	Search(ctx context.Context, f business.SearchFilter) ([]business.Business, error)
	Update(ctx context.Context, id string, req business.UpdateBusinessRequest) (business.Business, error)
	Delete(ctx context.Context, id string) error
}

type CategoryStore interface {
	List(ctx context.Context) ([]category.Category, error)
	GetByID(ctx context.Context, id string) (category.Category, error)
}

type CommentStore interface {
	Create(ctx context.Context, c comment.Comment) (comment.Comment, error)
	GetByID(ctx context.Context, id string) (comment.Comment, error)
	Update(ctx context.Context, id, body string) (comment.Comment, error)
	Delete(ctx context.Context, id string) error
	ListByBusiness(ctx context.Context, businessID string) ([]comment.Comment, error)
}

type RatingStore interface {
	Create(ctx context.Context, r rating.Rating) (rating.Rating, error)
	GetByID(ctx context.Context, id string) (rating.Rating, error)
	Update(ctx context.Context, id string, value int) (rating.Rating, error)
	Delete(ctx context.Context, id string) error
	ListByBusiness(ctx context.Context, businessID string) ([]rating.Rating, error)
}

type Config struct {
	Businesses BusinessStore
	Categories CategoryStore
	Comments   CommentStore
	Ratings    RatingStore
}

type Service struct {
	businesses BusinessStore
	categories CategoryStore
	comments   CommentStore
	ratings    RatingStore
}

func NewService(cfg Config) (*Service, error) {
	switch {
	case cfg.Businesses == nil:
		return nil, errors.New("directory: business store is required")
	case cfg.Categories == nil:
		return nil, errors.New("directory: category store is required")
	case cfg.Comments == nil:
		return nil, errors.New("directory: comment store is required")
	case cfg.Ratings == nil:
		return nil, errors.New("directory: rating store is required")
	}

	return &Service{
		businesses: cfg.Businesses,
		categories: cfg.Categories,
		comments:   cfg.Comments,
		ratings:    cfg.Ratings,
	}, nil
}
