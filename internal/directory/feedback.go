package directory

import (
	"context"
	"errors"
	"strings"

	"github.com/yabe12/bizdir/internal/apperr"
	"github.com/yabe12/bizdir/internal/domain/business"
	"github.com/yabe12/bizdir/internal/domain/comment"
	"github.com/yabe12/bizdir/internal/domain/rating"
	"github.com/yabe12/bizdir/internal/domain/user"
	"github.com/yabe12/bizdir/internal/utils"
)

func (s *Service) AddComment(ctx context.Context, userID string, req comment.CreateCommentRequest) (comment.Comment, error) {
	req.Body = strings.TrimSpace(req.Body)
	if req.Body == "" {
		return comment.Comment{}, apperr.Validation("invalid_comment", ErrEmptyCommentBody)
	}
	if !utils.IsUUID(req.BusinessID) {
		return comment.Comment{}, apperr.Validation("invalid_id", ErrInvalidID)
	}

	c, err := s.comments.Create(ctx, comment.NewFromCreateRequest(userID, req))
	if err != nil {
		return comment.Comment{}, mapFeedbackErr("directory.add_comment", err)
	}
	return c, nil
}

func (s *Service) UpdateComment(ctx context.Context, userID, id string, req comment.UpdateCommentRequest) (comment.Comment, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return comment.Comment{}, apperr.Validation("invalid_comment", ErrEmptyCommentBody)
	}
	if _, err := s.authoredComment(ctx, userID, id); err != nil {
		return comment.Comment{}, err
	}

	c, err := s.comments.Update(ctx, id, body)
	if err != nil {
		return comment.Comment{}, mapFeedbackErr("directory.update_comment", err)
	}
	return c, nil
}

func (s *Service) DeleteComment(ctx context.Context, userID, id string) (comment.Comment, error) {
	c, err := s.authoredComment(ctx, userID, id)
	if err != nil {
		return comment.Comment{}, err
	}

	if err := s.comments.Delete(ctx, id); err != nil {
		return comment.Comment{}, mapFeedbackErr("directory.delete_comment", err)
	}
	return c, nil
}

func (s *Service) ListComments(ctx context.Context, businessID string) ([]comment.Comment, error) {
	if _, err := s.GetBusiness(ctx, businessID); err != nil {
		return nil, err
	}

	items, err := s.comments.ListByBusiness(ctx, businessID)
	if err != nil {
		return nil, apperr.Internal("directory.list_comments", err)
	}
	if items == nil {
		items = []comment.Comment{}
	}
	return items, nil
}

func (s *Service) authoredComment(ctx context.Context, userID, id string) (comment.Comment, error) {
	if !utils.IsUUID(id) {
		return comment.Comment{}, apperr.Validation("invalid_id", ErrInvalidID)
	}

	c, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return comment.Comment{}, mapFeedbackErr("directory.get_comment", err)
	}
	if c.UserID != userID {
		return comment.Comment{}, apperr.Forbidden("not_author", comment.ErrNotAuthor)
	}
	return c, nil
}

func (s *Service) AddRating(ctx context.Context, userID string, req rating.CreateRatingRequest) (rating.Rating, error) {
	if req.Value < rating.MinValue || req.Value > rating.MaxValue {
		return rating.Rating{}, apperr.Validation("invalid_rating", ErrRatingOutOfRange)
	}
	if !utils.IsUUID(req.BusinessID) {
		return rating.Rating{}, apperr.Validation("invalid_id", ErrInvalidID)
	}

	r, err := s.ratings.Create(ctx, rating.NewFromCreateRequest(userID, req))
	if err != nil {
		return rating.Rating{}, mapFeedbackErr("directory.add_rating", err)
	}
	return r, nil
}

func (s *Service) UpdateRating(ctx context.Context, userID, id string, req rating.UpdateRatingRequest) (rating.Rating, error) {
	if req.Value < rating.MinValue || req.Value > rating.MaxValue {
		return rating.Rating{}, apperr.Validation("invalid_rating", ErrRatingOutOfRange)
	}
	if _, err := s.authoredRating(ctx, userID, id); err != nil {
		return rating.Rating{}, err
	}

	r, err := s.ratings.Update(ctx, id, req.Value)
	if err != nil {
		return rating.Rating{}, mapFeedbackErr("directory.update_rating", err)
	}
	return r, nil
}

func (s *Service) DeleteRating(ctx context.Context, userID, id string) (rating.Rating, error) {
	r, err := s.authoredRating(ctx, userID, id)
	if err != nil {
		return rating.Rating{}, err
	}

	if err := s.ratings.Delete(ctx, id); err != nil {
		return rating.Rating{}, mapFeedbackErr("directory.delete_rating", err)
	}
	return r, nil
}

func (s *Service) ListRatings(ctx context.Context, businessID string) (rating.Summary, error) {
	if _, err := s.GetBusiness(ctx, businessID); err != nil {
		return rating.Summary{}, err
	}

	items, err := s.ratings.ListByBusiness(ctx, businessID)
	if err != nil {
		return rating.Summary{}, apperr.Internal("directory.list_ratings", err)
	}
	return rating.Summarize(businessID, items), nil
}

func (s *Service) authoredRating(ctx context.Context, userID, id string) (rating.Rating, error) {
	if !utils.IsUUID(id) {
		return rating.Rating{}, apperr.Validation("invalid_id", ErrInvalidID)
	}

	r, err := s.ratings.GetByID(ctx, id)
	if err != nil {
		return rating.Rating{}, mapFeedbackErr("directory.get_rating", err)
	}
	if r.UserID != userID {
		return rating.Rating{}, apperr.Forbidden("not_author", rating.ErrNotAuthor)
	}
	return r, nil
}

func mapFeedbackErr(op string, err error) error {
	switch {
	case errors.Is(err, business.ErrNotFound):
		return apperr.NotFound("business_not_found", err)
	case errors.Is(err, comment.ErrNotFound):
		return apperr.NotFound("comment_not_found", err)
	case errors.Is(err, rating.ErrNotFound):
		return apperr.NotFound("rating_not_found", err)
	case errors.Is(err, rating.ErrAlreadyRated):
		return apperr.Conflict("already_rated", err)
	case errors.Is(err, user.ErrNotFound):
		// the author's account is gone; the token outlived it
		return apperr.NotFound("user_not_found", err)
	default:
		return apperr.Internal(op, err)
	}
}
