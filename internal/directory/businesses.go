package directory

import (
	"context"
	"errors"
	"strings"

	"github.com/yabe12/bizdir/internal/apperr"
	"github.com/yabe12/bizdir/internal/domain/business"
	"github.com/yabe12/bizdir/internal/domain/category"
	"github.com/yabe12/bizdir/internal/utils"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is one slice of the business listing.
type Page struct {
	Items      []business.Business `json:"items"`
	NextCursor *string             `json:"nextCursor,omitempty"`
	HasMore    bool                `json:"hasMore"`
	Limit      int                 `json:"limit"`
}

// RegisterBusiness stores a new business owned by ownerID.
func (s *Service) RegisterBusiness(ctx context.Context, ownerID string, req business.CreateBusinessRequest) (business.Business, error) {
	b := business.NewFromCreateRequest(ownerID, req)

	created, err := s.businesses.Create(ctx, b)
	if err != nil {
		return business.Business{}, mapBusinessErr("directory.register_business", err)
	}

	// re-read so the response embeds the category
	full, err := s.businesses.GetByID(ctx, created.ID)
	if err != nil {
		return created, nil
	}
	return full, nil
}

func (s *Service) ListBusinesses(ctx context.Context, limit int, cursor string) (Page, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	var after *utils.BusinessCursor
	if cursor != "" {
		c, err := utils.DecodeBusinessCursor(cursor)
		if err != nil {
			return Page{}, apperr.Validation("invalid_cursor", ErrInvalidPageCursor)
		}
		after = &c
	}

	items, next, hasMore, err := s.businesses.ListCursor(ctx, limit, after)
	if err != nil {
		return Page{}, apperr.Internal("directory.list_businesses", err)
	}
	if items == nil {
		items = []business.Business{}
	}

	return Page{Items: items, NextCursor: next, HasMore: hasMore, Limit: limit}, nil
}

func (s *Service) GetBusiness(ctx context.Context, id string) (business.Business, error) {
	if !utils.IsUUID(id) {
		return business.Business{}, apperr.Validation("invalid_id", ErrInvalidID)
	}

	b, err := s.businesses.GetByID(ctx, id)
	if err != nil {
		return business.Business{}, mapBusinessErr("directory.get_business", err)
	}
	return b, nil
}

// SearchBusinesses matches case-insensitive substrings. An empty filter
// lists everything up to the store's cap.
func (s *Service) SearchBusinesses(ctx context.Context, f business.SearchFilter) ([]business.Business, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.Address = strings.TrimSpace(f.Address)
	f.Service = strings.TrimSpace(f.Service)

	items, err := s.businesses.Search(ctx, f)
	if err != nil {
		return nil, apperr.Internal("directory.search_businesses", err)
	}
	if len(items) == 0 {
		return nil, apperr.NotFound("no_results", ErrNoSearchResults)
	}
	return items, nil
}

// UpdateBusiness applies req when callerID owns the business.
func (s *Service) UpdateBusiness(ctx context.Context, callerID, id string, req business.UpdateBusinessRequest) (business.Business, error) {
	if _, err := s.ownedBusiness(ctx, callerID, id); err != nil {
		return business.Business{}, err
	}

	b, err := s.businesses.Update(ctx, id, req)
	if err != nil {
		return business.Business{}, mapBusinessErr("directory.update_business", err)
	}
	return b, nil
}

func (s *Service) DeleteBusiness(ctx context.Context, callerID, id string) error {
	if _, err := s.ownedBusiness(ctx, callerID, id); err != nil {
		return err
	}

	if err := s.businesses.Delete(ctx, id); err != nil {
		return mapBusinessErr("directory.delete_business", err)
	}
	return nil
}

func (s *Service) ownedBusiness(ctx context.Context, callerID, id string) (business.Business, error) {
	b, err := s.GetBusiness(ctx, id)
	if err != nil {
		return business.Business{}, err
	}
	if b.OwnerID != callerID {
		return business.Business{}, apperr.Forbidden("not_owner", business.ErrNotOwner)
	}
	return b, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]category.Category, error) {
	items, err := s.categories.List(ctx)
	if err != nil {
		return nil, apperr.Internal("directory.list_categories", err)
	}
	if items == nil {
		items = []category.Category{}
	}
	return items, nil
}

func (s *Service) GetCategory(ctx context.Context, id string) (category.Category, error) {
	if !utils.IsUUID(id) {
		return category.Category{}, apperr.Validation("invalid_id", ErrInvalidID)
	}

	c, err := s.categories.GetByID(ctx, id)
	if errors.Is(err, category.ErrNotFound) {
		return category.Category{}, apperr.NotFound("category_not_found", err)
	}
	if err != nil {
		return category.Category{}, apperr.Internal("directory.get_category", err)
	}
	return c, nil
}

// ListBusinessesByCategory reports an empty category as not found.
func (s *Service) ListBusinessesByCategory(ctx context.Context, categoryID string) ([]business.Business, error) {
	if _, err := s.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}

	items, err := s.businesses.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, apperr.Internal("directory.list_by_category", err)
	}
	if len(items) == 0 {
		return nil, apperr.NotFound("no_businesses", ErrNoBusinesses)
	}
	return items, nil
}

func mapBusinessErr(op string, err error) error {
	switch {
	case errors.Is(err, business.ErrNotFound):
		return apperr.NotFound("business_not_found", err)
	case errors.Is(err, business.ErrInvalidCategory):
		return apperr.Validation("invalid_category", err)
	default:
		return apperr.Internal(op, err)
	}
}
