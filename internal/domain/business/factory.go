package business

import (
	"time"

	"github.com/google/uuid"
)

func NewFromCreateRequest(ownerID string, req CreateBusinessRequest) Business {
	now := time.Now().UTC()

	services := req.Services
	if services == nil {
		services = []string{}
	}

	return Business{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		CategoryID:    req.CategoryID,
		Name:          req.Name,
		Email:         req.Email,
		Address:       req.Address,
		Phone:         req.Phone,
		WebsiteURL:    req.WebsiteURL,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		OpeningTime:   req.OpeningTime,
		ClosingTime:   req.ClosingTime,
		LicenseNumber: req.LicenseNumber,
		Services:      services,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
