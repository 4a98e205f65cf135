package business

import (
	"errors"
	"time"

	"github.com/yabe12/bizdir/internal/domain/category"
)

var (
	ErrNotFound        = errors.New("business not found")
	ErrInvalidCategory = errors.New("invalid category ID")
	ErrNotOwner        = errors.New("only the owner can change this business")
)

type Business struct {
	ID            string             `json:"id"`
	OwnerID       string             `json:"ownerId"`
	CategoryID    string             `json:"categoryId"`
	Name          string             `json:"businessName"`
	Email         string             `json:"businessEmail"`
	Address       string             `json:"businessAddress"`
	Phone         string             `json:"businessPhone"`
	WebsiteURL    string             `json:"websiteUrl,omitempty"`
	Latitude      *float64           `json:"latitude,omitempty"`
	Longitude     *float64           `json:"longitude,omitempty"`
	OpeningTime   string             `json:"openingTime,omitempty"`
	ClosingTime   string             `json:"closingTime,omitempty"`
	LicenseNumber *int64             `json:"businessLicenseNumber,omitempty"`
	Services      []string           `json:"services"`
	Category      *category.Category `json:"category,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

type CreateBusinessRequest struct {
	Name          string   `json:"businessName" binding:"required,min=2,max=160"`
	Email         string   `json:"businessEmail" binding:"required,email"`
	CategoryID    string   `json:"categoryId" binding:"required,uuid"`
	Address       string   `json:"businessAddress" binding:"required,max=300"`
	Phone         string   `json:"businessPhone" binding:"required,max=40"`
	WebsiteURL    string   `json:"websiteUrl" binding:"omitempty,url"`
	Latitude      *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude     *float64 `json:"longitude" binding:"omitempty,longitude"`
	OpeningTime   string   `json:"openingTime" binding:"omitempty,datetime=15:04"`
	ClosingTime   string   `json:"closingTime" binding:"omitempty,datetime=15:04"`
	LicenseNumber *int64   `json:"businessLicenseNumber" binding:"omitempty,min=1"`
	Services      []string `json:"services" binding:"omitempty,max=50,dive,required,max=120"`
}

// partial update: nil keeps the current value, Services replaces the list when non-nil
type UpdateBusinessRequest struct {
	Name          *string   `json:"businessName" binding:"omitempty,min=2,max=160"`
	Email         *string   `json:"businessEmail" binding:"omitempty,email"`
	CategoryID    *string   `json:"categoryId" binding:"omitempty,uuid"`
	Address       *string   `json:"businessAddress" binding:"omitempty,max=300"`
	Phone         *string   `json:"businessPhone" binding:"omitempty,max=40"`
	WebsiteURL    *string   `json:"websiteUrl" binding:"omitempty,url"`
	Latitude      *float64  `json:"latitude" binding:"omitempty,latitude"`
	Longitude     *float64  `json:"longitude" binding:"omitempty,longitude"`
	OpeningTime   *string   `json:"openingTime" binding:"omitempty,datetime=15:04"`
	ClosingTime   *string   `json:"closingTime" binding:"omitempty,datetime=15:04"`
	LicenseNumber *int64    `json:"businessLicenseNumber" binding:"omitempty,min=1"`
	Services      *[]string `json:"services" binding:"omitempty,max=50,dive,required,max=120"`
}

// SearchFilter matches case-insensitive substrings; empty fields are ignored.
type SearchFilter struct {
	Name    string
	Address string
	Service string
}

func (f SearchFilter) IsEmpty() bool {
	return f.Name == "" && f.Address == "" && f.Service == ""
}
