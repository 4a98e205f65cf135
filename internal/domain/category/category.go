package category

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("category not found")

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Defaults is the fixed list of industries every directory starts with.
var Defaults = []string{
	"Technology and Software",
	"Healthcare and Pharmaceuticals",
	"Food and Beverage",
	"Agriculture and Farming",
	"Finance and Banking",
	"Retail and E-commerce",
	"Energy and Utilities",
	"Automotive and Transportation",
	"Telecommunications",
	"Entertainment and Media",
	"Real Estate",
	"Fashion and Apparel",
	"Education and E-learning",
	"Hospitality and Tourism",
	"Aerospace and Defense",
}
