package utils

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

var ErrInvalidCursor = errors.New("invalid cursor")

// BusinessCursor is the keyset position of the last business on a page.
type BusinessCursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
}

func EncodeBusinessCursor(createdAt time.Time, id string) (string, error) {
	b, err := json.Marshal(BusinessCursor{CreatedAt: createdAt, ID: id})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeBusinessCursor(cursor string) (BusinessCursor, error) {
	if cursor == "" {
		return BusinessCursor{}, ErrInvalidCursor
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return BusinessCursor{}, ErrInvalidCursor
	}

	var c BusinessCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return BusinessCursor{}, ErrInvalidCursor
	}
	if !IsUUID(c.ID) || c.CreatedAt.IsZero() {
		return BusinessCursor{}, ErrInvalidCursor
	}
	return c, nil
}
