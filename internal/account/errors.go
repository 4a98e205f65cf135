package account

import (
	"errors"

	"github.com/yabe12/bizdir/internal/domain/user"
)

var (
	ErrUserNotFound            = errors.New("User not found")
	ErrInvalidCredentials      = errors.New("Invalid credentials")
	ErrInvalidOrExpiredToken   = errors.New("Invalid or expired verification code")
	ErrWeakPassword            = errors.New("Password must be at least 8 characters long and contain a letter and a special character")
	ErrMissingRequiredField    = errors.New("username, email and password are required")
	ErrUsernameTaken           = user.ErrUsernameTaken
	ErrEmailTaken              = user.ErrEmailTaken
	ErrMailDelivery            = errors.New("password reset email could not be sent")
	errResetCodeSpaceExhausted = errors.New("could not allocate a unique reset code")
)
