package notifications

import (
	"context"
	"fmt"
	"time"
)

const TemplatePasswordReset = "password_reset"

type PasswordResetEmail struct {
	To        string
	Username  string
	Code      string
	ExpiresAt time.Time
}

type Mailer interface {
	SendPasswordReset(ctx context.Context, msg PasswordResetEmail) error
}

// Message is a rendered plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

func RenderPasswordReset(msg PasswordResetEmail) Message {
	name := msg.Username
	if name == "" {
		name = "there"
	}

	body := fmt.Sprintf(
		"Hi %s,\n\nYour password reset verification code is: %s\n\nThe code expires at %s. If you did not ask to reset your password you can ignore this email.\n",
		name, msg.Code, msg.ExpiresAt.UTC().Format(time.RFC1123),
	)

	return Message{
		To:      msg.To,
		Subject: "Password Reset Verification Code",
		Body:    body,
	}
}
