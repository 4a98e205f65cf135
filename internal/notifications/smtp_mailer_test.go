package notifications

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSMTPServer accepts one connection, speaks just enough SMTP for
// net/smtp and records the commands and message data it received.
func fakeSMTPServer(t *testing.T) (addr string, received <-chan []string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	out := make(chan []string, 1)

	go func() {
		defer ln.Close()

		conn, err := ln.Accept()
		if err != nil {
			out <- nil
			return
		}
		defer conn.Close()
		_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

		r := bufio.NewReader(conn)
		var lines []string
		write := func(s string) { _, _ = conn.Write([]byte(s + "\r\n")) }

		write("220 fake ESMTP")
		inData := false

		for {
			line, err := r.ReadString('\n')
			if err != nil {
				out <- lines
				return
			}
			line = strings.TrimRight(line, "\r\n")
			lines = append(lines, line)

			if inData {
				if line == "." {
					inData = false
					write("250 queued")
				}
				continue
			}

			switch {
			case strings.HasPrefix(line, "EHLO"), strings.HasPrefix(line, "HELO"):
				write("250 fake")
			case strings.HasPrefix(line, "DATA"):
				inData = true
				write("354 go ahead")
			case strings.HasPrefix(line, "QUIT"):
				write("221 bye")
				out <- lines
				return
			default:
				write("250 ok")
			}
		}
	}()

	return ln.Addr().String(), out
}

func TestSMTPMailerSendsMessage(t *testing.T) {
	addr, received := fakeSMTPServer(t)
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	m := NewSMTPMailer(SMTPConfig{Host: host, Port: port, From: "no-reply@bizdir.local"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = m.SendPasswordReset(ctx, PasswordResetEmail{To: "ada@example.com", Code: "AB12CD", ExpiresAt: time.Now()})
	require.NoError(t, err)

	lines := <-received
	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, "MAIL FROM:<no-reply@bizdir.local>")
	assert.Contains(t, joined, "RCPT TO:<ada@example.com>")
	assert.Contains(t, joined, "Subject: Password Reset Verification Code")
	assert.Contains(t, joined, "AB12CD")
}

func TestSMTPMailerDialFailure(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "127.0.0.1", Port: 1, From: "x@y.z"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	assert.Error(t, m.SendPasswordReset(ctx, PasswordResetEmail{To: "ada@example.com"}))
}
