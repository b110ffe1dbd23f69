package smtp

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/succession-vault/internal/config"
)

func TestBuildMessage_Headers(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := string(buildMessage("noreply@example.com", "jane@example.com", "Claim update", "Approved.", at))

	assert.True(t, strings.HasPrefix(msg, "From: noreply@example.com\r\nTo: jane@example.com\r\n"))
	assert.Contains(t, msg, "Subject: Claim update\r\n")
	assert.Contains(t, msg, "Date: Fri, 01 Mar 2024 12:00:00 +0000\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nApproved."))
}

func TestBuildMessage_StripsHeaderInjection(t *testing.T) {
	msg := string(buildMessage("a@example.com", "b@example.com", "hi\r\nBcc: evil@example.com", "x", time.Now()))
	assert.NotContains(t, msg, "\r\nBcc:")
}

func TestNewMailer_NoHostLogsOnly(t *testing.T) {
	m := NewMailer(&config.Config{})
	assert.IsType(t, logMailer{}, m)
	assert.NoError(t, m.SendEmail("x@example.com", "s", "b"))
}
