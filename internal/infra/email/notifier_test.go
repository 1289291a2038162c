package email

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFailureMessageNamesStage(t *testing.T) {
	n := NewSMTPNotifier("localhost", 1025, "noreply@fiapx.local", zap.NewNop())

	msg := string(n.failureMessage("user@example.com", "job-1", "user/video.mp4", "extraction", "invalid input: no video stream"))

	assert.True(t, strings.HasPrefix(msg, "From: noreply@fiapx.local\r\nTo: user@example.com\r\n"))
	assert.Contains(t, msg, "Subject: FIAP X - Frame extraction failed [Job job-1]")
	assert.Contains(t, msg, "Failed step: extraction\r\n")
	assert.Contains(t, msg, "Error: invalid input: no video stream")
}

func TestFailureMessageUnknownStage(t *testing.T) {
	n := NewSMTPNotifier("localhost", 1025, "noreply@fiapx.local", zap.NewNop())

	msg := string(n.failureMessage("user@example.com", "job-1", "v.mp4", "", "boom"))
	assert.Contains(t, msg, "Failed step: unknown")
}

func TestNotifyFailureWithoutRecipient(t *testing.T) {
	n := NewSMTPNotifier("127.0.0.1", 1, "noreply@fiapx.local", zap.NewNop())

	err := n.NotifyFailure(context.Background(), "", "job-1", "v.mp4", "extraction", "boom")
	require.NoError(t, err)
}

func TestNotifyFailureUnreachableServer(t *testing.T) {
	n := NewSMTPNotifier("127.0.0.1", 1, "noreply@fiapx.local", zap.NewNop())

	err := n.NotifyFailure(context.Background(), "user@example.com", "job-1", "v.mp4", "extraction", "boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send email")
}
