package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

type SMTPNotifier struct {
	host   string
	port   int
	from   string
	logger *zap.Logger
}

func NewSMTPNotifier(host string, port int, from string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{host: host, port: port, from: from, logger: logger}
}

func (n *SMTPNotifier) NotifyFailure(_ context.Context, userEmail, jobID, videoKey, stage, errorMsg string) error {
	if userEmail == "" {
		n.logger.Warn("no recipient for failure notification", zap.String("job_id", jobID))
		return nil
	}

	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	msg := n.failureMessage(userEmail, jobID, videoKey, stage, errorMsg)

	if err := smtp.SendMail(addr, nil, n.from, []string{userEmail}, msg); err != nil {
		n.logger.Error("failed to send failure notification email",
			zap.String("to", userEmail),
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("failure notification email sent",
		zap.String("to", userEmail),
		zap.String("job_id", jobID),
	)
	return nil
}

func (n *SMTPNotifier) failureMessage(to, jobID, videoKey, stage, errorMsg string) []byte {
	if stage == "" {
		stage = "unknown"
	}

	subject := fmt.Sprintf("FIAP X - Frame extraction failed [Job %s]", jobID)

	var body strings.Builder
	body.WriteString("Hello,\r\n\r\n")
	body.WriteString("We could not extract frames from your video.\r\n\r\n")
	fmt.Fprintf(&body, "Job ID: %s\r\n", jobID)
	fmt.Fprintf(&body, "Video: %s\r\n", videoKey)
	fmt.Fprintf(&body, "Failed step: %s\r\n", stage)
	fmt.Fprintf(&body, "Error: %s\r\n\r\n", errorMsg)
	body.WriteString("Please check the file and upload it again, or contact support.\r\n\r\n")
	body.WriteString("-- FIAP X Frame Sampler")

	return []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		n.from, to, subject, body.String(),
	))
}
