package port

import (
	"context"

	"github.com/fiapx/fiapx-frame-sampler/internal/domain/entity"
)

type StatusPublisher interface {
	PublishStatus(ctx context.Context, msg entity.FrameStatusMessage) error
}

// DLQPublisher forwards the original message body untouched, with the reason attached.
type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, body []byte, reason string) error
}
