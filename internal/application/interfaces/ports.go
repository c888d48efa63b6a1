package interfaces

import (
	"context"

	"github.com/greenmap/plant-service/internal/application/common"
)

// EventPublisher emits domain events. Implementations log failures themselves.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data any)
}

type Mailer interface {
	Enabled() bool
	SendWelcome(ctx context.Context, recipientEmail, name string) error
}

type HealthChecker interface {
	Check(ctx context.Context) *common.HealthResult
}
