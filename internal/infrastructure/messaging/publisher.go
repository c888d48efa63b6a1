package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/greenmap/plant-service/internal/infrastructure/metrics"
)

const (
	SubjectUserRegistered  = "user.registered"
	SubjectPlantAdded      = "plant.added"
	SubjectPlantLiked      = "plant.liked"
	SubjectGardenCreated   = "garden.created"
	SubjectSurveySubmitted = "survey.submitted"
)

// Event is the JSON body published for every domain event.
type Event struct {
	Subject    string    `json:"subject"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

// Publisher emits domain events. With no connection it only logs at debug.
// Failures are logged and counted, never returned to the caller.
type Publisher struct {
	nc      *nats.Conn
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewPublisher(nc *nats.Conn, logger *zap.Logger, m *metrics.Metrics) *Publisher {
	return &Publisher{nc: nc, logger: logger, metrics: m}
}

func (p *Publisher) Publish(ctx context.Context, subject string, data any) {
	if p.nc == nil {
		p.logger.Debug("NATS disabled, event dropped", zap.String("subject", subject))
		return
	}
	body, err := json.Marshal(Event{Subject: subject, OccurredAt: time.Now().UTC(), Data: data})
	if err == nil {
		err = p.nc.Publish(subject, body)
	}
	if err != nil {
		p.count(subject, "error")
		p.logger.Warn("Failed to publish event", zap.String("subject", subject), zap.Error(err))
		return
	}
	p.count(subject, "ok")
}

func (p *Publisher) count(subject, outcome string) {
	if p.metrics != nil {
		p.metrics.EventsPublished.WithLabelValues(subject, outcome).Inc()
	}
}
