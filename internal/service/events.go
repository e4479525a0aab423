package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// EnforcementEvent notifies the administrative layer that a student was
// automatically deactivated and, when housed, vacated.
type EnforcementEvent struct {
	ID           string    `json:"id"`
	StudentID    uint      `json:"student_id"`
	ActionID     uint      `json:"action_id"`
	Severity     string    `json:"severity"`
	ConductScore int       `json:"conduct_score"`
	VacatedRoom  *string   `json:"vacated_room,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// EventPublisher fans enforcement events out to interested consumers.
type EventPublisher interface {
	PublishEnforcement(ctx context.Context, event EnforcementEvent) error
}

type eventPublisher struct {
	nats    *nats.Conn
	redis   *redis.Client
	subject string
	channel string
	logger  zerolog.Logger
}

// NewEventPublisher constructs a publisher that writes each event to a NATS
// subject and mirrors it on a Redis channel. Either backend may be nil; a
// fully nil publisher degrades to logging only.
func NewEventPublisher(natsConn *nats.Conn, redisClient *redis.Client, channelBase string, logger zerolog.Logger) EventPublisher {
	subject := ""
	channel := ""
	if channelBase != "" {
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".enforcement"
		channel = channelBase + ":enforcement"
	}

	return &eventPublisher{
		nats:    natsConn,
		redis:   redisClient,
		subject: subject,
		channel: channel,
		logger:  logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *eventPublisher) PublishEnforcement(ctx context.Context, event EnforcementEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if p.nats != nil && p.subject != "" {
		if err := p.nats.Publish(p.subject, payload); err != nil {
			p.logger.Warn().Err(err).Str("subject", p.subject).Msg("failed to publish enforcement event to nats")
		}
	}

	if p.redis != nil && p.channel != "" {
		if err := p.redis.Publish(ctx, p.channel, payload).Err(); err != nil {
			p.logger.Warn().Err(err).Str("channel", p.channel).Msg("failed to mirror enforcement event to redis")
		}
	}

	p.logger.Info().
		Str("event_id", event.ID).
		Uint("student_id", event.StudentID).
		Int("conduct_score", event.ConductScore).
		Msg("enforcement event published")

	return nil
}
