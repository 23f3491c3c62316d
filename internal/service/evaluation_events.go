package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

// EvaluationEventCompleted is the type of the event emitted after every evaluate call.
const EvaluationEventCompleted = "evaluation.completed"

// EvaluationEvent is the payload fanned out to other services.
type EvaluationEvent struct {
	Type           string    `json:"type"`
	RunID          string    `json:"run_id,omitempty"`
	UserID         *uint     `json:"user_id,omitempty"`
	Stage          string    `json:"stage"`
	OverallScore   int       `json:"overall_score"`
	IntentMatch    int       `json:"intent_match"`
	Missing        []string  `json:"missing"`
	Source         string    `json:"source"`
	Model          string    `json:"model,omitempty"`
	FallbackReason string    `json:"fallback_reason,omitempty"`
	TokensUsed     int       `json:"tokens_used"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// EvaluationPublisher delivers evaluation events.
type EvaluationPublisher interface {
	PublishEvaluation(ctx context.Context, event EvaluationEvent) error
}

type busEvaluationPublisher struct {
	nats         *nats.Conn
	natsSubject  string
	redis        *redis.Client
	redisChannel string
}

// NewEvaluationPublisher publishes to NATS and mirrors to a redis channel; either transport may be nil.
func NewEvaluationPublisher(natsConn *nats.Conn, subject string, redisClient *redis.Client) EvaluationPublisher {
	return &busEvaluationPublisher{
		nats:         natsConn,
		natsSubject:  subject,
		redis:        redisClient,
		redisChannel: subject,
	}
}

func (p *busEvaluationPublisher) PublishEvaluation(ctx context.Context, event EvaluationEvent) error {
	if event.Type == "" {
		event.Type = EvaluationEventCompleted
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if p.redis != nil && p.redisChannel != "" {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			return err
		}
	}

	if p.nats != nil && p.natsSubject != "" {
		msg := nats.NewMsg(p.natsSubject + ".completed")
		msg.Data = payload
		msg.Header.Set("Event-Type", event.Type)
		if err := p.nats.PublishMsg(msg); err != nil {
			return err
		}
	}

	return nil
}
