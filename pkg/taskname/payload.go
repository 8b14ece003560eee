package taskname

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// ClientPayload addresses a task to one client.
type ClientPayload struct {
	ClientID string `json:"client_id"`
	WeekID   string `json:"week_id,omitempty"`
	Force    bool   `json:"force,omitempty"`
}

// RecognitionPayload carries a champion notification.
type RecognitionPayload struct {
	ClientID        string `json:"client_id"`
	AchievementType string `json:"achievement_type"`
}

// NewTask marshals payload as JSON into a task of the given type.
func NewTask(taskType string, payload any, opts ...asynq.Option) (*asynq.Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", taskType, err)
	}
	return asynq.NewTask(taskType, b, opts...), nil
}

// Decode unmarshals a task payload. Malformed payloads are never retried.
func Decode(t *asynq.Task, v any) error {
	if err := json.Unmarshal(t.Payload(), v); err != nil {
		return fmt.Errorf("invalid %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	return nil
}
