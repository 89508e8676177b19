package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RefreshRequest asks the worker to rebuild the cached snapshot for a cycle.
type RefreshRequest struct {
	ID          string    `json:"id"`
	Year        int       `json:"year"`
	RequestedBy string    `json:"requested_by,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewRefreshRequest(year int, requestedBy string) *RefreshRequest {
	return &RefreshRequest{
		ID:          uuid.NewString(),
		Year:        year,
		RequestedBy: requestedBy,
		Timestamp:   time.Now().UTC(),
	}
}

func (m *RefreshRequest) Validate() error {
	if _, err := uuid.Parse(m.ID); err != nil {
		return fmt.Errorf("invalid message id %q: %w", m.ID, err)
	}
	if m.Year <= 0 {
		return errors.New("refresh request without year")
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *RefreshRequest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RefreshRequestFromJSON decodes and validates a message body.
func RefreshRequestFromJSON(data []byte) (*RefreshRequest, error) {
	var msg RefreshRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
