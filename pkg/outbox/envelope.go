package outbox

import (
	"encoding/json"
	"time"
)

// PayloadEnvelope is the versioned wrapper stored in the outbox row and
// published verbatim to the broker.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"event_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}
