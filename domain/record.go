package domain

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryRecord is the persisted trace of a chat envelope. Created exactly
// once per chat envelope, never mutated afterwards. Retention is an external
// concern.
type DeliveryRecord struct {
	ID        uuid.UUID
	Sender    UserID
	Receiver  string
	Content   string
	IsGroup   bool
	CreatedAt time.Time
}

// NewDeliveryRecord builds the record for a chat envelope. The receiver field
// holds the peer username for direct messages and the room id for group ones,
// mirroring how history queries address conversations.
func NewDeliveryRecord(env Envelope) DeliveryRecord {
	return DeliveryRecord{
		ID:        uuid.New(),
		Sender:    env.SenderID,
		Receiver:  env.Address.Target,
		Content:   string(env.Body),
		IsGroup:   env.Address.Kind == AddressRoom,
		CreatedAt: env.CreatedAt,
	}
}
