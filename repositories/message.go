package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"chat-relay/domain"
)

type IMessageRepository interface {
	StoreRecord(record domain.DeliveryRecord) error
	FindBetween(userA, userB domain.UserID) ([]domain.DeliveryRecord, error)
	FindByRoom(room domain.RoomID) ([]domain.DeliveryRecord, error)
}

// diskRecord is the on-disk shape of a delivery record.
type diskRecord struct {
	ID       string `json:"id"`
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Content  string `json:"content"`
	IsGroup  bool   `json:"is_group"`
	At       int64  `json:"at"`
}

type MessageRepository struct {
	db    *badger.DB
	log   *slog.Logger
	limit *int
}

// NewMessageRepository builds the history store. A nil limit means history
// queries return every stored record for the conversation.
func NewMessageRepository(db *badger.DB, log *slog.Logger, limit *int) *MessageRepository {
	return &MessageRepository{db: db, log: log, limit: limit}
}

// StoreRecord persists one delivery record. The key embeds the conversation,
// a 19-digit zero-padded timestamp and the record id so that:
//  1. a prefix scan yields one conversation in chronological order, and
//  2. two records written in the same nanosecond cannot collide.
func (m *MessageRepository) StoreRecord(record domain.DeliveryRecord) error {
	key := recordKey(record)
	data, err := json.Marshal(fromRecord(record))
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// FindBetween returns the direct history between two users, oldest first.
// Both directions share one conversation key, so a single scan covers them.
func (m *MessageRepository) FindBetween(userA, userB domain.UserID) ([]domain.DeliveryRecord, error) {
	return m.scan(directPrefix(userA, userB))
}

// FindByRoom returns the history of a room, oldest first.
func (m *MessageRepository) FindByRoom(room domain.RoomID) ([]domain.DeliveryRecord, error) {
	return m.scan(fmt.Sprintf("room:%s:", room))
}

// scan iterates the prefix newest-first so a limit keeps the most recent
// records, then flips the result back to chronological order.
func (m *MessageRepository) scan(prefixStr string) ([]domain.DeliveryRecord, error) {
	var disks []diskRecord
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible timestamp, then walk backwards.
		seekKey := append([]byte{}, prefix...)
		seekKey = append(seekKey, []byte("9999999999999999999")...)

		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if m.limit != nil && len(disks) == *m.limit {
				m.log.Debug("history limit reached", "limit", *m.limit)
				break
			}
			var dr diskRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &dr)
			})
			if err != nil {
				return err
			}
			disks = append(disks, dr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	records := lo.Map(disks, func(dr diskRecord, _ int) domain.DeliveryRecord {
		return toRecord(dr)
	})
	return lo.Reverse(records), nil
}

func recordKey(record domain.DeliveryRecord) string {
	var prefix string
	if record.IsGroup {
		prefix = fmt.Sprintf("room:%s:", record.Receiver)
	} else {
		prefix = directPrefix(record.Sender, domain.UserID(record.Receiver))
	}
	return fmt.Sprintf("%s%019d:%s", prefix, record.CreatedAt.UnixNano(), record.ID)
}

// directPrefix orders the pair lexicographically so that alice→bob and
// bob→alice land under the same conversation key.
func directPrefix(a, b domain.UserID) string {
	first, second := string(a), string(b)
	if strings.Compare(first, second) > 0 {
		first, second = second, first
	}
	return fmt.Sprintf("dm:%s|%s:", first, second)
}

func fromRecord(record domain.DeliveryRecord) diskRecord {
	return diskRecord{
		ID:       record.ID.String(),
		Sender:   string(record.Sender),
		Receiver: record.Receiver,
		Content:  record.Content,
		IsGroup:  record.IsGroup,
		At:       record.CreatedAt.UnixNano(),
	}
}

func toRecord(dr diskRecord) domain.DeliveryRecord {
	id, err := uuid.Parse(dr.ID)
	if err != nil {
		id = uuid.Nil
	}
	return domain.DeliveryRecord{
		ID:        id,
		Sender:    domain.UserID(dr.Sender),
		Receiver:  dr.Receiver,
		Content:   dr.Content,
		IsGroup:   dr.IsGroup,
		CreatedAt: time.Unix(0, dr.At).UTC(),
	}
}
