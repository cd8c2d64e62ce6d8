package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"chat-relay/domain"
	"chat-relay/errors"
)

const groupPrefix = "group:"

type IGroupRepository interface {
	CreateGroup(name string, members []domain.UserID) (domain.Group, error)
	GetGroup(room domain.RoomID) (domain.Group, error)
	FindGroupsContainingMember(user domain.UserID) ([]domain.Group, error)
}

// diskGroup mirrors domain.Group for storage, keeping the on-disk layout
// independent from the domain type.
type diskGroup struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}

type GroupRepository struct {
	db *badger.DB
}

func NewGroupRepository(db *badger.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// CreateGroup persists a group with a generated room id. Duplicate member
// entries are collapsed so fanout never resolves a user twice.
func (r *GroupRepository) CreateGroup(name string, members []domain.UserID) (domain.Group, error) {
	dg := diskGroup{
		ID:        uuid.NewString(),
		Name:      name,
		Members:   lo.Uniq(toStrings(members)),
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(dg)
	if err != nil {
		return domain.Group{}, fmt.Errorf("marshal group: %w", err)
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(groupPrefix+dg.ID), data)
	})
	if err != nil {
		return domain.Group{}, err
	}
	return toGroup(dg), nil
}

func (r *GroupRepository) GetGroup(room domain.RoomID) (domain.Group, error) {
	var dg diskGroup
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(groupPrefix + string(room)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &dg)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domain.Group{}, errors.ErrGroupNotFound
		}
		return domain.Group{}, err
	}
	return toGroup(dg), nil
}

// FindGroupsContainingMember scans all groups and keeps the ones listing the
// user. Group counts are small enough that a prefix scan beats maintaining a
// member index.
func (r *GroupRepository) FindGroupsContainingMember(user domain.UserID) ([]domain.Group, error) {
	var groups []domain.Group
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(groupPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var dg diskGroup
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &dg)
			})
			if err != nil {
				return err
			}
			group := toGroup(dg)
			if group.Contains(user) {
				groups = append(groups, group)
			}
		}
		return nil
	})
	return groups, err
}

func toGroup(dg diskGroup) domain.Group {
	return domain.Group{
		ID:   domain.RoomID(dg.ID),
		Name: dg.Name,
		Members: lo.Map(dg.Members, func(m string, _ int) domain.UserID {
			return domain.UserID(m)
		}),
	}
}

func toStrings(members []domain.UserID) []string {
	return lo.Map(members, func(m domain.UserID, _ int) string {
		return string(m)
	})
}
