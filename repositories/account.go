// Package repositories holds the BadgerDB-backed stores the relay consumes:
// accounts, groups and message history. Values are encoded as JSON; keys are
// prefixed per store so the stores can share one database.
package repositories

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"chat-relay/errors"
)

const accountPrefix = "account:"

type IAccountRepository interface {
	CreateAccount(username, passwordHash string) (string, error)
	GetByUsername(username string) (Account, error)
	ExistsByUsername(username string) (bool, error)
	ListUsernames(excluding string) ([]string, error)
}

// Account is the repository-level representation of a registered user.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

type AccountRepository struct {
	db *badger.DB
}

func NewAccountRepository(db *badger.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// CreateAccount persists a new account and returns its generated ID.
// The username is the key, so uniqueness is enforced inside the transaction.
func (r *AccountRepository) CreateAccount(username, passwordHash string) (string, error) {
	account := Account{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	data, err := json.Marshal(account)
	if err != nil {
		return "", fmt.Errorf("marshal account: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		key := []byte(accountPrefix + username)
		if _, err := txn.Get(key); err == nil {
			return errors.ErrUserAlreadyExists
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return "", err
	}
	return account.ID, nil
}

func (r *AccountRepository) GetByUsername(username string) (Account, error) {
	var account Account
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(accountPrefix + username))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &account)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return Account{}, errors.ErrUserNotFound
		}
		return Account{}, err
	}
	return account, nil
}

func (r *AccountRepository) ExistsByUsername(username string) (bool, error) {
	_, err := r.GetByUsername(username)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errors.ErrUserNotFound):
		return false, nil
	default:
		return false, err
	}
}

// ListUsernames returns every registered username except the excluded one,
// in key order. Used by the contact-list API.
func (r *AccountRepository) ListUsernames(excluding string) ([]string, error) {
	var usernames []string
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(accountPrefix)
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			username := strings.TrimPrefix(string(it.Item().Key()), accountPrefix)
			if username == excluding {
				continue
			}
			usernames = append(usernames, username)
		}
		return nil
	})
	return usernames, err
}
