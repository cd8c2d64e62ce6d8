package repositories

import (
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"chat-relay/errors"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Create_And_Get_Account(t *testing.T) {
	req := require.New(t)
	repository := NewAccountRepository(openTestDB(t))

	id, err := repository.CreateAccount("alice", "$argon2id$...")
	req.NoError(err)
	req.NotEmpty(id)

	account, err := repository.GetByUsername("alice")
	req.NoError(err)
	req.Equal(id, account.ID)
	req.Equal("alice", account.Username)
	req.Equal("$argon2id$...", account.PasswordHash)
	req.False(account.CreatedAt.IsZero())
}

func Test_Create_Duplicate_Username_Fails(t *testing.T) {
	req := require.New(t)
	repository := NewAccountRepository(openTestDB(t))

	_, err := repository.CreateAccount("alice", "hash1")
	req.NoError(err)

	_, err = repository.CreateAccount("alice", "hash2")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func Test_Get_Unknown_Account(t *testing.T) {
	req := require.New(t)
	repository := NewAccountRepository(openTestDB(t))

	_, err := repository.GetByUsername("nobody")
	req.ErrorIs(err, errors.ErrUserNotFound)

	exists, err := repository.ExistsByUsername("nobody")
	req.NoError(err)
	req.False(exists)
}

func Test_List_Usernames_Excludes_Caller(t *testing.T) {
	req := require.New(t)
	repository := NewAccountRepository(openTestDB(t))

	for _, name := range []string{"alice", "bob", "carol"} {
		_, err := repository.CreateAccount(name, "hash")
		req.NoError(err)
	}

	usernames, err := repository.ListUsernames("bob")
	req.NoError(err)
	req.Equal([]string{"alice", "carol"}, usernames)
}
