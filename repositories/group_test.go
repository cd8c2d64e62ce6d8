package repositories

import (
	"testing"

	"github.com/stretchr/testify/require"

	"chat-relay/domain"
	"chat-relay/errors"
)

func Test_Create_And_Get_Group(t *testing.T) {
	req := require.New(t)
	repository := NewGroupRepository(openTestDB(t))

	created, err := repository.CreateGroup("general", []domain.UserID{"alice", "bob"})
	req.NoError(err)
	req.NotEmpty(created.ID)

	fetched, err := repository.GetGroup(created.ID)
	req.NoError(err)
	req.Equal("general", fetched.Name)
	req.Equal([]domain.UserID{"alice", "bob"}, fetched.Members)
}

func Test_Create_Group_Collapses_Duplicate_Members(t *testing.T) {
	req := require.New(t)
	repository := NewGroupRepository(openTestDB(t))

	created, err := repository.CreateGroup("general", []domain.UserID{"alice", "bob", "alice"})
	req.NoError(err)
	req.Equal([]domain.UserID{"alice", "bob"}, created.Members)
}

func Test_Get_Unknown_Group(t *testing.T) {
	req := require.New(t)
	repository := NewGroupRepository(openTestDB(t))

	_, err := repository.GetGroup("nowhere")
	req.ErrorIs(err, errors.ErrGroupNotFound)
}

func Test_Find_Groups_Containing_Member(t *testing.T) {
	req := require.New(t)
	repository := NewGroupRepository(openTestDB(t))

	_, err := repository.CreateGroup("general", []domain.UserID{"alice", "bob"})
	req.NoError(err)
	_, err = repository.CreateGroup("random", []domain.UserID{"bob", "carol"})
	req.NoError(err)
	_, err = repository.CreateGroup("alone", []domain.UserID{"carol"})
	req.NoError(err)

	groups, err := repository.FindGroupsContainingMember("bob")
	req.NoError(err)
	req.Len(groups, 2)
	for _, group := range groups {
		req.True(group.Contains("bob"))
	}

	groups, err = repository.FindGroupsContainingMember("nobody")
	req.NoError(err)
	req.Empty(groups)
}
