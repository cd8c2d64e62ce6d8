package routing

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"chat-relay/domain"
	"chat-relay/errors"
)

// GroupStore is the slice of the external group storage the resolver needs.
type GroupStore interface {
	GetGroup(room domain.RoomID) (domain.Group, error)
	FindGroupsContainingMember(user domain.UserID) ([]domain.Group, error)
}

// Resolver answers "who is in this room". Membership is read-mostly: entries
// are cached on demand and refreshed when a user logs in, never invalidated
// actively. A membership change made through group management takes effect
// the next time a member logs in or Refresh is called.
type Resolver struct {
	mu     sync.RWMutex
	groups GroupStore
	cache  map[domain.RoomID]map[domain.UserID]struct{}
	log    *slog.Logger
}

func NewResolver(groups GroupStore, log *slog.Logger) *Resolver {
	return &Resolver{
		groups: groups,
		cache:  make(map[domain.RoomID]map[domain.UserID]struct{}),
		log:    log,
	}
}

// MembersOf returns the member set of a room, sorted for deterministic
// fanout within one dispatch. An unknown room is a room with no members, not
// an error; storage failures degrade to an empty set and are logged, so a
// message to an unresolvable room becomes a no-op instead of failing the
// sender.
func (r *Resolver) MembersOf(ctx context.Context, room domain.RoomID) []domain.UserID {
	r.mu.RLock()
	cached, ok := r.cache[room]
	r.mu.RUnlock()
	if ok {
		return sortedMembers(cached)
	}

	group, err := r.groups.GetGroup(room)
	if err != nil {
		if !errors.Is(err, errors.ErrGroupNotFound) {
			r.log.Error("group lookup failed", "room", string(room), "error", err)
		}
		return nil
	}

	members := toSet(group.Members)
	r.mu.Lock()
	r.cache[room] = members
	r.mu.Unlock()
	return sortedMembers(members)
}

// JoinUserToKnownRooms re-reads every group containing the user and caches
// their member sets, so subsequent room fanout skips storage. Called on
// login; this is the refresh point of the staleness window. A storage
// failure here surfaces to the login caller instead of being swallowed.
func (r *Resolver) JoinUserToKnownRooms(ctx context.Context, user domain.UserID) error {
	groups, err := r.groups.FindGroupsContainingMember(user)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, group := range groups {
		r.cache[group.ID] = toSet(group.Members)
	}
	r.log.Debug("joined user to known rooms", "user", string(user), "rooms", len(groups))
	return nil
}

// Refresh drops the cached member set for a room; the next fanout re-reads
// storage.
func (r *Resolver) Refresh(room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, room)
}

func toSet(members []domain.UserID) map[domain.UserID]struct{} {
	set := make(map[domain.UserID]struct{}, len(members))
	for _, m := range members {
		set[m] = struct{}{}
	}
	return set
}

func sortedMembers(set map[domain.UserID]struct{}) []domain.UserID {
	members := make([]domain.UserID, 0, len(set))
	for m := range set {
		members = append(members, m)
	}
	slices.Sort(members)
	return members
}
