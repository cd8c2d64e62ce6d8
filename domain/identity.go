// Package domain contains the core concepts of the relay: identities,
// envelopes and delivery records. Entities carry no transport or storage
// logic.
package domain

// UserID is the opaque handle of a registered account.
type UserID string

// RoomID is the opaque handle of a group of users.
type RoomID string

// Group is a named set of users sharing room messages.
type Group struct {
	ID      RoomID   `json:"id"`
	Name    string   `json:"name"`
	Members []UserID `json:"members"`
}

// Contains reports whether the group lists the given user as a member.
func (g Group) Contains(user UserID) bool {
	for _, m := range g.Members {
		if m == user {
			return true
		}
	}
	return false
}
