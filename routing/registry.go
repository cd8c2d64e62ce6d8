// Package routing implements the presence core of the relay: the connection
// registry, the room membership resolver, the fanout router and the call
// signaling relay. It orchestrates delivery without containing wire-protocol
// or storage logic.
package routing

import (
	"log/slog"
	"sync"

	"chat-relay/contract"
	"chat-relay/domain"
)

// Registry maps each logged-in user to their open connections. A user may
// hold several connections at once (multi-device); a user with zero
// connections is absent from the registry entirely.
//
// Connections per user are kept in registration order, so a snapshot taken
// during one dispatch iterates deterministically.
type Registry struct {
	mu     sync.RWMutex
	byUser map[domain.UserID][]contract.Connection
	owners map[string]domain.UserID // connection id -> owning user
	log    *slog.Logger
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		byUser: make(map[domain.UserID][]contract.Connection),
		owners: make(map[string]domain.UserID),
		log:    log,
	}
}

// Register adds a connection to the user's set. Registering a connection that
// is already present is a no-op, so a replayed login frame cannot duplicate
// deliveries.
func (r *Registry) Register(user domain.UserID, conn contract.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, owned := r.owners[conn.ID()]; owned {
		return
	}
	r.owners[conn.ID()] = user
	r.byUser[user] = append(r.byUser[user], conn)
	r.log.Debug("connection registered",
		"user", string(user),
		"conn", conn.ID(),
		"connections", len(r.byUser[user]))
}

// Unregister removes the connection from whichever user owns it and prunes
// the user entry when their last connection drops. Unknown connections are
// ignored.
func (r *Registry) Unregister(conn contract.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, owned := r.owners[conn.ID()]
	if !owned {
		return
	}
	delete(r.owners, conn.ID())

	conns := r.byUser[user]
	for i, c := range conns {
		if c.ID() == conn.ID() {
			conns = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(conns) == 0 {
		delete(r.byUser, user)
	} else {
		r.byUser[user] = conns
	}
	r.log.Debug("connection unregistered",
		"user", string(user),
		"conn", conn.ID(),
		"connections", len(conns))
}

// ConnectionsFor returns a snapshot of the user's live connections in
// registration order. The copy keeps fanout iteration safe against a
// concurrent unregister. Unknown users yield an empty slice, never an error.
func (r *Registry) ConnectionsFor(user domain.UserID) []contract.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := r.byUser[user]
	snapshot := make([]contract.Connection, len(conns))
	copy(snapshot, conns)
	return snapshot
}

// Owner reports which user a connection is registered under.
func (r *Registry) Owner(conn contract.Connection) (domain.UserID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.owners[conn.ID()]
	return user, ok
}

// Size returns the current number of present users and open connections,
// used by telemetry reporting.
func (r *Registry) Size() (users, connections int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser), len(r.owners)
}
