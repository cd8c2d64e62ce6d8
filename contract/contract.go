package contract

import (
	"context"
	"reflect"

	"chat-relay/domain"
)

// Connection is one live transport connection. The transport layer owns it;
// the registry and router only hold references. A connection stops accepting
// sends the instant it closes.
type Connection interface {
	// ID uniquely identifies the connection for the lifetime of the process.
	ID() string
	// TrySend queues an envelope for delivery without blocking. It returns an
	// error when the connection is closed or its buffer is full; callers on
	// the fanout path swallow that error per recipient.
	TrySend(env domain.Envelope) error
}

type IRegistry interface {
	Register(user domain.UserID, conn Connection)
	Unregister(conn Connection)
	ConnectionsFor(user domain.UserID) []Connection
}

type IResolver interface {
	MembersOf(ctx context.Context, room domain.RoomID) []domain.UserID
	JoinUserToKnownRooms(ctx context.Context, user domain.UserID) error
	Refresh(room domain.RoomID)
}

type IRouter interface {
	Deliver(ctx context.Context, env domain.Envelope)
}

type IRelay interface {
	Relay(ctx context.Context, env domain.Envelope)
}

// Worker doesn't protect itself; the supervisor does.
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker,
// used for logging and supervision without forcing a naming method onto
// the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
