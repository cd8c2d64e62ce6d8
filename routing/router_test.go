package routing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chat-relay/domain"
)

func chatEnvelope(sender domain.UserID, address domain.Address, content string) domain.Envelope {
	return domain.Envelope{
		SenderID:  sender,
		Address:   address,
		Kind:      domain.PayloadChat,
		Body:      []byte(content),
		CreatedAt: time.Now().UTC(),
	}
}

func TestRouter_Direct_Delivers_To_All_Sessions_Of_Both_Sides(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testLogger())
	resolver := NewResolver(&fakeGroupStore{}, testLogger())
	store := &fakeMessageStore{}
	router := NewRouter(registry, resolver, store, nil, testLogger())

	// Given alice has two sessions and bob one
	a1, a2, b1 := newFakeConn("A1"), newFakeConn("A2"), newFakeConn("B1")
	registry.Register("alice", a1)
	registry.Register("alice", a2)
	registry.Register("bob", b1)

	// When alice sends bob a direct message
	router.Deliver(context.Background(), chatEnvelope("alice", domain.DirectTo("bob"), "hi"))

	// Then exactly three pushes happen: both alice sessions and bob's
	req.Len(a1.pushed(), 1)
	req.Len(a2.pushed(), 1)
	req.Len(b1.pushed(), 1)
	req.Equal("hi", string(b1.pushed()[0].Body))

	// And exactly one record is persisted
	req.Eventually(func() bool { return len(store.stored()) == 1 },
		time.Second, 10*time.Millisecond)
	record := store.stored()[0]
	req.Equal(domain.UserID("alice"), record.Sender)
	req.Equal("bob", record.Receiver)
	req.Equal("hi", record.Content)
	req.False(record.IsGroup)
}

func TestRouter_Room_Skips_Offline_Members(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testLogger())
	resolver := NewResolver(&fakeGroupStore{groups: map[domain.RoomID]domain.Group{
		"R": {ID: "R", Name: "general", Members: []domain.UserID{"alice", "bob", "carol"}},
	}}, testLogger())
	store := &fakeMessageStore{}
	router := NewRouter(registry, resolver, store, nil, testLogger())

	// Given only alice and bob are connected; carol is a member but offline
	a1, b1 := newFakeConn("A1"), newFakeConn("B1")
	registry.Register("alice", a1)
	registry.Register("bob", b1)

	// When alice messages the room
	router.Deliver(context.Background(), chatEnvelope("alice", domain.ToRoom("R"), "yo"))

	// Then connected members got one push each, carol was silently skipped
	req.Len(a1.pushed(), 1)
	req.Len(b1.pushed(), 1)

	// And one record with isGroup set
	req.Eventually(func() bool { return len(store.stored()) == 1 },
		time.Second, 10*time.Millisecond)
	record := store.stored()[0]
	req.Equal("R", record.Receiver)
	req.True(record.IsGroup)
}

func TestRouter_Room_Without_Members_Is_A_NoOp(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testLogger())
	resolver := NewResolver(&fakeGroupStore{}, testLogger())
	store := &fakeMessageStore{}
	router := NewRouter(registry, resolver, store, nil, testLogger())

	// When addressing a room nobody created
	router.Deliver(context.Background(), chatEnvelope("alice", domain.ToRoom("empty"), "anyone?"))

	// Then the call completes without error and the record is still written
	req.Eventually(func() bool { return len(store.stored()) == 1 },
		time.Second, 10*time.Millisecond)
}

func TestRouter_Chat_Produces_Exactly_One_Record(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testLogger())
	resolver := NewResolver(&fakeGroupStore{}, testLogger())
	store := &fakeMessageStore{}
	router := NewRouter(registry, resolver, store, nil, testLogger())

	b1 := newFakeConn("B1")
	registry.Register("bob", b1)

	for i := 0; i < 5; i++ {
		router.Deliver(context.Background(), chatEnvelope("alice", domain.DirectTo("bob"), fmt.Sprintf("m%d", i)))
	}

	req.Eventually(func() bool { return len(store.stored()) == 5 },
		time.Second, 10*time.Millisecond)
	req.Len(b1.pushed(), 5)
}

func TestRouter_Signaling_Kinds_Are_Never_Persisted(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testLogger())
	resolver := NewResolver(&fakeGroupStore{}, testLogger())
	store := &fakeMessageStore{}
	router := NewRouter(registry, resolver, store, nil, testLogger())

	b1 := newFakeConn("B1")
	registry.Register("bob", b1)

	env := chatEnvelope("alice", domain.DirectTo("bob"), "{}")
	env.Kind = domain.PayloadCallOffer
	router.Deliver(context.Background(), env)

	req.Len(b1.pushed(), 1)
	req.Never(func() bool { return len(store.stored()) > 0 },
		100*time.Millisecond, 10*time.Millisecond)
}

func TestRouter_Persistence_Failure_Does_Not_Prevent_Delivery(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testLogger())
	resolver := NewResolver(&fakeGroupStore{}, testLogger())
	store := &fakeMessageStore{err: fmt.Errorf("disk full")}
	router := NewRouter(registry, resolver, store, nil, testLogger())

	b1 := newFakeConn("B1")
	registry.Register("bob", b1)

	// When the store rejects the record
	router.Deliver(context.Background(), chatEnvelope("alice", domain.DirectTo("bob"), "hi"))

	// Then live delivery happened anyway
	req.Len(b1.pushed(), 1)
}

func TestRouter_Closed_Connection_Does_Not_Abort_Siblings(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testLogger())
	resolver := NewResolver(&fakeGroupStore{}, testLogger())
	router := NewRouter(registry, resolver, &fakeMessageStore{}, nil, testLogger())

	// Given alice's first session closed between resolution and send
	a1, a2, b1 := newFakeConn("A1"), newFakeConn("A2"), newFakeConn("B1")
	a1.closed = true
	registry.Register("alice", a1)
	registry.Register("alice", a2)
	registry.Register("bob", b1)

	router.Deliver(context.Background(), chatEnvelope("alice", domain.DirectTo("bob"), "hi"))

	// Then the dead connection is skipped and the others still get the push
	req.Empty(a1.pushed())
	req.Len(a2.pushed(), 1)
	req.Len(b1.pushed(), 1)
}

func TestRouter_Direct_To_Self_Delivers_Once_Per_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testLogger())
	resolver := NewResolver(&fakeGroupStore{}, testLogger())
	router := NewRouter(registry, resolver, &fakeMessageStore{}, nil, testLogger())

	a1, a2 := newFakeConn("A1"), newFakeConn("A2")
	registry.Register("alice", a1)
	registry.Register("alice", a2)

	// When alice messages herself
	router.Deliver(context.Background(), chatEnvelope("alice", domain.DirectTo("alice"), "note"))

	// Then each session sees it exactly once
	req.Len(a1.pushed(), 1)
	req.Len(a2.pushed(), 1)
}

func TestRouter_FIFO_Per_Sender_On_Each_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testLogger())
	resolver := NewResolver(&fakeGroupStore{}, testLogger())
	router := NewRouter(registry, resolver, &fakeMessageStore{}, nil, testLogger())

	b1 := newFakeConn("B1")
	registry.Register("bob", b1)

	for i := 0; i < 10; i++ {
		router.Deliver(context.Background(), chatEnvelope("alice", domain.DirectTo("bob"), fmt.Sprintf("m%d", i)))
	}

	pushed := b1.pushed()
	req.Len(pushed, 10)
	for i, env := range pushed {
		req.Equal(fmt.Sprintf("m%d", i), string(env.Body))
	}
}

type fixedCensor struct{}

func (fixedCensor) Sanitize(string) string { return "****" }

func TestRouter_Sanitized_Content_Reaches_Both_Store_And_Wire(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testLogger())
	resolver := NewResolver(&fakeGroupStore{}, testLogger())
	store := &fakeMessageStore{}
	router := NewRouter(registry, resolver, store, fixedCensor{}, testLogger())

	b1 := newFakeConn("B1")
	registry.Register("bob", b1)

	router.Deliver(context.Background(), chatEnvelope("alice", domain.DirectTo("bob"), "rude"))

	// Then history and live delivery agree on the sanitized body
	req.Equal("****", string(b1.pushed()[0].Body))
	req.Eventually(func() bool { return len(store.stored()) == 1 },
		time.Second, 10*time.Millisecond)
	req.Equal("****", store.stored()[0].Content)
}
