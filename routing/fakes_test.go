package routing

import (
	"io"
	"log/slog"
	"sync"

	"chat-relay/domain"
	"chat-relay/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeConn records every envelope pushed to it.
type fakeConn struct {
	id     string
	mu     sync.Mutex
	sent   []domain.Envelope
	closed bool
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) TrySend(env domain.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.ErrConnectionClosed
	}
	c.sent = append(c.sent, env)
	return nil
}

func (c *fakeConn) pushed() []domain.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Envelope, len(c.sent))
	copy(out, c.sent)
	return out
}

// fakeGroupStore serves groups from memory and can be forced to fail.
type fakeGroupStore struct {
	groups map[domain.RoomID]domain.Group
	err    error
}

func (s *fakeGroupStore) GetGroup(room domain.RoomID) (domain.Group, error) {
	if s.err != nil {
		return domain.Group{}, s.err
	}
	group, ok := s.groups[room]
	if !ok {
		return domain.Group{}, errors.ErrGroupNotFound
	}
	return group, nil
}

func (s *fakeGroupStore) FindGroupsContainingMember(user domain.UserID) ([]domain.Group, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.Group
	for _, group := range s.groups {
		if group.Contains(user) {
			out = append(out, group)
		}
	}
	return out, nil
}

// fakeMessageStore counts stored records and can be forced to fail.
type fakeMessageStore struct {
	mu      sync.Mutex
	records []domain.DeliveryRecord
	err     error
}

func (s *fakeMessageStore) StoreRecord(record domain.DeliveryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, record)
	return nil
}

func (s *fakeMessageStore) stored() []domain.DeliveryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.DeliveryRecord, len(s.records))
	copy(out, s.records)
	return out
}
