package routing

import (
	"context"
	"log/slog"

	"chat-relay/domain"
)

// MessageStore is the slice of the external message storage the router
// needs: persistence of delivery records.
type MessageStore interface {
	StoreRecord(record domain.DeliveryRecord) error
}

// Censor sanitizes chat bodies before they are persisted or delivered.
type Censor interface {
	Sanitize(content string) string
}

// Router fans an envelope out to every live connection of its recipients,
// exactly once per connection.
//
// Ordering: Deliver is synchronous through recipient resolution and push
// issuance, so for a single sender envelopes reach each recipient connection
// in call order. Nothing is guaranteed across concurrent senders.
type Router struct {
	registry *Registry
	resolver *Resolver
	messages MessageStore
	censor   Censor
	log      *slog.Logger
}

// NewRouter wires the fanout router. censor may be nil to disable
// moderation.
func NewRouter(registry *Registry, resolver *Resolver, messages MessageStore, censor Censor, log *slog.Logger) *Router {
	return &Router{
		registry: registry,
		resolver: resolver,
		messages: messages,
		censor:   censor,
		log:      log,
	}
}

// Deliver routes one envelope. Chat payloads additionally produce exactly one
// DeliveryRecord, constructed before any push is issued and handed to storage
// asynchronously: delivery never blocks on, and never fails because of,
// persistence. Zero resolved recipients completes as a no-op.
func (r *Router) Deliver(ctx context.Context, env domain.Envelope) {
	if env.Kind == domain.PayloadChat && r.censor != nil {
		env.Body = []byte(r.censor.Sanitize(string(env.Body)))
	}

	recipients := r.recipients(ctx, env)

	if env.Kind == domain.PayloadChat {
		record := domain.NewDeliveryRecord(env)
		go r.persist(record)
	}

	for _, user := range recipients {
		r.pushToUser(user, env)
	}
}

// recipients resolves the envelope address to a set of users.
//
// Direct envelopes include the sender, so the sender's other open sessions
// observe the sent message (multi-device echo). Room envelopes use plain
// membership; the sender is not force-included beyond being a member.
func (r *Router) recipients(ctx context.Context, env domain.Envelope) []domain.UserID {
	switch env.Address.Kind {
	case domain.AddressDirect:
		target := domain.UserID(env.Address.Target)
		if target == env.SenderID {
			return []domain.UserID{env.SenderID}
		}
		return []domain.UserID{env.SenderID, target}
	case domain.AddressRoom:
		return r.resolver.MembersOf(ctx, domain.RoomID(env.Address.Target))
	}
	r.log.Warn("envelope with unknown address kind dropped", "sender", string(env.SenderID))
	return nil
}

// pushToUser sends the envelope to each of the user's live connections. A
// connection closing between resolution and send is a best-effort no-op;
// sibling deliveries proceed. Offline users are silently skipped.
func (r *Router) pushToUser(user domain.UserID, env domain.Envelope) {
	for _, conn := range r.registry.ConnectionsFor(user) {
		if err := conn.TrySend(env); err != nil {
			r.log.Debug("push skipped",
				"user", string(user),
				"conn", conn.ID(),
				"error", err)
		}
	}
}

func (r *Router) persist(record domain.DeliveryRecord) {
	if err := r.messages.StoreRecord(record); err != nil {
		r.log.Error("failed to persist delivery record",
			"record", record.ID.String(),
			"sender", string(record.Sender),
			"error", err)
	}
}
