package routing

import (
	"context"
	"log/slog"

	"chat-relay/domain"
)

// Relay is the call-signaling specialization of delivery: strict
// point-to-point, no persistence, and never echoed back to the caller.
type Relay struct {
	registry *Registry
	log      *slog.Logger
}

func NewRelay(registry *Registry, log *slog.Logger) *Relay {
	return &Relay{registry: registry, log: log}
}

// Relay pushes a signaling envelope to every live connection of the target
// user. The sender's own connections are excluded even when sender and
// target coincide. An offline target is a silent no-op; telling the caller
// the callee is unreachable is a higher-level concern.
func (r *Relay) Relay(ctx context.Context, env domain.Envelope) {
	if env.Address.Kind != domain.AddressDirect {
		r.log.Warn("signaling envelope with non-direct address dropped",
			"sender", string(env.SenderID),
			"kind", string(env.Kind))
		return
	}
	if !env.Kind.IsSignaling() {
		r.log.Warn("non-signaling envelope handed to relay dropped",
			"sender", string(env.SenderID),
			"kind", string(env.Kind))
		return
	}

	target := domain.UserID(env.Address.Target)
	if target == env.SenderID {
		return
	}

	for _, conn := range r.registry.ConnectionsFor(target) {
		if err := conn.TrySend(env); err != nil {
			r.log.Debug("signal push skipped",
				"target", string(target),
				"conn", conn.ID(),
				"error", err)
		}
	}
}
