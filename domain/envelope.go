package domain

import "time"

// PayloadKind discriminates what an envelope carries.
type PayloadKind string

const (
	PayloadChat          PayloadKind = "chat"
	PayloadCallOffer     PayloadKind = "call-offer"
	PayloadCallAnswer    PayloadKind = "call-answer"
	PayloadCallCandidate PayloadKind = "call-candidate"
)

// IsSignaling reports whether the kind belongs to call setup.
func (k PayloadKind) IsSignaling() bool {
	switch k {
	case PayloadCallOffer, PayloadCallAnswer, PayloadCallCandidate:
		return true
	}
	return false
}

// AddressKind tells whether an envelope targets a single user or a room.
type AddressKind int

const (
	AddressDirect AddressKind = iota
	AddressRoom
)

// Address is the routing destination of an envelope. Target holds a UserID
// for direct envelopes and a RoomID for room envelopes.
type Address struct {
	Kind   AddressKind
	Target string
}

func DirectTo(user UserID) Address {
	return Address{Kind: AddressDirect, Target: string(user)}
}

func ToRoom(room RoomID) Address {
	return Address{Kind: AddressRoom, Target: string(room)}
}

// Envelope is the normalized unit the router operates on. Immutable once
// constructed; the transport layer builds it from a decoded wire event.
type Envelope struct {
	SenderID  UserID
	Address   Address
	Kind      PayloadKind
	Body      []byte
	CreatedAt time.Time
}
