package ws

import (
	"encoding/json"
	"fmt"
	"time"

	"chat-relay/domain"
)

// Inbound frame types.
const (
	frameLogin         = "login"
	frameSendMessage   = "send-message"
	frameCallUser      = "call-user"
	frameAnswerCall    = "answer-call"
	frameCallCandidate = "call-candidate"
)

type loginFrame struct {
	Username string `json:"username"`
}

type sendMessageFrame struct {
	To      string `json:"to"`
	Content string `json:"content"`
	IsGroup bool   `json:"isGroup"`
}

type callFrame struct {
	To        string          `json:"to"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

type receiveMessageFrame struct {
	Type      string    `json:"type"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Content   string    `json:"content"`
	IsGroup   bool      `json:"isGroup"`
	Timestamp time.Time `json:"timestamp"`
}

type signalingFrame struct {
	Type      string          `json:"type"`
	From      string          `json:"from"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

type ackFrame struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// encodeEnvelope maps a routed envelope onto its outbound wire frame.
func encodeEnvelope(env domain.Envelope) ([]byte, error) {
	switch env.Kind {
	case domain.PayloadChat:
		return json.Marshal(receiveMessageFrame{
			Type:      "receive-message",
			Sender:    string(env.SenderID),
			Receiver:  env.Address.Target,
			Content:   string(env.Body),
			IsGroup:   env.Address.Kind == domain.AddressRoom,
			Timestamp: env.CreatedAt,
		})
	case domain.PayloadCallOffer:
		return json.Marshal(signalingFrame{
			Type:  "incoming-call",
			From:  string(env.SenderID),
			Offer: json.RawMessage(env.Body),
		})
	case domain.PayloadCallAnswer:
		return json.Marshal(signalingFrame{
			Type:   "call-answer",
			From:   string(env.SenderID),
			Answer: json.RawMessage(env.Body),
		})
	case domain.PayloadCallCandidate:
		return json.Marshal(signalingFrame{
			Type:      "call-candidate",
			From:      string(env.SenderID),
			Candidate: json.RawMessage(env.Body),
		})
	}
	return nil, fmt.Errorf("unknown payload kind %q", env.Kind)
}
