package signal

import (
	"encoding/json"
)

// Inbound event types.
const (
	EventCreateRoom   = "create-room"
	EventJoinRoom     = "join-room"
	EventOffer        = "offer"
	EventAnswer       = "answer"
	EventCallEnded    = "call-ended"
	EventICECandidate = "icecandidate"
	EventMessage      = "message"
	EventPresenceFlag = "pv"
	EventClearUsers   = "clearUsers"
)

// Outbound event types.
const (
	EventAck              = "ack"
	EventAllUsers         = "allusers"
	EventAllMessages      = "allmessages"
	EventUserJoined       = "user-joined"
	EventPeerDisconnected = "peer-disconnected"
)

// Envelope is the wire frame for every message in either direction. A
// request carrying a non-zero Ack receives exactly one EventAck reply with
// the same Ack value; that reply is the callback channel of the protocol.
type Envelope struct {
	Type    string          `json:"type"`
	Ack     uint64          `json:"ack,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type CreateRoomRequest struct {
	Username string `json:"username"`
}

type CreateRoomResponse struct {
	RoomCode string `json:"roomCode"`
}

type JoinRoomRequest struct {
	Username string `json:"username"`
	RoomCode string `json:"roomCode"`
}

type JoinRoomResponse struct {
	Success   bool   `json:"success"`
	OtherUser string `json:"otherUser"`
}

// ErrorResponse travels inside an ack payload; errors are never surfaced
// as transport faults.
type ErrorResponse struct {
	Error string `json:"error"`
}

// OfferPayload and AnswerPayload are decoded only far enough to resolve
// routing. The negotiation blobs themselves stay opaque and are forwarded
// verbatim.
type OfferPayload struct {
	From  string          `json:"from"`
	To    string          `json:"to"`
	Offer json.RawMessage `json:"offer"`
}

type AnswerPayload struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Answer json.RawMessage `json:"answer"`
}
