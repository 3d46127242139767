package domain

import "time"

// MaxUsersPerRoom bounds room capacity. Calls are strictly two-party.
const MaxUsersPerRoom = 2

// Room holds the state of one call session. Participants is ordered: the
// first entry is always the creator. A Room exists iff it has at least one
// participant.
type Room struct {
	Code         RoomCode
	Participants []string
	CreatorConn  ConnectionID
	CreatedAt    time.Time
}

// Creator returns the username of the room creator.
func (r *Room) Creator() string {
	if len(r.Participants) == 0 {
		return ""
	}
	return r.Participants[0]
}

// IsFull reports whether the room has reached capacity.
func (r *Room) IsFull() bool {
	return len(r.Participants) >= MaxUsersPerRoom
}

// HasParticipant reports whether username occupies this room.
func (r *Room) HasParticipant(username string) bool {
	for _, p := range r.Participants {
		if p == username {
			return true
		}
	}
	return false
}
