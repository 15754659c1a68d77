package version

import (
	"time"

	"github.com/google/uuid"
)

// Version is a saved copy of a room's code
type Version struct {
	ID        uuid.UUID `json:"id"`
	RoomID    string    `json:"roomId"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Auto      bool      `json:"auto"`
	Timestamp time.Time `json:"timestamp"`
}

// ListVersionsResponse returns the newest versions of a room
type ListVersionsResponse struct {
	Versions []*Version `json:"versions"`
	Count    int        `json:"count"`
}
