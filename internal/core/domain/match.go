package domain

import (
	"time"

	"github.com/google/uuid"
)

// Preference is a user's saved search criteria. Owned by an external user
// entity; this worker only reads active preferences to generate matches.
type Preference struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	City        string
	CountryCode string
	MinPrice    *int64
	MaxPrice    int64
	MinRooms    *float64
	MaxRooms    *float64
	MinSizeSqm  *int
	MaxSizeSqm  *int
	PetFriendly bool
	Furnished   *bool
	Keywords    []string
	IsActive    bool
}

// NotificationChannelNone marks a match no notifier has picked up yet.
const NotificationChannelNone = "none"

// Match links a user's preference to a canonical listing with a score.
// Unique per (UserID, ListingID).
type Match struct {
	ID                  uuid.UUID
	UserID              uuid.UUID
	ListingID           uuid.UUID
	PreferenceID        uuid.UUID
	Score               float64
	Notified            bool
	NotifiedAt          *time.Time
	NotificationChannel string
	CreatedAt           time.Time
}
