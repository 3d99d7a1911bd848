package entity

import "time"

// Participant is a membership record, unique per (conversation, user).
type Participant struct {
	ConversationID string     `json:"conversation_id" bson:"conversation_id"`
	UserID         string     `json:"user_id" bson:"user_id"`
	Role           string     `json:"role" bson:"role"`
	JoinedAt       time.Time  `json:"joined_at" bson:"joined_at"`
	LastSeenAt     *time.Time `json:"last_seen_at" bson:"last_seen_at,omitempty"`
}

// ParticipantInfo is a roster entry enriched from the user directory.
type ParticipantInfo struct {
	UserID     string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	AvatarURL  string     `json:"avatar_url,omitempty"`
	JoinedAt   time.Time  `json:"joined_at"`
	LastSeenAt *time.Time `json:"last_seen_at"`
	IsOnline   bool       `json:"is_online"`
}
