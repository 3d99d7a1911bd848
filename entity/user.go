package entity

import "time"

const RoleAdmin = "admin"

// User is a user directory record. LastActiveAt is maintained by the user service.
type User struct {
	ID           string     `json:"id" bson:"_id"`
	Name         string     `json:"name" bson:"full_name"`
	Email        string     `json:"email" bson:"email"`
	Role         string     `json:"role" bson:"role"`
	AvatarURL    string     `json:"avatar_url,omitempty" bson:"avatar_url,omitempty"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty" bson:"last_active_at,omitempty"`
}

// ActiveWithin reports whether the user was active during the last d.
func (u *User) ActiveWithin(d time.Duration, now time.Time) bool {
	if u.LastActiveAt == nil {
		return false
	}
	return u.LastActiveAt.After(now.Add(-d))
}

func (u *User) Info() *UserInfo {
	return &UserInfo{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		AvatarURL: u.AvatarURL,
	}
}

// UserInfo is the display shape of a user attached to messages and conversations.
type UserInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	AvatarURL string `json:"avatar,omitempty"`
}
