package entity

// UserAuth is the caller identity established by the auth collaborator.
type UserAuth struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

func (u *UserAuth) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
