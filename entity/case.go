package entity

import "slices"

// Case is the part of a case record the messaging engine reads for access checks.
type Case struct {
	ID               string   `json:"id" bson:"_id"`
	Title            string   `json:"title" bson:"title"`
	CreatedBy        string   `json:"created_by" bson:"created_by"`
	AdminIDs         []string `json:"admin_ids" bson:"admin_ids"`
	SubConsultantIDs []string `json:"sub_consultant_ids" bson:"sub_consultant_ids"`
}

func (c *Case) HasAccess(userID string) bool {
	if userID == "" {
		return false
	}
	return c.CreatedBy == userID ||
		slices.Contains(c.AdminIDs, userID) ||
		slices.Contains(c.SubConsultantIDs, userID)
}
