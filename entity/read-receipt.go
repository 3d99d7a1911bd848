package entity

import "time"

type ReadReceipt struct {
	MessageID int64     `json:"message_id" bson:"message_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	ReadAt    time.Time `json:"read_at" bson:"read_at"`
}
