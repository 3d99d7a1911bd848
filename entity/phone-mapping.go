package entity

import "time"

// PhoneCaseMapping routes a normalized phone number to a case. Last write wins.
type PhoneCaseMapping struct {
	Phone     string    `json:"phone" bson:"_id"`
	CaseID    string    `json:"case_id" bson:"case_id"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// InboundMessage is a WhatsApp message delivered by the gateway webhook.
type InboundMessage struct {
	From             string
	To               string
	Body             string
	ExternalID       string
	ProfileName      string
	MediaURL         string
	MediaContentType string
}

type OutboundResult struct {
	ExternalID string `json:"message_sid"`
	Status     string `json:"status"`
	Phone      string `json:"to"`
	CaseID     string `json:"case_id"`
	AutoMapped bool   `json:"auto_mapped"`
	MessageID  int64  `json:"message_id,omitempty"`
}

type GatewayAccount struct {
	SID          string `json:"account_sid"`
	FriendlyName string `json:"friendly_name"`
	Status       string `json:"status"`
	From         string `json:"from"`
}

// GatewayMessage is a message as recorded by the provider, listed for a phone number.
type GatewayMessage struct {
	SID       string `json:"sid"`
	From      string `json:"from"`
	To        string `json:"to"`
	Body      string `json:"content"`
	Status    string `json:"status"`
	Direction string `json:"direction"`
	Inbound   bool   `json:"is_from_client"`
	CreatedAt string `json:"created_at"`
}
