package dto

import "time"

// CreateWebhookRequest alta de una integración.
type CreateWebhookRequest struct {
	Name           string   `json:"name" validate:"required,max=120"`
	Type           string   `json:"type" validate:"required,oneof=incoming outgoing"`
	DestinationURL string   `json:"destinationUrl" validate:"omitempty,url"`
	Method         string   `json:"method" validate:"omitempty,oneof=GET POST PUT"`
	Events         []string `json:"events"`
}

// WebhookResponse salida de una integración.
type WebhookResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	URL           string    `json:"url"`
	Method        string    `json:"method"`
	Events        []string  `json:"events"`
	IsActive      bool      `json:"isActive"`
	ReceivedLeads int       `json:"receivedLeads"`
	CreatedAt     time.Time `json:"createdAt"`
}
