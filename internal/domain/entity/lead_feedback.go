package entity

import "time"

// LeadFeedback comentario en el hilo de seguimiento de un lead.
type LeadFeedback struct {
	ID        string
	LeadID    string
	UserID    string
	Message   string
	CreatedAt time.Time
}
