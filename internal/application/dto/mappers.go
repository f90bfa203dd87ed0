package dto

import "github.com/jhoicas/crm-api/internal/domain/entity"

// FromLead convierte la entidad a su salida HTTP.
func FromLead(l *entity.Lead) LeadResponse {
	tags := l.Tags
	if tags == nil {
		tags = []string{}
	}
	return LeadResponse{
		ID:          l.ID,
		Name:        l.Name,
		Email:       l.Email,
		Phone:       l.Phone,
		Company:     l.Company,
		Value:       l.Value,
		Status:      l.Status,
		Tags:        tags,
		AssignedTo:  l.AssignedTo,
		OwnerUserID: l.OwnerUserID,
		Notes:       l.Notes,
		Source:      l.Source,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

// FromLeads convierte un listado.
func FromLeads(list []*entity.Lead) []LeadResponse {
	out := make([]LeadResponse, 0, len(list))
	for _, l := range list {
		out = append(out, FromLead(l))
	}
	return out
}

// FromSale convierte la entidad a su salida HTTP.
func FromSale(s *entity.Sale) SaleResponse {
	tags := s.Tags
	if tags == nil {
		tags = []string{}
	}
	return SaleResponse{
		ID:              s.ID,
		CustomerName:    s.CustomerName,
		CustomerEmail:   s.CustomerEmail,
		CustomerPhone:   s.CustomerPhone,
		Product:         s.Product,
		Value:           s.Value,
		Status:          s.Status,
		Tags:            tags,
		AppointmentDate: s.AppointmentDate,
		CompletedAt:     s.CompletedAt,
		UserID:          s.UserID,
		Notes:           s.Notes,
	}
}

// FromStage convierte una columna.
func FromStage(s entity.KanbanStage) StageDTO {
	return StageDTO{ID: s.ID, Name: s.Name, Color: s.Color}
}

// FromFeedback convierte un comentario.
func FromFeedback(f *entity.LeadFeedback) FeedbackResponse {
	return FeedbackResponse{ID: f.ID, LeadID: f.LeadID, UserID: f.UserID, Message: f.Message, CreatedAt: f.CreatedAt}
}

// FromWebhook mapea la integración con su cantidad de leads recibidos.
func FromWebhook(w *entity.Webhook, received int) WebhookResponse {
	events := w.Events
	if events == nil {
		events = []string{}
	}
	return WebhookResponse{
		ID:            w.ID,
		Name:          w.Name,
		Type:          w.Type,
		URL:           w.URL,
		Method:        w.Method,
		Events:        events,
		IsActive:      w.IsActive,
		ReceivedLeads: received,
		CreatedAt:     w.CreatedAt,
	}
}
