package webhook

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/application/team"
	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
)

var sourceWebhookRe = regexp.MustCompile(`^Webhook #(\S+)$`)

// ConfigUseCase integraciones configuradas por el master del equipo.
type ConfigUseCase struct {
	webhooks repository.WebhookRepository
	leads    repository.LeadRepository
	team     *team.TeamUseCase
	baseURL  string
	now      func() time.Time
}

// NewConfigUseCase construye el caso de uso. baseURL es la URL pública del servicio.
func NewConfigUseCase(webhooks repository.WebhookRepository, leads repository.LeadRepository, teamUC *team.TeamUseCase, baseURL string) *ConfigUseCase {
	return &ConfigUseCase{
		webhooks: webhooks,
		leads:    leads,
		team:     teamUC,
		baseURL:  strings.TrimRight(baseURL, "/"),
		now:      time.Now,
	}
}

// Create registra una integración. En los incoming la URL se genera con el id del webhook y
// el id del equipo; los outgoing requieren URL de destino.
func (uc *ConfigUseCase) Create(ctx context.Context, p *entity.Principal, in dto.CreateWebhookRequest) (*entity.Webhook, error) {
	if !p.IsMaster() {
		return nil, domain.ErrPermissionDenied
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewValidationError("nombre requerido", "name")
	}
	allowed := entity.IncomingWebhookEvents
	switch in.Type {
	case entity.WebhookIncoming:
	case entity.WebhookOutgoing:
		allowed = entity.OutgoingWebhookEvents
	default:
		return nil, domain.NewValidationError("tipo inválido", "type")
	}
	for _, e := range in.Events {
		if !contains(allowed, e) {
			return nil, domain.NewValidationError("evento no soportado: "+e, "events")
		}
	}
	method := strings.ToUpper(strings.TrimSpace(in.Method))
	if method == "" {
		method = "POST"
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	w := &entity.Webhook{
		ID:        id.String(),
		OwnerID:   p.TenantID(),
		Name:      name,
		Type:      in.Type,
		Method:    method,
		Events:    append([]string(nil), in.Events...),
		IsActive:  true,
		CreatedAt: uc.now(),
	}
	if w.Type == entity.WebhookIncoming {
		w.URL = uc.IncomingURL(w.ID, w.OwnerID)
	} else {
		dest := strings.TrimSpace(in.DestinationURL)
		if dest == "" {
			return nil, domain.NewValidationError("URL de destino requerida", "destinationUrl")
		}
		if u, err := url.Parse(dest); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, domain.NewValidationError("URL de destino inválida", "destinationUrl")
		}
		w.URL = dest
	}
	if err := uc.webhooks.Create(ctx, w); err != nil {
		return nil, &domain.PersistenceError{Op: "guardar webhook", Err: err}
	}
	return w, nil
}

// IncomingURL URL pública de un webhook entrante.
func (uc *ConfigUseCase) IncomingURL(webhookID, tenantID string) string {
	return uc.baseURL + "/webhook-lead?webhook_id=" + url.QueryEscape(webhookID) + "&user_id=" + url.QueryEscape(tenantID)
}

// List integraciones del equipo con la cantidad de leads recibidos por cada una.
func (uc *ConfigUseCase) List(ctx context.Context, p *entity.Principal) ([]dto.WebhookResponse, error) {
	if !p.IsAuthenticated() {
		return []dto.WebhookResponse{}, nil
	}
	list, err := uc.webhooks.ListByOwner(ctx, p.TenantID())
	if err != nil {
		return nil, &domain.PersistenceError{Op: "listar webhooks", Err: err}
	}
	counts, err := uc.ReceivedCounts(ctx, p)
	if err != nil {
		return nil, err
	}
	out := make([]dto.WebhookResponse, 0, len(list))
	for _, w := range list {
		out = append(out, dto.FromWebhook(w, counts[w.ID]))
	}
	return out, nil
}

// SetActive activa o pausa una integración del equipo.
func (uc *ConfigUseCase) SetActive(ctx context.Context, p *entity.Principal, id string, active bool) (*entity.Webhook, error) {
	w, err := uc.owned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := uc.webhooks.SetActive(ctx, id, active); err != nil {
		return nil, &domain.PersistenceError{Op: "actualizar webhook", Err: err}
	}
	w.IsActive = active
	return w, nil
}

// Delete elimina una integración del equipo.
func (uc *ConfigUseCase) Delete(ctx context.Context, p *entity.Principal, id string) error {
	if _, err := uc.owned(ctx, p, id); err != nil {
		return err
	}
	if err := uc.webhooks.Delete(ctx, id); err != nil {
		return &domain.PersistenceError{Op: "eliminar webhook", Err: err}
	}
	return nil
}

// ReceivedCounts leads por webhook, a partir del origen "Webhook #<id>" de los leads visibles.
func (uc *ConfigUseCase) ReceivedCounts(ctx context.Context, p *entity.Principal) (map[string]int, error) {
	scope, err := uc.team.ScopeIDs(ctx, p)
	if err != nil {
		return nil, err
	}
	out := map[string]int{}
	if len(scope) == 0 {
		return out, nil
	}
	bySource, err := uc.leads.SourceCounts(ctx, scope)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "contar leads por webhook", Err: err}
	}
	for source, n := range bySource {
		if m := sourceWebhookRe.FindStringSubmatch(source); m != nil {
			out[m[1]] += n
		}
	}
	return out, nil
}

func (uc *ConfigUseCase) owned(ctx context.Context, p *entity.Principal, id string) (*entity.Webhook, error) {
	if !p.IsMaster() {
		return nil, domain.ErrPermissionDenied
	}
	w, err := uc.webhooks.GetByID(ctx, id)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "obtener webhook", Err: err}
	}
	if w == nil || w.OwnerID != p.TenantID() {
		return nil, domain.ErrNotFound
	}
	return w, nil
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
