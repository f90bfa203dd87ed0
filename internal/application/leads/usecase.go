// Package leads contiene los casos de uso del lead: alta manual, edición, etiquetas,
// operaciones masivas del master, hilo de comentarios y la vista de tablero.
package leads

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/application/ports"
	"github.com/jhoicas/crm-api/internal/application/settings"
	"github.com/jhoicas/crm-api/internal/application/team"
	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/pipeline"
	"github.com/jhoicas/crm-api/internal/domain/repository"
	"github.com/jhoicas/crm-api/pkg/logger"
	"github.com/jhoicas/crm-api/pkg/phone"
	"github.com/jhoicas/crm-api/pkg/textnorm"
)

// SourceManual origen de los leads cargados desde la aplicación.
const SourceManual = "Manual"

// LeadUseCase casos de uso del lead.
type LeadUseCase struct {
	leads    repository.LeadRepository
	feedback repository.FeedbackRepository
	team     *team.TeamUseCase
	settings *settings.SettingsUseCase
	board    ports.BoardView
	region   string
	log      *logger.Logger
	now      func() time.Time
}

// NewLeadUseCase construye el caso de uso. region es la región por defecto para normalizar teléfonos.
func NewLeadUseCase(
	leads repository.LeadRepository,
	feedback repository.FeedbackRepository,
	teamUC *team.TeamUseCase,
	settingsUC *settings.SettingsUseCase,
	board ports.BoardView,
	region string,
	log *logger.Logger,
) *LeadUseCase {
	return &LeadUseCase{
		leads:    leads,
		feedback: feedback,
		team:     teamUC,
		settings: settingsUC,
		board:    board,
		region:   region,
		log:      log.Component("leads"),
		now:      time.Now,
	}
}

// Create alta manual. El status siempre arranca en new y el dueño es quien lo crea.
func (uc *LeadUseCase) Create(ctx context.Context, p *entity.Principal, in dto.CreateLeadRequest) (*entity.Lead, error) {
	if !p.IsAuthenticated() {
		return nil, domain.ErrUnauthorized
	}
	name, email := strings.TrimSpace(in.Name), strings.TrimSpace(in.Email)
	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return nil, domain.NewValidationError("campos requeridos", missing...)
	}
	if in.Value.IsNegative() {
		return nil, domain.NewValidationError("el valor no puede ser negativo", "value")
	}
	assignee := strings.TrimSpace(in.AssignedTo)
	if assignee == "" {
		assignee = p.ProfileID
	}
	if err := uc.checkAssignable(ctx, p, assignee); err != nil {
		return nil, err
	}
	source := strings.TrimSpace(in.Source)
	if source == "" {
		source = SourceManual
	}
	now := uc.now()
	lead := &entity.Lead{
		ID:          uuid.NewString(),
		Name:        name,
		Email:       email,
		Phone:       phone.Normalize(in.Phone, uc.region),
		Company:     strings.TrimSpace(in.Company),
		Value:       in.Value,
		Status:      entity.LeadStatusNew,
		Tags:        entity.UniqueTags(in.Tags),
		AssignedTo:  assignee,
		OwnerUserID: p.ProfileID,
		Notes:       in.Notes,
		Source:      source,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.leads.Create(ctx, lead); err != nil {
		return nil, &domain.PersistenceError{Op: "crear lead", Err: err}
	}
	uc.invalidate(ctx, p.TenantID())
	return lead, nil
}

// Get devuelve el lead si el principal puede verlo; si no, NotFound.
func (uc *LeadUseCase) Get(ctx context.Context, p *entity.Principal, id string) (*entity.Lead, error) {
	scope, err := uc.team.ScopeIDs(ctx, p)
	if err != nil {
		return nil, err
	}
	return uc.visible(ctx, p, scope, id)
}

// List leads del alcance del principal con filtros de asignado, status y búsqueda.
func (uc *LeadUseCase) List(ctx context.Context, p *entity.Principal, f dto.LeadFilter) ([]*entity.Lead, error) {
	scope, err := uc.team.ScopeIDs(ctx, p)
	if err != nil {
		return nil, err
	}
	if len(scope) == 0 {
		return []*entity.Lead{}, nil
	}
	f.DefaultPage()
	q := repository.LeadQuery{ScopeIDs: scope, AssignedTo: f.AssignedTo, Status: f.Status, Limit: f.Limit, Offset: f.Offset}
	search := strings.TrimSpace(f.Search)
	if search != "" {
		// La búsqueda ignora tildes y mayúsculas; se pagina después de filtrar.
		q.Limit, q.Offset = 0, 0
	}
	list, err := uc.leads.List(ctx, q)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "listar leads", Err: err}
	}
	out := make([]*entity.Lead, 0, len(list))
	for _, l := range list {
		if !l.VisibleTo(p) {
			continue
		}
		if search != "" && !textnorm.Contains(search, l.Name, l.Email, l.Company, l.Phone) {
			continue
		}
		out = append(out, l)
	}
	if search != "" {
		out = page(out, f.Offset, f.Limit)
	}
	return out, nil
}

// Update edición parcial. Cambiar el status por esta vía es igual que mover: solo master.
func (uc *LeadUseCase) Update(ctx context.Context, p *entity.Principal, id string, in dto.UpdateLeadRequest) (*entity.Lead, error) {
	scope, err := uc.team.ScopeIDs(ctx, p)
	if err != nil {
		return nil, err
	}
	lead, err := uc.visible(ctx, p, scope, id)
	if err != nil {
		return nil, err
	}
	if in.Status != nil && *in.Status != lead.Status {
		if !pipeline.CanMove(p) {
			return nil, domain.ErrPermissionDenied
		}
		if !pipeline.IsCanonical(*in.Status) {
			return nil, domain.NewValidationError("status inválido", "status")
		}
		lead.Status = *in.Status
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, domain.NewValidationError("nombre requerido", "name")
		}
		lead.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		if strings.TrimSpace(*in.Email) == "" {
			return nil, domain.NewValidationError("email requerido", "email")
		}
		lead.Email = strings.TrimSpace(*in.Email)
	}
	if in.Phone != nil {
		lead.Phone = phone.Normalize(*in.Phone, uc.region)
	}
	if in.Company != nil {
		lead.Company = strings.TrimSpace(*in.Company)
	}
	if in.Value != nil {
		if in.Value.IsNegative() {
			return nil, domain.NewValidationError("el valor no puede ser negativo", "value")
		}
		lead.Value = *in.Value
	}
	if in.Tags != nil {
		lead.Tags = entity.UniqueTags(in.Tags)
	}
	if in.Notes != nil {
		lead.Notes = *in.Notes
	}
	if in.Source != nil && strings.TrimSpace(*in.Source) != "" {
		lead.Source = strings.TrimSpace(*in.Source)
	}
	if in.AssignedTo != nil && *in.AssignedTo != lead.AssignedTo {
		if err := uc.checkAssignable(ctx, p, *in.AssignedTo); err != nil {
			return nil, err
		}
		lead.AssignedTo = *in.AssignedTo
	}
	return uc.save(ctx, p, lead)
}

// AddTag agrega una etiqueta. Repetirla no cambia nada.
func (uc *LeadUseCase) AddTag(ctx context.Context, p *entity.Principal, id, tag string) (*entity.Lead, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, domain.NewValidationError("etiqueta requerida", "tag")
	}
	return uc.editTags(ctx, p, id, func(l *entity.Lead) bool { return l.AddTag(tag) })
}

// RemoveTag quita una etiqueta. Quitar una inexistente no cambia nada.
func (uc *LeadUseCase) RemoveTag(ctx context.Context, p *entity.Principal, id, tag string) (*entity.Lead, error) {
	return uc.editTags(ctx, p, id, func(l *entity.Lead) bool { return l.RemoveTag(tag) })
}

func (uc *LeadUseCase) editTags(ctx context.Context, p *entity.Principal, id string, edit func(*entity.Lead) bool) (*entity.Lead, error) {
	scope, err := uc.team.ScopeIDs(ctx, p)
	if err != nil {
		return nil, err
	}
	lead, err := uc.visible(ctx, p, scope, id)
	if err != nil {
		return nil, err
	}
	if !edit(lead) {
		return lead, nil
	}
	return uc.save(ctx, p, lead)
}

// Delete borra un lead del equipo. Solo master.
func (uc *LeadUseCase) Delete(ctx context.Context, p *entity.Principal, id string) error {
	if !p.IsMaster() {
		return domain.ErrPermissionDenied
	}
	scope, err := uc.team.ScopeIDs(ctx, p)
	if err != nil {
		return err
	}
	if _, err := uc.visible(ctx, p, scope, id); err != nil {
		return err
	}
	if err := uc.leads.Delete(ctx, id); err != nil {
		return &domain.PersistenceError{Op: "eliminar lead", Err: err}
	}
	uc.invalidate(ctx, p.TenantID())
	return nil
}

// BulkAssign delega varios leads a un miembro asignable. Los IDs fuera del equipo se ignoran.
func (uc *LeadUseCase) BulkAssign(ctx context.Context, p *entity.Principal, in dto.BulkAssignRequest) (dto.BulkResult, error) {
	if !p.IsMaster() {
		return dto.BulkResult{}, domain.ErrPermissionDenied
	}
	if err := uc.checkAssignable(ctx, p, in.AssignedTo); err != nil {
		return dto.BulkResult{}, err
	}
	ids, err := uc.inScope(ctx, p, in.LeadIDs)
	if err != nil {
		return dto.BulkResult{}, err
	}
	if len(ids) == 0 {
		return dto.BulkResult{}, nil
	}
	n, err := uc.leads.AssignMany(ctx, ids, in.AssignedTo, uc.now())
	if err != nil {
		return dto.BulkResult{}, &domain.PersistenceError{Op: "asignar leads", Err: err}
	}
	uc.invalidate(ctx, p.TenantID())
	return dto.BulkResult{Affected: n}, nil
}

// BulkDelete borra varios leads del equipo. Solo master.
func (uc *LeadUseCase) BulkDelete(ctx context.Context, p *entity.Principal, in dto.BulkDeleteRequest) (dto.BulkResult, error) {
	if !p.IsMaster() {
		return dto.BulkResult{}, domain.ErrPermissionDenied
	}
	ids, err := uc.inScope(ctx, p, in.LeadIDs)
	if err != nil {
		return dto.BulkResult{}, err
	}
	if len(ids) == 0 {
		return dto.BulkResult{}, nil
	}
	n, err := uc.leads.DeleteMany(ctx, ids)
	if err != nil {
		return dto.BulkResult{}, &domain.PersistenceError{Op: "eliminar leads", Err: err}
	}
	uc.invalidate(ctx, p.TenantID())
	return dto.BulkResult{Affected: n}, nil
}

// AddFeedback agrega un comentario al hilo de un lead visible.
func (uc *LeadUseCase) AddFeedback(ctx context.Context, p *entity.Principal, leadID, message string) (*entity.LeadFeedback, error) {
	if _, err := uc.Get(ctx, p, leadID); err != nil {
		return nil, err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, domain.NewValidationError("mensaje requerido", "message")
	}
	f := &entity.LeadFeedback{
		ID:        uuid.NewString(),
		LeadID:    leadID,
		UserID:    p.ProfileID,
		Message:   message,
		CreatedAt: uc.now(),
	}
	if err := uc.feedback.Create(ctx, f); err != nil {
		return nil, &domain.PersistenceError{Op: "guardar comentario", Err: err}
	}
	return f, nil
}

// ListFeedback hilo de comentarios en orden cronológico.
func (uc *LeadUseCase) ListFeedback(ctx context.Context, p *entity.Principal, leadID string) ([]*entity.LeadFeedback, error) {
	if _, err := uc.Get(ctx, p, leadID); err != nil {
		return nil, err
	}
	list, err := uc.feedback.ListByLead(ctx, leadID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "listar comentarios", Err: err}
	}
	if list == nil {
		list = []*entity.LeadFeedback{}
	}
	return list, nil
}

// Board tablero kanban: columnas del equipo con los leads visibles para el principal.
// La vista del equipo se comparte por tenant y se filtra por principal al leerla.
func (uc *LeadUseCase) Board(ctx context.Context, p *entity.Principal, f dto.LeadFilter) ([]pipeline.Column, error) {
	if !p.IsAuthenticated() {
		return nil, domain.ErrUnauthorized
	}
	stages, err := uc.settings.Stages(ctx, p)
	if err != nil {
		return nil, err
	}
	all, err := uc.TenantView(ctx, p.TenantID())
	if err != nil {
		return nil, err
	}
	search := strings.TrimSpace(f.Search)
	visible := make([]*entity.Lead, 0, len(all))
	for _, l := range all {
		if !l.VisibleTo(p) {
			continue
		}
		if f.AssignedTo != "" && l.AssignedTo != f.AssignedTo {
			continue
		}
		if search != "" && !textnorm.Contains(search, l.Name, l.Email, l.Company, l.Phone) {
			continue
		}
		visible = append(visible, l)
	}
	return pipeline.Group(stages, visible), nil
}

// TenantView vista del equipo: desde la caché si está cargada, si no desde el almacén.
func (uc *LeadUseCase) TenantView(ctx context.Context, tenantID string) ([]*entity.Lead, error) {
	if list, ok, err := uc.board.Load(ctx, tenantID); err != nil {
		uc.log.Warn().Err(err).Str("tenant", tenantID).Msg("caché del tablero no disponible")
	} else if ok {
		return list, nil
	}
	return uc.Refresh(ctx, tenantID)
}

// Refresh relee el estado canónico del equipo y reemplaza la vista en caché.
func (uc *LeadUseCase) Refresh(ctx context.Context, tenantID string) ([]*entity.Lead, error) {
	scope, err := uc.team.TenantScopeIDs(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if len(scope) == 0 {
		return []*entity.Lead{}, nil
	}
	list, err := uc.leads.List(ctx, repository.LeadQuery{ScopeIDs: scope})
	if err != nil {
		return nil, &domain.PersistenceError{Op: "listar leads", Err: err}
	}
	if err := uc.board.Store(ctx, tenantID, list); err != nil {
		uc.log.Warn().Err(err).Str("tenant", tenantID).Msg("no se pudo guardar la vista del tablero")
	}
	return list, nil
}

func (uc *LeadUseCase) save(ctx context.Context, p *entity.Principal, lead *entity.Lead) (*entity.Lead, error) {
	lead.UpdatedAt = uc.now()
	if err := uc.leads.Update(ctx, lead); err != nil {
		return nil, &domain.PersistenceError{Op: "actualizar lead", Err: err}
	}
	uc.invalidate(ctx, p.TenantID())
	return lead, nil
}

// visible carga el lead y aplica alcance + predicado de visibilidad.
func (uc *LeadUseCase) visible(ctx context.Context, p *entity.Principal, scope []string, id string) (*entity.Lead, error) {
	if len(scope) == 0 {
		return nil, domain.ErrNotFound
	}
	lead, err := uc.leads.GetByID(ctx, id)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "obtener lead", Err: err}
	}
	if lead == nil || !lead.InScope(scope) || !lead.VisibleTo(p) {
		return nil, domain.ErrNotFound
	}
	return lead, nil
}

func (uc *LeadUseCase) inScope(ctx context.Context, p *entity.Principal, ids []string) ([]string, error) {
	scope, err := uc.team.ScopeIDs(ctx, p)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		l, err := uc.leads.GetByID(ctx, id)
		if err != nil {
			return nil, &domain.PersistenceError{Op: "obtener lead", Err: err}
		}
		if l != nil && l.InScope(scope) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (uc *LeadUseCase) checkAssignable(ctx context.Context, p *entity.Principal, assignee string) error {
	users, err := uc.team.GetAllAssignableUsers(ctx, p)
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.ID == assignee {
			return nil
		}
	}
	return domain.NewValidationError("el usuario asignado no pertenece al equipo", "assigned_to")
}

func (uc *LeadUseCase) invalidate(ctx context.Context, tenantID string) {
	if err := uc.board.Invalidate(ctx, tenantID); err != nil {
		uc.log.Warn().Err(err).Str("tenant", tenantID).Msg("no se pudo invalidar la vista del tablero")
	}
}

func page(list []*entity.Lead, offset, limit int) []*entity.Lead {
	if offset >= len(list) {
		return []*entity.Lead{}
	}
	end := len(list)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return list[offset:end]
}

// TotalValue suma del valor de los leads (resumen del tablero).
func TotalValue(list []*entity.Lead) decimal.Decimal {
	total := decimal.Zero
	for _, l := range list {
		total = total.Add(l.Value)
	}
	return total
}
