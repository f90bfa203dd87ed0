// Package settings administra la configuración por equipo (columnas del tablero) y por
// perfil (preferencias). Ambas se guardan como blobs JSON por dueño y clave.
package settings

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/pipeline"
	"github.com/jhoicas/crm-api/internal/domain/repository"
)

// SettingsUseCase columnas del tablero y preferencias.
type SettingsUseCase struct {
	repo repository.SettingsRepository
}

// NewSettingsUseCase construye el caso de uso.
func NewSettingsUseCase(repo repository.SettingsRepository) *SettingsUseCase {
	return &SettingsUseCase{repo: repo}
}

// Stages columnas del equipo del principal; si nunca se configuraron, las seis canónicas.
func (uc *SettingsUseCase) Stages(ctx context.Context, p *entity.Principal) ([]entity.KanbanStage, error) {
	if !p.IsAuthenticated() {
		return nil, domain.ErrUnauthorized
	}
	return uc.stagesOf(ctx, p.TenantID())
}

// stagesOf lee las columnas guardadas del tenant.
func (uc *SettingsUseCase) stagesOf(ctx context.Context, tenantID string) ([]entity.KanbanStage, error) {
	raw, err := uc.repo.Get(ctx, tenantID, repository.SettingKanbanStages)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "leer etapas", Err: err}
	}
	if len(raw) == 0 {
		return pipeline.DefaultStages(), nil
	}
	var stages []entity.KanbanStage
	if err := json.Unmarshal(raw, &stages); err != nil || len(stages) < pipeline.MinStages {
		return pipeline.DefaultStages(), nil
	}
	return stages, nil
}

// SaveStages reemplaza las columnas (renombrar, recolorear y reordenar en una sola escritura).
func (uc *SettingsUseCase) SaveStages(ctx context.Context, p *entity.Principal, stages []entity.KanbanStage) ([]entity.KanbanStage, error) {
	if !p.IsMaster() {
		return nil, domain.ErrPermissionDenied
	}
	for i := range stages {
		stages[i].ID = strings.TrimSpace(stages[i].ID)
		stages[i].Name = strings.TrimSpace(stages[i].Name)
		if stages[i].Color == "" {
			stages[i].Color = pipeline.CustomStageColor
		}
	}
	if err := pipeline.ValidateStages(stages); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(stages)
	if err != nil {
		return nil, err
	}
	if err := uc.repo.Put(ctx, p.ProfileID, repository.SettingKanbanStages, raw); err != nil {
		return nil, &domain.PersistenceError{Op: "guardar etapas", Err: err}
	}
	return stages, nil
}

// AddStage agrega una columna personalizada al final.
func (uc *SettingsUseCase) AddStage(ctx context.Context, p *entity.Principal, name, color string) ([]entity.KanbanStage, error) {
	if !p.IsMaster() {
		return nil, domain.ErrPermissionDenied
	}
	if strings.TrimSpace(name) == "" {
		return nil, domain.NewValidationError("nombre requerido", "name")
	}
	stages, err := uc.stagesOf(ctx, p.ProfileID)
	if err != nil {
		return nil, err
	}
	if color == "" {
		color = pipeline.CustomStageColor
	}
	stages = append(stages, entity.KanbanStage{ID: "custom-" + uuid.NewString()[:8], Name: name, Color: color})
	return uc.SaveStages(ctx, p, stages)
}

// UpdateStage renombra y/o recolorea una columna.
func (uc *SettingsUseCase) UpdateStage(ctx context.Context, p *entity.Principal, id string, name, color *string) ([]entity.KanbanStage, error) {
	if !p.IsMaster() {
		return nil, domain.ErrPermissionDenied
	}
	stages, err := uc.stagesOf(ctx, p.ProfileID)
	if err != nil {
		return nil, err
	}
	found := false
	for i := range stages {
		if stages[i].ID != id {
			continue
		}
		found = true
		if name != nil {
			stages[i].Name = *name
		}
		if color != nil {
			stages[i].Color = *color
		}
	}
	if !found {
		return nil, domain.ErrNotFound
	}
	return uc.SaveStages(ctx, p, stages)
}

// DeleteStage quita una columna; siempre deben quedar al menos dos.
func (uc *SettingsUseCase) DeleteStage(ctx context.Context, p *entity.Principal, id string) ([]entity.KanbanStage, error) {
	if !p.IsMaster() {
		return nil, domain.ErrPermissionDenied
	}
	stages, err := uc.stagesOf(ctx, p.ProfileID)
	if err != nil {
		return nil, err
	}
	if len(stages) <= pipeline.MinStages {
		return nil, domain.NewValidationError("se necesitan al menos 2 etapas", "stages")
	}
	out := make([]entity.KanbanStage, 0, len(stages))
	for _, s := range stages {
		if s.ID != id {
			out = append(out, s)
		}
	}
	if len(out) == len(stages) {
		return nil, domain.ErrNotFound
	}
	return uc.SaveStages(ctx, p, out)
}

// ReorderStages reordena según la lista de IDs (debe contener exactamente las columnas actuales).
func (uc *SettingsUseCase) ReorderStages(ctx context.Context, p *entity.Principal, ids []string) ([]entity.KanbanStage, error) {
	if !p.IsMaster() {
		return nil, domain.ErrPermissionDenied
	}
	stages, err := uc.stagesOf(ctx, p.ProfileID)
	if err != nil {
		return nil, err
	}
	if len(ids) != len(stages) {
		return nil, domain.NewValidationError("el orden debe incluir todas las etapas", "ids")
	}
	byID := make(map[string]entity.KanbanStage, len(stages))
	for _, s := range stages {
		byID[s.ID] = s
	}
	out := make([]entity.KanbanStage, 0, len(ids))
	for _, id := range ids {
		s, ok := byID[id]
		if !ok {
			return nil, domain.NewValidationError("etapa desconocida: "+id, "ids")
		}
		delete(byID, id)
		out = append(out, s)
	}
	return uc.SaveStages(ctx, p, out)
}

// Preferences preferencias del perfil; valores por defecto si no hay nada guardado.
func (uc *SettingsUseCase) Preferences(ctx context.Context, p *entity.Principal) (entity.Preferences, error) {
	if !p.IsAuthenticated() {
		return entity.Preferences{}, domain.ErrUnauthorized
	}
	return uc.PreferencesOf(ctx, p.ProfileID)
}

// PreferencesOf preferencias de un perfil cualquiera (notificaciones internas).
func (uc *SettingsUseCase) PreferencesOf(ctx context.Context, profileID string) (entity.Preferences, error) {
	raw, err := uc.repo.Get(ctx, profileID, repository.SettingPreferences)
	if err != nil {
		return entity.Preferences{}, &domain.PersistenceError{Op: "leer preferencias", Err: err}
	}
	prefs := entity.DefaultPreferences()
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &prefs)
	}
	return prefs, nil
}

// SavePreferences guarda las preferencias del perfil propio.
func (uc *SettingsUseCase) SavePreferences(ctx context.Context, p *entity.Principal, prefs entity.Preferences) (entity.Preferences, error) {
	if !p.IsAuthenticated() {
		return entity.Preferences{}, domain.ErrUnauthorized
	}
	raw, err := json.Marshal(prefs)
	if err != nil {
		return entity.Preferences{}, err
	}
	if err := uc.repo.Put(ctx, p.ProfileID, repository.SettingPreferences, raw); err != nil {
		return entity.Preferences{}, &domain.PersistenceError{Op: "guardar preferencias", Err: err}
	}
	return prefs, nil
}

// StagesForTenant columnas de un tenant (lo usa el pipeline para el mensaje de confirmación).
func (uc *SettingsUseCase) StagesForTenant(ctx context.Context, tenantID string) ([]entity.KanbanStage, error) {
	return uc.stagesOf(ctx, tenantID)
}
