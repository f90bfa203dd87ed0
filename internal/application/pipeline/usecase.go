// Package pipeline ejecuta los movimientos del tablero: parche optimista sobre la vista del
// equipo, escritura en el almacén y, si esta falla, recarga del estado canónico.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/application/leads"
	"github.com/jhoicas/crm-api/internal/application/ports"
	"github.com/jhoicas/crm-api/internal/application/settings"
	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/pipeline"
	"github.com/jhoicas/crm-api/internal/domain/repository"
	"github.com/jhoicas/crm-api/pkg/logger"
)

// EventLeadStatusChanged evento saliente de un movimiento confirmado.
const EventLeadStatusChanged = "lead.status.changed"

// MoveUseCase movimientos entre columnas.
type MoveUseCase struct {
	leads     repository.LeadRepository
	board     ports.BoardView
	view      *leads.LeadUseCase
	settings  *settings.SettingsUseCase
	publisher ports.EventPublisher
	log       *logger.Logger
	now       func() time.Time
}

// NewMoveUseCase construye el caso de uso.
func NewMoveUseCase(
	leadRepo repository.LeadRepository,
	board ports.BoardView,
	view *leads.LeadUseCase,
	settingsUC *settings.SettingsUseCase,
	publisher ports.EventPublisher,
	log *logger.Logger,
) *MoveUseCase {
	return &MoveUseCase{
		leads:     leadRepo,
		board:     board,
		view:      view,
		settings:  settingsUC,
		publisher: publisher,
		log:       log.Component("pipeline"),
		now:       time.Now,
	}
}

// MoveLead mueve un lead a otra columna.
//
// Orden: permiso, no-op, destino válido, existencia; luego parche optimista de la vista,
// escritura con updatedAt = now y, ante un fallo, recarga de la vista desde el almacén.
// El error devuelto en ese caso es un PersistenceError recuperable.
func (uc *MoveUseCase) MoveLead(ctx context.Context, p *entity.Principal, in dto.MoveLeadRequest) (*dto.MoveLeadResponse, error) {
	if !pipeline.CanMove(p) {
		return nil, domain.ErrPermissionDenied
	}
	if pipeline.IsNoop(in.FromStatus, in.ToStatus, in.FromIndex, in.ToIndex) {
		return &dto.MoveLeadResponse{Skipped: true}, nil
	}
	if !pipeline.IsCanonical(in.ToStatus) {
		return nil, domain.NewValidationError("la columna destino no admite leads: "+in.ToStatus, "to_status")
	}

	tenant := p.TenantID()
	lead, err := uc.view.Get(ctx, p, in.LeadID)
	if err != nil {
		return nil, err
	}
	if lead.Status == in.ToStatus {
		// Reordenar dentro de la misma columna no cambia nada persistido.
		out := dto.FromLead(lead)
		return &dto.MoveLeadResponse{Skipped: true, Lead: &out}, nil
	}

	now := uc.now()
	if err := uc.board.Patch(ctx, tenant, lead.ID, in.ToStatus, now); err != nil {
		uc.log.Warn().Err(err).Str("lead_id", lead.ID).Msg("no se pudo aplicar el parche optimista")
	}

	if err := uc.leads.UpdateStatus(ctx, lead.ID, in.ToStatus, now); err != nil {
		if _, rerr := uc.view.Refresh(ctx, tenant); rerr != nil {
			uc.log.Error().Err(rerr).Str("tenant", tenant).Msg("no se pudo recargar el tablero")
			_ = uc.board.Invalidate(ctx, tenant)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		uc.log.Error().Err(err).Str("lead_id", lead.ID).Str("to", in.ToStatus).Msg("fallo al mover lead")
		return nil, &domain.PersistenceError{Op: "mover lead", Err: err, Recoverable: true}
	}

	from := lead.Status
	lead.Status = in.ToStatus
	lead.UpdatedAt = now

	stageName := in.ToStatus
	if stages, err := uc.settings.Stages(ctx, p); err == nil {
		stageName = pipeline.StageName(stages, in.ToStatus)
	}

	out := dto.FromLead(lead)
	uc.publish(ctx, ports.NewInternalEnvelope(EventLeadStatusChanged, now, map[string]any{
		"leadId":     lead.ID,
		"userId":     tenant,
		"fromStatus": from,
		"toStatus":   in.ToStatus,
		"leadData":   out,
	}))

	return &dto.MoveLeadResponse{Message: "Lead movido a " + stageName, Lead: &out}, nil
}

func (uc *MoveUseCase) publish(ctx context.Context, env ports.Envelope) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.Publish(ctx, env); err != nil {
		uc.log.Warn().Err(err).Str("event", env.Event).Msg("no se pudo publicar el evento")
	}
}
