package realtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/crm-api/internal/application/ports"
	"github.com/jhoicas/crm-api/internal/domain/repository"
	"github.com/jhoicas/crm-api/pkg/logger"
)

// Change notificación del almacén: "<op>:<owner_user_id>:<lead_id>".
type Change struct {
	Op          string
	OwnerUserID string
	LeadID      string
}

// ParseChange interpreta el payload del canal de cambios.
func ParseChange(payload string) (Change, error) {
	parts := strings.SplitN(payload, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		return Change{}, fmt.Errorf("payload de cambio inválido: %q", payload)
	}
	return Change{Op: strings.ToLower(parts[0]), OwnerUserID: parts[1], LeadID: parts[2]}, nil
}

// Dispatcher resuelve el equipo del cambio, descarta la vista del tablero y avisa a los suscriptores.
type Dispatcher struct {
	hub      *Hub
	profiles repository.ProfileRepository
	board    ports.BoardView
	log      *logger.Logger
}

// NewDispatcher construye el despachador.
func NewDispatcher(hub *Hub, profiles repository.ProfileRepository, board ports.BoardView, log *logger.Logger) *Dispatcher {
	return &Dispatcher{hub: hub, profiles: profiles, board: board, log: log.Component("realtime")}
}

// Handle procesa un payload crudo del canal de cambios.
func (d *Dispatcher) Handle(ctx context.Context, payload string) error {
	ch, err := ParseChange(payload)
	if err != nil {
		return err
	}
	tenant := ch.OwnerUserID
	if p, err := d.profiles.GetByID(ctx, ch.OwnerUserID); err != nil {
		return fmt.Errorf("realtime: obtener perfil: %w", err)
	} else if p != nil {
		tenant = p.TenantID()
	}
	if tenant == "" {
		return nil
	}
	log := d.log.Tenant(tenant)
	if err := d.board.Invalidate(ctx, tenant); err != nil {
		log.Warn().Err(err).Msg("no se pudo invalidar la vista del tablero")
	}
	n := d.hub.Broadcast(tenant, Event{Type: "refetch", Op: ch.Op, LeadID: ch.LeadID, OwnerUserID: ch.OwnerUserID})
	log.Debug().Str("op", ch.Op).Int("subscribers", n).Msg("cambio de lead notificado")
	return nil
}
