// Package pipeline contiene las reglas puras del tablero de leads: estados canónicos,
// columnas configurables y quién puede mover leads entre columnas.
package pipeline

import (
	"strings"

	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
)

// MinStages cantidad mínima de columnas del tablero.
const MinStages = 2

// CustomStageColor color por defecto de una columna nueva.
const CustomStageColor = "#6B7280"

// DefaultStages columnas iniciales: los seis estados canónicos.
func DefaultStages() []entity.KanbanStage {
	return []entity.KanbanStage{
		{ID: entity.LeadStatusNew, Name: "Nuevos Leads", Color: "#3B82F6"},
		{ID: entity.LeadStatusContacted, Name: "Contactados", Color: "#EAB308"},
		{ID: entity.LeadStatusQualified, Name: "Calificados", Color: "#8B5CF6"},
		{ID: entity.LeadStatusProposal, Name: "Propuesta", Color: "#F97316"},
		{ID: entity.LeadStatusWon, Name: "Ganado", Color: "#22C55E"},
		{ID: entity.LeadStatusLost, Name: "Perdido", Color: "#EF4444"},
	}
}

// IsCanonical indica si el status es uno de los seis estados del pipeline.
func IsCanonical(status string) bool {
	for _, s := range entity.LeadStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// ValidateStages exige al menos MinStages columnas, IDs únicos y nombres no vacíos.
func ValidateStages(stages []entity.KanbanStage) error {
	if len(stages) < MinStages {
		return domain.NewValidationError("se necesitan al menos 2 etapas", "stages")
	}
	seen := make(map[string]struct{}, len(stages))
	for _, s := range stages {
		if strings.TrimSpace(s.ID) == "" || strings.TrimSpace(s.Name) == "" {
			return domain.NewValidationError("cada etapa requiere id y nombre", "id", "name")
		}
		if _, ok := seen[s.ID]; ok {
			return domain.NewValidationError("id de etapa duplicado: "+s.ID, "id")
		}
		seen[s.ID] = struct{}{}
	}
	return nil
}

// StageName nombre visible de la columna; si no está configurada devuelve el id.
func StageName(stages []entity.KanbanStage, id string) string {
	for _, s := range stages {
		if s.ID == id {
			return s.Name
		}
	}
	return id
}

// CanMove solo el master mueve leads entre columnas.
func CanMove(p *entity.Principal) bool {
	return p.IsMaster()
}

// IsNoop mismo status y misma posición: no hay nada que persistir.
func IsNoop(fromStatus, toStatus string, fromIndex, toIndex int) bool {
	return fromStatus == toStatus && fromIndex == toIndex
}

// Column columna del tablero con los leads que le corresponden.
type Column struct {
	Stage entity.KanbanStage
	Leads []*entity.Lead
}

// Group reparte los leads por igualdad de status. Columnas personalizadas quedan vacías
// y los leads con un status sin columna no aparecen.
func Group(stages []entity.KanbanStage, leads []*entity.Lead) []Column {
	cols := make([]Column, len(stages))
	idx := make(map[string]int, len(stages))
	for i, s := range stages {
		cols[i] = Column{Stage: s, Leads: []*entity.Lead{}}
		if IsCanonical(s.ID) {
			idx[s.ID] = i
		}
	}
	for _, l := range leads {
		if i, ok := idx[l.Status]; ok {
			cols[i].Leads = append(cols[i].Leads, l)
		}
	}
	return cols
}
