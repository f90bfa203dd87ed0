package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Estados canónicos del pipeline.
const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusQualified = "qualified"
	LeadStatusProposal  = "proposal"
	LeadStatusWon       = "won"
	LeadStatusLost      = "lost"
)

// LeadStatuses orden canónico de los estados.
var LeadStatuses = []string{
	LeadStatusNew, LeadStatusContacted, LeadStatusQualified,
	LeadStatusProposal, LeadStatusWon, LeadStatusLost,
}

// Lead oportunidad comercial del equipo identificado por OwnerUserID.
type Lead struct {
	ID          string
	Name        string
	Email       string
	Phone       string
	Company     string
	Value       decimal.Decimal // >= 0
	Status      string
	Tags        []string // orden de inserción, sin duplicados
	AssignedTo  string
	OwnerUserID string
	Notes       string
	Source      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// VisibleTo aplica el predicado de visibilidad: master, asignado o dueño.
func (l *Lead) VisibleTo(p *Principal) bool {
	if !p.IsAuthenticated() {
		return false
	}
	return p.Role == RoleMaster || l.AssignedTo == p.ProfileID || l.OwnerUserID == p.ProfileID
}

// InScope indica si el lead pertenece (por dueño o asignado) a alguno de los perfiles.
func (l *Lead) InScope(profileIDs []string) bool {
	for _, id := range profileIDs {
		if l.AssignedTo == id || l.OwnerUserID == id {
			return true
		}
	}
	return false
}

// AddTag agrega la etiqueta si no existe. Devuelve false si ya estaba.
func (l *Lead) AddTag(tag string) bool {
	if tag == "" || l.HasTag(tag) {
		return false
	}
	l.Tags = append(l.Tags, tag)
	return true
}

// RemoveTag quita la etiqueta conservando el orden del resto. Devuelve false si no estaba.
func (l *Lead) RemoveTag(tag string) bool {
	for i, t := range l.Tags {
		if t == tag {
			l.Tags = append(l.Tags[:i:i], l.Tags[i+1:]...)
			return true
		}
	}
	return false
}

// HasTag indica si el lead tiene la etiqueta.
func (l *Lead) HasTag(tag string) bool {
	for _, t := range l.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// UniqueTags limpia espacios, descarta vacíos y duplicados conservando el primer orden.
func UniqueTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
