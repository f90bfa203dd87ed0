package entity

import (
	"time"

	"github.com/jhoicas/crm-api/internal/domain"
)

// Roles válidos para Profile.
const (
	RoleMaster = "master"
	RoleUser   = "user"
)

// Profile representa al principal dentro del CRM. Un master encabeza un equipo;
// un user pertenece al equipo de su MasterAccountID.
type Profile struct {
	ID              string // igual al ID de la Identity
	Name            string
	Email           string
	Role            string // master, user
	MasterAccountID string // vacío para master
	IsActive        bool
	LastSeenAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsMaster indica si el perfil administra un equipo.
func (p *Profile) IsMaster() bool { return p != nil && p.Role == RoleMaster }

// TenantID devuelve el master del equipo al que pertenece el perfil.
func (p *Profile) TenantID() string {
	if p.Role == RoleUser {
		return p.MasterAccountID
	}
	return p.ID
}

// Validate verifica la relación rol / master: un user siempre tiene master y un master nunca.
func (p *Profile) Validate() error {
	switch p.Role {
	case RoleMaster:
		if p.MasterAccountID != "" {
			return domain.NewValidationError("un master no puede tener master_account_id", "master_account_id")
		}
	case RoleUser:
		if p.MasterAccountID == "" {
			return domain.NewValidationError("un user requiere master_account_id", "master_account_id")
		}
	default:
		return domain.NewValidationError("rol inválido", "role")
	}
	return nil
}

// Principal construye la sesión explícita a partir del perfil.
func (p *Profile) Principal() *Principal {
	return &Principal{ProfileID: p.ID, Role: p.Role, MasterAccountID: p.MasterAccountID}
}
