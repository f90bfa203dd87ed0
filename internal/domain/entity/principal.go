package entity

// Principal es la sesión autenticada que viaja explícitamente por cada caso de uso.
// Un Principal nil o sin ProfileID se trata como no autenticado.
type Principal struct {
	ProfileID       string
	Role            string
	MasterAccountID string
}

// IsAuthenticated indica si hay un perfil detrás del principal.
func (p *Principal) IsAuthenticated() bool {
	return p != nil && p.ProfileID != ""
}

// IsMaster indica si el principal administra un equipo.
func (p *Principal) IsMaster() bool {
	return p.IsAuthenticated() && p.Role == RoleMaster
}

// TenantID devuelve el master del equipo del principal ("" si no está autenticado).
func (p *Principal) TenantID() string {
	if !p.IsAuthenticated() {
		return ""
	}
	if p.Role == RoleUser && p.MasterAccountID != "" {
		return p.MasterAccountID
	}
	return p.ProfileID
}
