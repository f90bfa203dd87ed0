// Package team implementa la visibilidad por equipo: quién ve y a quién puede asignar
// cada principal, más el alta y baja de miembros por el master.
package team

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/application/presence"
	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
	"github.com/jhoicas/crm-api/pkg/logger"
)

// TeamUseCase casos de uso del equipo.
type TeamUseCase struct {
	profiles   repository.ProfileRepository
	identities repository.IdentityRepository
	tx         repository.ProvisioningTx
	log        *logger.Logger
	threshold  time.Duration
	now        func() time.Time
}

// NewTeamUseCase construye el caso de uso.
func NewTeamUseCase(
	profiles repository.ProfileRepository,
	identities repository.IdentityRepository,
	tx repository.ProvisioningTx,
	log *logger.Logger,
	onlineThreshold time.Duration,
) *TeamUseCase {
	if onlineThreshold <= 0 {
		onlineThreshold = presence.DefaultOnlineThreshold
	}
	return &TeamUseCase{
		profiles:   profiles,
		identities: identities,
		tx:         tx,
		log:        log.Component("team"),
		threshold:  onlineThreshold,
		now:        time.Now,
	}
}

// GetTeamMembers perfiles cuyo master es el principal. Vacío si no es master.
func (uc *TeamUseCase) GetTeamMembers(ctx context.Context, p *entity.Principal) ([]*entity.Profile, error) {
	if !p.IsMaster() {
		return []*entity.Profile{}, nil
	}
	members, err := uc.profiles.ListByMaster(ctx, p.ProfileID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "listar equipo", Err: err}
	}
	if members == nil {
		members = []*entity.Profile{}
	}
	return members, nil
}

// GetAllAssignableUsers el propio principal seguido de su equipo.
func (uc *TeamUseCase) GetAllAssignableUsers(ctx context.Context, p *entity.Principal) ([]*entity.Profile, error) {
	if !p.IsAuthenticated() {
		return []*entity.Profile{}, nil
	}
	self, err := uc.profiles.GetByID(ctx, p.ProfileID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "obtener perfil", Err: err}
	}
	if self == nil {
		return nil, domain.ErrNotFound
	}
	members, err := uc.GetTeamMembers(ctx, p)
	if err != nil {
		return nil, err
	}
	return append([]*entity.Profile{self}, members...), nil
}

// ScopeIDs IDs cuyos registros puede ver el principal: él mismo y, si es master, su equipo.
// Sin sesión devuelve nil y toda consulta con ese alcance queda vacía.
func (uc *TeamUseCase) ScopeIDs(ctx context.Context, p *entity.Principal) ([]string, error) {
	if !p.IsAuthenticated() {
		return nil, nil
	}
	ids := []string{p.ProfileID}
	members, err := uc.GetTeamMembers(ctx, p)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// TenantScopeIDs master del equipo más todos sus miembros. Es el alcance de la vista
// compartida del tablero; cada principal la filtra luego con el predicado de visibilidad.
func (uc *TeamUseCase) TenantScopeIDs(ctx context.Context, tenantID string) ([]string, error) {
	if tenantID == "" {
		return nil, nil
	}
	return uc.ScopeIDs(ctx, &entity.Principal{ProfileID: tenantID, Role: entity.RoleMaster})
}

// GetUserStats resumen del equipo.
// Un principal que no es master recibe siempre {0, 0, 1}: es un valor de relleno heredado,
// no sus estadísticas reales.
func (uc *TeamUseCase) GetUserStats(ctx context.Context, p *entity.Principal) (dto.UserStatsResponse, error) {
	if !p.IsMaster() {
		return dto.UserStatsResponse{TotalUsers: 0, ActiveUsers: 0, Administrators: 1}, nil
	}
	members, err := uc.GetTeamMembers(ctx, p)
	if err != nil {
		return dto.UserStatsResponse{}, err
	}
	active := 0
	for _, m := range members {
		if m.IsActive {
			active++
		}
	}
	return dto.UserStatsResponse{
		TotalUsers:     len(members) + 1,
		ActiveUsers:    active + 1,
		Administrators: 1,
	}, nil
}

// CreateSubUser provisiona un miembro del equipo: identidad pre-confirmada + perfil user.
func (uc *TeamUseCase) CreateSubUser(ctx context.Context, p *entity.Principal, in dto.CreateSubUserRequest) (*entity.Profile, error) {
	if !p.IsAuthenticated() {
		return nil, domain.ErrUnauthorized
	}
	if !p.IsMaster() {
		return nil, domain.ErrPermissionDenied
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	var missing []string
	if in.Name == "" {
		missing = append(missing, "name")
	}
	if in.Email == "" {
		missing = append(missing, "email")
	}
	if in.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, domain.NewValidationError("campos requeridos", missing...)
	}

	master, err := uc.profiles.GetByID(ctx, p.ProfileID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "obtener master", Err: err}
	}
	if master == nil || !master.IsMaster() {
		return nil, domain.ErrUserNotFound
	}
	existing, err := uc.identities.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "verificar email", Err: err}
	}
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := uc.now().UTC()
	id := uuid.New().String()
	profile := &entity.Profile{
		ID:              id,
		Name:            in.Name,
		Email:           in.Email,
		Role:            entity.RoleUser,
		MasterAccountID: master.ID,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	err = uc.tx.RunProvisioning(ctx, func(identities repository.IdentityRepository, profiles repository.ProfileRepository) error {
		if err := identities.Create(ctx, &entity.Identity{
			ID:           id,
			Email:        in.Email,
			PasswordHash: string(hash),
			Confirmed:    true,
			CreatedAt:    now,
		}); err != nil {
			return err
		}
		return profiles.Create(ctx, profile)
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailAlreadyExists) {
			return nil, err
		}
		return nil, &domain.PersistenceError{Op: "crear usuario", Err: err}
	}

	uc.log.Info().Str("master_id", master.ID).Str("user_id", id).Msg("miembro del equipo creado")
	return profile, nil
}

// DeleteSubUser borra el perfil y luego la identidad. Si el segundo paso falla se devuelve
// PartialFailureError: el perfil ya no existe pero la cuenta de acceso sí.
func (uc *TeamUseCase) DeleteSubUser(ctx context.Context, p *entity.Principal, subUserID string) error {
	if !p.IsAuthenticated() {
		return domain.ErrUnauthorized
	}
	if !p.IsMaster() {
		return domain.ErrPermissionDenied
	}
	if strings.TrimSpace(subUserID) == "" {
		return domain.NewValidationError("subUserId requerido", "subUserId")
	}
	sub, err := uc.member(ctx, p, subUserID)
	if err != nil {
		return err
	}

	if err := uc.profiles.Delete(ctx, sub.ID); err != nil {
		return &domain.PersistenceError{Op: "eliminar perfil", Err: err}
	}
	if err := uc.identities.Delete(ctx, sub.ID); err != nil {
		uc.log.Error().Err(err).Str("user_id", sub.ID).Msg("perfil eliminado pero la identidad no")
		return &domain.PartialFailureError{Completed: "perfil", Failed: "identidad", Err: err}
	}

	uc.log.Info().Str("master_id", p.ProfileID).Str("user_id", sub.ID).Msg("miembro del equipo eliminado")
	return nil
}

// SetActive activa o desactiva a un miembro del propio equipo (baja lógica).
func (uc *TeamUseCase) SetActive(ctx context.Context, p *entity.Principal, subUserID string, active bool) (*entity.Profile, error) {
	if !p.IsMaster() {
		return nil, domain.ErrPermissionDenied
	}
	sub, err := uc.member(ctx, p, subUserID)
	if err != nil {
		return nil, err
	}
	now := uc.now().UTC()
	if err := uc.profiles.SetActive(ctx, sub.ID, active, now); err != nil {
		return nil, &domain.PersistenceError{Op: "actualizar estado", Err: err}
	}
	sub.IsActive = active
	sub.UpdatedAt = now
	return sub, nil
}

// UpdateName cambia el nombre del perfil propio.
func (uc *TeamUseCase) UpdateName(ctx context.Context, p *entity.Principal, name string) (*entity.Profile, error) {
	if !p.IsAuthenticated() {
		return nil, domain.ErrUnauthorized
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("nombre requerido", "name")
	}
	if err := uc.profiles.UpdateName(ctx, p.ProfileID, name, uc.now().UTC()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, &domain.PersistenceError{Op: "actualizar perfil", Err: err}
	}
	return uc.profiles.GetByID(ctx, p.ProfileID)
}

// ToResponse agrega el estado de presencia al perfil.
func (uc *TeamUseCase) ToResponse(pr *entity.Profile) dto.ProfileResponse {
	online, label := presence.Status(pr.LastSeenAt, uc.now(), uc.threshold)
	return dto.ProfileResponse{
		ID:              pr.ID,
		Name:            pr.Name,
		Email:           pr.Email,
		Role:            pr.Role,
		MasterAccountID: pr.MasterAccountID,
		IsActive:        pr.IsActive,
		LastSeenAt:      pr.LastSeenAt,
		Online:          online,
		Presence:        label,
		CreatedAt:       pr.CreatedAt,
	}
}

// member obtiene un perfil del equipo del master; NotFound si no existe o es de otro equipo.
func (uc *TeamUseCase) member(ctx context.Context, p *entity.Principal, id string) (*entity.Profile, error) {
	sub, err := uc.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "obtener usuario", Err: err}
	}
	if sub == nil || sub.MasterAccountID != p.ProfileID {
		return nil, domain.ErrNotFound
	}
	return sub, nil
}
