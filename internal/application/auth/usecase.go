package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
	"github.com/jhoicas/crm-api/pkg/jwt"
	"github.com/jhoicas/crm-api/pkg/logger"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase casos de uso de autenticación: registro del master, login y resolución del perfil.
type AuthUseCase struct {
	identities repository.IdentityRepository
	profiles   repository.ProfileRepository
	tx         repository.ProvisioningTx
	jwtCfg     JWTConfig
	log        *logger.Logger
	now        func() time.Time
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(
	identities repository.IdentityRepository,
	profiles repository.ProfileRepository,
	tx repository.ProvisioningTx,
	jwtCfg JWTConfig,
	log *logger.Logger,
) *AuthUseCase {
	return &AuthUseCase{
		identities: identities,
		profiles:   profiles,
		tx:         tx,
		jwtCfg:     jwtCfg,
		log:        log.Component("auth"),
		now:        time.Now,
	}
}

// Register crea identidad + perfil master. Devuelve ErrEmailAlreadyExists si el email ya existe.
func (uc *AuthUseCase) Register(ctx context.Context, in dto.RegisterRequest) (*dto.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	existing, err := uc.identities.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
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
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = email
	}
	profile := &entity.Profile{
		ID: id, Name: name, Email: email, Role: entity.RoleMaster, IsActive: true,
		CreatedAt: now, UpdatedAt: now,
	}
	err = uc.tx.RunProvisioning(ctx, func(identities repository.IdentityRepository, profiles repository.ProfileRepository) error {
		if err := identities.Create(ctx, &entity.Identity{
			ID: id, Email: email, PasswordHash: string(hash), Confirmed: true, CreatedAt: now,
		}); err != nil {
			return err
		}
		return profiles.Create(ctx, profile)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("profile_id", id).Msg("cuenta master registrada")
	return uc.issue(profile)
}

// Login verifica email/password, genera JWT y retorna token + perfil.
// Si la identidad no tiene perfil (primer acceso) se crea como master.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	ident, err := uc.identities.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if ident == nil {
		return nil, domain.ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(ident.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if !ident.Confirmed {
		return nil, domain.ErrUnauthorized
	}

	profile, err := uc.profiles.GetByID(ctx, ident.ID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		now := uc.now().UTC()
		profile = &entity.Profile{
			ID: ident.ID, Name: ident.Email, Email: ident.Email, Role: entity.RoleMaster, IsActive: true,
			CreatedAt: now, UpdatedAt: now,
		}
		if err := uc.profiles.Create(ctx, profile); err != nil {
			return nil, err
		}
		uc.log.Info().Str("profile_id", profile.ID).Msg("perfil master creado en el primer acceso")
	}
	if !profile.IsActive {
		return nil, domain.ErrForbidden
	}
	return uc.issue(profile)
}

// Resolve carga el perfil del principal. Un perfil desactivado después de emitir el token
// se trata como acceso denegado.
func (uc *AuthUseCase) Resolve(ctx context.Context, p *entity.Principal) (*entity.Profile, error) {
	if !p.IsAuthenticated() {
		return nil, domain.ErrUnauthorized
	}
	profile, err := uc.profiles.GetByID(ctx, p.ProfileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, domain.ErrUserNotFound
	}
	if !profile.IsActive {
		return nil, domain.ErrForbidden
	}
	return profile, nil
}

func (uc *AuthUseCase) issue(p *entity.Profile) (*dto.LoginResponse, error) {
	ttl := time.Duration(uc.jwtCfg.ExpMinutes) * time.Minute
	token, err := jwt.Issue(uc.jwtCfg.Secret, uc.jwtCfg.Issuer, ttl, jwt.Session{
		ProfileID:       p.ID,
		Role:            p.Role,
		MasterAccountID: p.MasterAccountID,
	})
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{Token: token, Profile: toProfileResponse(p)}, nil
}

func toProfileResponse(p *entity.Profile) dto.ProfileResponse {
	return dto.ProfileResponse{
		ID:              p.ID,
		Name:            p.Name,
		Email:           p.Email,
		Role:            p.Role,
		MasterAccountID: p.MasterAccountID,
		IsActive:        p.IsActive,
		LastSeenAt:      p.LastSeenAt,
		CreatedAt:       p.CreatedAt,
	}
}

// IsCredentialError agrupa los errores que el handler responde como 401.
func IsCredentialError(err error) bool {
	return errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrUnauthorized)
}
