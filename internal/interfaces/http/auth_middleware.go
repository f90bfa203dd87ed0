package http

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/pkg/jwt"
	"github.com/jhoicas/crm-api/pkg/logger"
)

// Locals keys del principal en Fiber.
const (
	LocalUserID          = "user_id"
	LocalMasterAccountID = "master_account_id"
	LocalRole            = "role"
)

// AuthMiddleware valida el Bearer Token JWT y deja el principal en c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		sess, err := jwt.Verify(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalUserID, sess.ProfileID)
		c.Locals(LocalMasterAccountID, sess.MasterAccountID)
		c.Locals(LocalRole, sess.Role)
		return c.Next()
	}
}

// ProfileResolver recarga el perfil del principal (auth.AuthUseCase).
type ProfileResolver interface {
	Resolve(ctx context.Context, p *entity.Principal) (*entity.Profile, error)
}

// RequireActiveProfile va después de AuthMiddleware. El token solo prueba identidad: un perfil
// eliminado o desactivado después de emitirlo recibe 403. Rol y master se toman del perfil.
func RequireActiveProfile(resolver ProfileResolver, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		profile, err := resolver.Resolve(c.UserContext(), PrincipalFromCtx(c))
		if err != nil {
			if errors.Is(err, domain.ErrForbidden) || errors.Is(err, domain.ErrUserNotFound) {
				return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "INACTIVE_ACCOUNT", Message: "cuenta inactiva o eliminada"})
			}
			return writeError(c, log, err)
		}
		c.Locals(LocalRole, profile.Role)
		c.Locals(LocalMasterAccountID, profile.MasterAccountID)
		return c.Next()
	}
}

// bearerToken extrae el token del header; el stream SSE también lo acepta en ?access_token
// porque EventSource no permite headers.
func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return strings.TrimSpace(c.Query("access_token"))
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireRole autoriza solo a los roles indicados. Debe ir después de AuthMiddleware.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no incluye rol"})
		}
		for _, r := range roles {
			if r == role {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "rol sin permiso para este recurso"})
	}
}

// RequireMaster atajo de RequireRole(master).
func RequireMaster() fiber.Handler {
	return RequireRole(entity.RoleMaster)
}

// PrincipalFromCtx arma el principal desde los locals; nil si no hay sesión.
func PrincipalFromCtx(c *fiber.Ctx) *entity.Principal {
	id := GetUserID(c)
	if id == "" {
		return nil
	}
	return &entity.Principal{
		ProfileID:       id,
		Role:            GetRole(c),
		MasterAccountID: localString(c, LocalMasterAccountID),
	}
}

// GetUserID devuelve el id del perfil autenticado.
func GetUserID(c *fiber.Ctx) string { return localString(c, LocalUserID) }

// GetRole devuelve el rol del perfil autenticado.
func GetRole(c *fiber.Ctx) string { return localString(c, LocalRole) }

func localString(c *fiber.Ctx, key string) string {
	s, _ := c.Locals(key).(string)
	return s
}
