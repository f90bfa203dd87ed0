// Package jwt firma y valida los tokens de sesión.
//
// sub es el id del perfil. role y master_account_id adelantan el principal para armar el
// equipo sin ir a la base; el middleware de perfil activo los vuelve a leer del perfil,
// así que un token viejo no conserva un rol ni un equipo que el perfil ya no tiene.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken firma, expiración o contenido inválidos.
var ErrInvalidToken = errors.New("jwt: token inválido")

// Session principal que viaja en el token.
type Session struct {
	ProfileID       string
	Role            string // "master" | "user"
	MasterAccountID string // vacío para un master
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Role            string `json:"role"`
	MasterAccountID string `json:"master_account_id,omitempty"`
}

// Issue firma la sesión con HS256. ttl negativo produce un token ya vencido (tests).
func Issue(secret, issuer string, ttl time.Duration, s Session) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	if s.ProfileID == "" {
		return "", fmt.Errorf("jwt: sesión sin perfil")
	}
	now := time.Now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   s.ProfileID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role:            s.Role,
		MasterAccountID: s.MasterAccountID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Verify valida firma y expiración y devuelve la sesión. Todo rechazo envuelve ErrInvalidToken.
func Verify(secret, token string) (Session, error) {
	if secret == "" {
		return Session{}, fmt.Errorf("jwt: secret vacío")
	}
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (interface{}, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Session{}, fmt.Errorf("%w: sin sub", ErrInvalidToken)
	}
	return Session{
		ProfileID:       claims.Subject,
		Role:            claims.Role,
		MasterAccountID: claims.MasterAccountID,
	}, nil
}
