// Package phone normaliza números telefónicos a E.164.
package phone

import (
	"strings"

	"github.com/ttacon/libphonenumber"
)

// Normalize devuelve el número en formato E.164 si es válido para la región indicada
// (o trae prefijo internacional). Si no se puede interpretar, devuelve el valor original recortado.
func Normalize(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	num, err := libphonenumber.Parse(raw, strings.ToUpper(region))
	if err != nil {
		return raw
	}
	if !libphonenumber.IsValidNumber(num) {
		return raw
	}
	return libphonenumber.Format(num, libphonenumber.E164)
}
