package domain

import (
	"errors"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")

	ErrValidation       = errors.New("validación fallida")
	ErrPermissionDenied = errors.New("permiso denegado")
	ErrPersistence      = errors.New("error de persistencia")
	ErrPartialFailure   = errors.New("operación completada parcialmente")
)

// ValidationError campos obligatorios ausentes o mal formados. Se detecta antes de cualquier escritura.
type ValidationError struct {
	Message string
	Fields  []string
}

// NewValidationError construye el error con los campos involucrados.
func NewValidationError(message string, fields ...string) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Fields, ", ")
}

// Is permite errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// PersistenceError el almacén rechazó una lectura o escritura. Err conserva el diagnóstico original.
// Recoverable indica que la vista local ya se resincronizó y el llamador puede reintentar.
type PersistenceError struct {
	Op          string
	Err         error
	Recoverable bool
}

func (e *PersistenceError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is permite errors.Is(err, ErrPersistence).
func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// Detail devuelve el mensaje del almacén sin el prefijo de la operación.
func (e *PersistenceError) Detail() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// PartialFailureError operación de varios pasos donde el primero se aplicó y uno posterior falló.
type PartialFailureError struct {
	Completed string
	Failed    string
	Err       error
}

func (e *PartialFailureError) Error() string {
	return "completado: " + e.Completed + "; falló: " + e.Failed + ": " + e.Err.Error()
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

// Is permite errors.Is(err, ErrPartialFailure).
func (e *PartialFailureError) Is(target error) bool { return target == ErrPartialFailure }
