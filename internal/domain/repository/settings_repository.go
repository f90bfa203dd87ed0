package repository

import "context"

// Claves de configuración por dueño.
const (
	SettingKanbanStages = "kanban_stages"
	SettingPreferences  = "preferences"
)

// SettingsRepository blobs JSON por (dueño, clave). Get devuelve nil si no existe.
type SettingsRepository interface {
	Get(ctx context.Context, ownerID, key string) ([]byte, error)
	Put(ctx context.Context, ownerID, key string, value []byte) error
}
