package entity

// KanbanStage columna configurable del tablero. Si ID es un estado canónico, los leads
// con ese status caen en la columna; los IDs personalizados nunca reciben leads automáticamente.
type KanbanStage struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}
