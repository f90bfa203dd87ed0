package entity

import "time"

// Identity credenciales de acceso. Se crea pre-confirmada cuando la provisiona un master.
type Identity struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt
	Confirmed    bool
	CreatedAt    time.Time
}
