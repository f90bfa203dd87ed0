package repository

import "context"

// ProvisioningTx ejecuta el alta de identidad + perfil dentro de una misma transacción.
type ProvisioningTx interface {
	RunProvisioning(ctx context.Context, fn func(identities IdentityRepository, profiles ProfileRepository) error) error
}
