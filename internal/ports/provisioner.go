package ports

import "context"

// Provisioner is the slice of the OCS client the batch orchestrator drives.
// Implementations classify failures as *domain.APIError (application layer)
// or *domain.TransportError (HTTP layer); callers match with errors.As.
type Provisioner interface {
	UserExists(ctx context.Context, name string) (bool, error)
	CreateUser(ctx context.Context, name, initialPassword string) error
	GroupExists(ctx context.Context, name string) (bool, error)
	AddUserToGroup(ctx context.Context, user, group string) error
	Logout()
}
