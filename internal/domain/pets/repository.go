package pets

import "context"

// Repository es el Pet Record Store.
// - GetByID y Update devuelven ErrNotFound si no existe (ids malformados incluidos).
// - ListByOwner devuelve slice vacío, no error, si no hay coincidencias.
// - Delete no falla si el registro ya no existe.
type Repository interface {
	Create(ctx context.Context, p Pet) error
	GetByID(ctx context.Context, id string) (Pet, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Pet, error)
	Update(ctx context.Context, id string, patch Patch) (Pet, error)
	Delete(ctx context.Context, id string) error
}
