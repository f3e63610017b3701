package directory

import "context"

// UserDirectory consulta al servicio de perfiles de usuario.
// - (true, nil): el usuario existe
// - (false, nil): el directorio respondió "no existe"
// - (_, err): no se pudo saber (caído, timeout, status inesperado)
type UserDirectory interface {
	UserExists(ctx context.Context, userID string) (bool, error)
}
