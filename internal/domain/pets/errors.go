package pets

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound        = errors.New("pet not found")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrOwnerNotFound   = errors.New("owner not found")

	// Sentinels para errors.Is sobre los errores tipados.
	ErrDependency = errors.New("dependency unavailable")
	ErrStorage    = errors.New("storage error")
)

// FieldError describe una regla violada en el payload de creación.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError junta todas las violaciones, no solo la primera.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// FieldNames devuelve los campos violados en orden.
func (e *ValidationError) FieldNames() []string {
	out := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		out = append(out, f.Field)
	}
	return out
}

// DependencyError: el User Directory no respondió o respondió algo inesperado.
// Es reintentable por el caller.
type DependencyError struct {
	Err error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("user directory unavailable: %v", e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

func (e *DependencyError) Is(target error) bool { return target == ErrDependency }

// StorageError envuelve cualquier falla del repositorio.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }
