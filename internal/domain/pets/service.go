package pets

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-profile-service/internal/ports/directory"

	"github.com/google/uuid"
)

type Service struct {
	repo  Repository
	users directory.UserDirectory
	now   func() time.Time
	newID func() string
}

func NewService(repo Repository, users directory.UserDirectory) *Service {
	return &Service{
		repo:  repo,
		users: users,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// createState viaja por las etapas del pipeline de creación.
type createState struct {
	ownerID string
	in      CreateInput
	pet     Pet
}

type createStage func(ctx context.Context, st *createState) error

// Create: validate -> authenticate -> checkOwner -> assignID -> persist.
// Cada etapa corta con su propio tipo de error; no hay reintentos.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (Pet, error) {
	st := &createState{ownerID: strings.TrimSpace(ownerID), in: in}

	stages := []createStage{
		s.validate,
		s.authenticate,
		s.checkOwner,
		s.assignID,
		s.persist,
	}
	for _, stage := range stages {
		if err := stage(ctx, st); err != nil {
			return Pet{}, err
		}
	}
	return st.pet, nil
}

func (s *Service) validate(_ context.Context, st *createState) error {
	return validateCreate(st.in)
}

func (s *Service) authenticate(_ context.Context, st *createState) error {
	if st.ownerID == "" {
		return ErrUnauthenticated
	}
	return nil
}

func (s *Service) checkOwner(ctx context.Context, st *createState) error {
	if s.users == nil {
		return &DependencyError{Err: errors.New("user directory not configured")}
	}
	exists, err := s.users.UserExists(ctx, st.ownerID)
	if err != nil {
		return &DependencyError{Err: err}
	}
	if !exists {
		return ErrOwnerNotFound
	}
	return nil
}

// assignID genera el id antes de persistir para devolverlo sin re-leer.
// createdAt va en milisegundos: es la precisión que guarda mongo.
func (s *Service) assignID(_ context.Context, st *createState) error {
	p := Pet{
		ID:        s.newID(),
		OwnerID:   st.ownerID,
		Name:      strings.TrimSpace(st.in.Name),
		Species:   strings.TrimSpace(st.in.Species),
		Breed:     strings.TrimSpace(st.in.Breed),
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if st.in.Age != nil {
		age := int(*st.in.Age)
		p.Age = &age
	}
	st.pet = p
	return nil
}

func (s *Service) persist(ctx context.Context, st *createState) error {
	if err := s.repo.Create(ctx, st.pet); err != nil {
		return &StorageError{Op: "create", Err: err}
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Pet{}, ErrNotFound
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Pet{}, ErrNotFound
		}
		return Pet{}, &StorageError{Op: "get", Err: err}
	}
	return p, nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]Pet, error) {
	items, err := s.repo.ListByOwner(ctx, strings.TrimSpace(ownerID))
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	if items == nil {
		items = []Pet{}
	}
	return items, nil
}

// Update sobrescribe los campos enviados sin validar (ver DESIGN.md).
func (s *Service) Update(ctx context.Context, id string, patch Patch) (Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Pet{}, ErrNotFound
	}
	p, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Pet{}, ErrNotFound
		}
		return Pet{}, &StorageError{Op: "update", Err: err}
	}
	return p, nil
}

// Delete es idempotente: borrar algo inexistente también es éxito.
func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return &StorageError{Op: "delete", Err: err}
	}
	return nil
}
