package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pet-profile-service/internal/domain/pets"

	"github.com/google/uuid"
)

type PetsRepo struct {
	db *sql.DB
}

func NewPetsRepo(db *sql.DB) *PetsRepo {
	return &PetsRepo{db: db}
}

const petColumns = `id, owner_id, name, species, breed, age, created_at`

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pet_profiles (`+petColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		p.ID,
		p.OwnerID,
		p.Name,
		p.Species,
		toNullString(p.Breed),
		toNullInt(p.Age),
		p.CreatedAt,
	)
	return err
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	// id UUID: algo que no parsea no puede existir; no es un error distinto.
	if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil {
		return pets.Pet{}, pets.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+petColumns+` FROM pet_profiles WHERE id = $1`, id)
	p, err := scanPet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pets.Pet{}, pets.ErrNotFound
		}
		return pets.Pet{}, err
	}
	return p, nil
}

func (r *PetsRepo) ListByOwner(ctx context.Context, ownerID string) ([]pets.Pet, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+petColumns+`
		FROM pet_profiles
		WHERE owner_id = $1
		ORDER BY created_at ASC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PetsRepo) Update(ctx context.Context, id string, patch pets.Patch) (pets.Pet, error) {
	if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil {
		return pets.Pet{}, pets.ErrNotFound
	}
	if patch.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	query, args := updateQuery(id, patch)
	p, err := scanPet(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pets.Pet{}, pets.ErrNotFound
		}
		return pets.Pet{}, err
	}
	return p, nil
}

func (r *PetsRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM pet_profiles WHERE id = $1`, id)
	return err
}

func (r *PetsRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// updateQuery arma el UPDATE solo con las columnas presentes en el patch.
func updateQuery(id string, patch pets.Patch) (string, []any) {
	sets := make([]string, 0, 4)
	args := []any{id}

	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Species != nil {
		add("species", *patch.Species)
	}
	if patch.Breed != nil {
		add("breed", toNullString(*patch.Breed))
	}
	if patch.Age.Present {
		add("age", toNullInt(patch.Age.Value))
	}

	q := `UPDATE pet_profiles SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + petColumns
	return q, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPet(row rowScanner) (pets.Pet, error) {
	var (
		p     pets.Pet
		breed sql.NullString
		age   sql.NullInt64
	)
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Species, &breed, &age, &p.CreatedAt); err != nil {
		return pets.Pet{}, err
	}
	p.Breed = breed.String
	if age.Valid {
		v := int(age.Int64)
		p.Age = &v
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

func toNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func toNullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
