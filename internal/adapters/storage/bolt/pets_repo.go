// Package bolt guarda los perfiles en un archivo BoltDB: un bucket,
// key = id, value = JSON. Útil para correr sin base de datos externa.
package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pet-profile-service/internal/domain/pets"

	bolt "github.com/boltdb/bolt"
)

const bucketName = "pets"

type record struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Name      string    `json:"name"`
	Species   string    `json:"species"`
	Breed     string    `json:"breed,omitempty"`
	Age       *int      `json:"age,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type PetsRepo struct {
	db *bolt.DB
}

// Open abre (o crea) el archivo y asegura el bucket.
func Open(path string) (*PetsRepo, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("bolt open: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bolt create bucket: %w", err)
	}

	return &PetsRepo{db: db}, nil
}

func (r *PetsRepo) Close() error {
	return r.db.Close()
}

func (r *PetsRepo) Create(_ context.Context, p pets.Pet) error {
	if p.ID == "" {
		return errors.New("pet id required")
	}
	data, err := json.Marshal(toRecord(p))
	if err != nil {
		return err
	}

	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b.Get([]byte(p.ID)) != nil {
			return fmt.Errorf("pet %s already exists", p.ID)
		}
		return b.Put([]byte(p.ID), data)
	})
}

func (r *PetsRepo) GetByID(_ context.Context, id string) (pets.Pet, error) {
	var p pets.Pet
	err := r.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketName)).Get([]byte(id))
		if v == nil {
			return pets.ErrNotFound
		}
		var err error
		p, err = decode(v)
		return err
	})
	return p, err
}

// ListByOwner recorre el bucket completo; orden = orden de keys.
func (r *PetsRepo) ListByOwner(_ context.Context, ownerID string) ([]pets.Pet, error) {
	out := make([]pets.Pet, 0)
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(_, v []byte) error {
			p, err := decode(v)
			if err != nil {
				return err
			}
			if p.OwnerID == ownerID {
				out = append(out, p)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update lee, aplica y escribe en la misma transacción.
func (r *PetsRepo) Update(_ context.Context, id string, patch pets.Patch) (pets.Pet, error) {
	var updated pets.Pet
	err := r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		v := b.Get([]byte(id))
		if v == nil {
			return pets.ErrNotFound
		}
		current, err := decode(v)
		if err != nil {
			return err
		}
		updated = patch.Apply(current)

		data, err := json.Marshal(toRecord(updated))
		if err != nil {
			return err
		}
		return b.Put([]byte(id), data)
	})
	if err != nil {
		return pets.Pet{}, err
	}
	return updated, nil
}

func (r *PetsRepo) Delete(_ context.Context, id string) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		// Delete sobre key inexistente no falla en bolt.
		return tx.Bucket([]byte(bucketName)).Delete([]byte(id))
	})
}

func (r *PetsRepo) Ping(_ context.Context) error {
	return r.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(bucketName)) == nil {
			return errors.New("bolt: bucket missing")
		}
		return nil
	})
}

func decode(v []byte) (pets.Pet, error) {
	var rec record
	if err := json.Unmarshal(v, &rec); err != nil {
		return pets.Pet{}, fmt.Errorf("bolt decode: %w", err)
	}
	return pets.Pet{
		ID:        rec.ID,
		OwnerID:   rec.OwnerID,
		Name:      rec.Name,
		Species:   rec.Species,
		Breed:     rec.Breed,
		Age:       rec.Age,
		CreatedAt: rec.CreatedAt.UTC(),
	}, nil
}

func toRecord(p pets.Pet) record {
	return record{
		ID:        p.ID,
		OwnerID:   p.OwnerID,
		Name:      p.Name,
		Species:   p.Species,
		Breed:     p.Breed,
		Age:       p.Age,
		CreatedAt: p.CreatedAt.UTC(),
	}
}
