package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pet-profile-service/internal/domain/pets"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// petDocument es la forma en la colección: owner en userId, fecha en createdAt.
// Los documentos nuevos guardan el UUID del servicio como _id string. Los
// heredados pueden traer _id/userId como ObjectId: se leen como hex (codec
// por defecto del driver) y los filtros matchean ambas formas (idFilter).
type petDocument struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"userId"`
	Name      string    `bson:"name"`
	Species   string    `bson:"species"`
	Breed     string    `bson:"breed,omitempty"`
	Age       *int      `bson:"age,omitempty"`
	CreatedAt time.Time `bson:"createdAt"`
}

type PetsRepo struct {
	col *mongo.Collection
}

func NewPetsRepo(col *mongo.Collection) *PetsRepo {
	return &PetsRepo{col: col}
}

// EnsureIndexes crea el índice por userId (listByOwner).
func (r *PetsRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetName("userId_1"),
	})
	if err != nil {
		return fmt.Errorf("mongo create index: %w", err)
	}
	return nil
}

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	if _, err := r.col.InsertOne(ctx, toDocument(p)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("pet %s already exists: %w", p.ID, err)
		}
		return err
	}
	return nil
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	var d petDocument
	if err := r.col.FindOne(ctx, idFilter(id)).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return pets.Pet{}, pets.ErrNotFound
		}
		return pets.Pet{}, err
	}
	return fromDocument(d), nil
}

func (r *PetsRepo) ListByOwner(ctx context.Context, ownerID string) ([]pets.Pet, error) {
	cur, err := r.col.Find(ctx, ownerFilter(ownerID))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]pets.Pet, 0)
	for cur.Next(ctx) {
		var d petDocument
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, fromDocument(d))
	}
	return out, cur.Err()
}

func (r *PetsRepo) Update(ctx context.Context, id string, patch pets.Patch) (pets.Pet, error) {
	update := updateDocument(patch)
	if len(update) == 0 {
		return r.GetByID(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var d petDocument
	if err := r.col.FindOneAndUpdate(ctx, idFilter(id), update, opts).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return pets.Pet{}, pets.ErrNotFound
		}
		return pets.Pet{}, err
	}
	return fromDocument(d), nil
}

// Delete no mira DeletedCount: borrar algo ausente es éxito.
func (r *PetsRepo) Delete(ctx context.Context, id string) error {
	_, err := r.col.DeleteOne(ctx, idFilter(id))
	return err
}

// Ping se usa en /ready.
func (r *PetsRepo) Ping(ctx context.Context) error {
	return r.col.Database().Client().Ping(ctx, nil)
}

func idFilter(id string) bson.M {
	return bson.M{"_id": idValue(id)}
}

func ownerFilter(ownerID string) bson.M {
	return bson.M{"userId": idValue(ownerID)}
}

// idValue: si el id es un ObjectId en hex, matchea el string o el ObjectId.
func idValue(id string) any {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return id
	}
	return bson.M{"$in": bson.A{id, oid}}
}

// updateDocument arma $set/$unset solo con los campos presentes.
// breed "" y age null se guardan como ausencia ($unset).
func updateDocument(p pets.Patch) bson.M {
	set := bson.M{}
	unset := bson.M{}

	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Species != nil {
		set["species"] = *p.Species
	}
	if p.Breed != nil {
		if *p.Breed == "" {
			unset["breed"] = ""
		} else {
			set["breed"] = *p.Breed
		}
	}
	if p.Age.Present {
		if p.Age.Value == nil {
			unset["age"] = ""
		} else {
			set["age"] = *p.Age.Value
		}
	}

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

func toDocument(p pets.Pet) petDocument {
	return petDocument{
		ID:        p.ID,
		UserID:    p.OwnerID,
		Name:      p.Name,
		Species:   p.Species,
		Breed:     p.Breed,
		Age:       p.Age,
		CreatedAt: p.CreatedAt.UTC(),
	}
}

func fromDocument(d petDocument) pets.Pet {
	return pets.Pet{
		ID:        d.ID,
		OwnerID:   d.UserID,
		Name:      d.Name,
		Species:   d.Species,
		Breed:     d.Breed,
		Age:       d.Age,
		CreatedAt: d.CreatedAt.UTC(),
	}
}
