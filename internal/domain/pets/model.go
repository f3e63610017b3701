package pets

import "time"

// Pet representa el perfil de una mascota registrada por un usuario.
type Pet struct {
	ID      string
	OwnerID string // usuario del User Directory, fijado al crear

	Name    string
	Species string
	Breed   string // opcional, "" = sin dato
	Age     *int   // opcional

	CreatedAt time.Time
}

// OptionalInt distingue "no enviado" de "enviado como null".
// Present=true && Value=nil => limpiar el campo.
type OptionalInt struct {
	Present bool
	Value   *int
}

// Patch lleva solo los campos a sobrescribir. nil = no tocar.
// ID, OwnerID y CreatedAt no se modifican nunca.
type Patch struct {
	Name    *string
	Species *string
	Breed   *string
	Age     OptionalInt
}

func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Species == nil && p.Breed == nil && !p.Age.Present
}

// Apply devuelve una copia de pet con el patch aplicado.
// No valida: update no re-chequea las reglas de creación.
func (p Patch) Apply(pet Pet) Pet {
	if p.Name != nil {
		pet.Name = *p.Name
	}
	if p.Species != nil {
		pet.Species = *p.Species
	}
	if p.Breed != nil {
		pet.Breed = *p.Breed
	}
	if p.Age.Present {
		if p.Age.Value == nil {
			pet.Age = nil
		} else {
			v := *p.Age.Value
			pet.Age = &v
		}
	}
	return pet
}
