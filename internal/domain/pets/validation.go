package pets

import (
	"math"
	"strings"
)

const (
	msgNameRequired    = "name is required"
	msgSpeciesRequired = "species is required"
	msgAgeInteger      = "age must be an integer"
	msgAgeNegative     = "age must be greater than or equal to 0"
	msgAgeRange        = "age is out of range"
)

// CreateInput es el payload de creación tal como llega.
// Age es float64 porque JSON no distingue enteros; validate exige que sea entero.
type CreateInput struct {
	Name    string
	Species string
	Breed   string
	Age     *float64

	// typeErrors: campos que vinieron con un tipo JSON inválido (campo -> mensaje).
	typeErrors map[string]string
}

// integralAge acepta números enteros (3 o 3.0) que entran en un int32,
// el rango que guardan todos los stores.
func integralAge(v float64) (int, string) {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v):
		return 0, msgAgeInteger
	case v > math.MaxInt32 || v < math.MinInt32:
		return 0, msgAgeRange
	}
	return int(v), ""
}

func validateCreate(in CreateInput) error {
	var fields []FieldError
	add := func(field, msg string) {
		fields = append(fields, FieldError{Field: field, Message: msg})
	}

	if msg, bad := in.typeErrors["name"]; bad {
		add("name", msg)
	} else if strings.TrimSpace(in.Name) == "" {
		add("name", msgNameRequired)
	}

	if msg, bad := in.typeErrors["species"]; bad {
		add("species", msg)
	} else if strings.TrimSpace(in.Species) == "" {
		add("species", msgSpeciesRequired)
	}

	if msg, bad := in.typeErrors["breed"]; bad {
		add("breed", msg)
	}

	if msg, bad := in.typeErrors["age"]; bad {
		add("age", msg)
	} else if in.Age != nil {
		if _, msg := integralAge(*in.Age); msg != "" {
			add("age", msg)
		} else if *in.Age < 0 {
			add("age", msgAgeNegative)
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
