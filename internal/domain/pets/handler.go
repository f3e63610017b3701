package pets

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"pet-profile-service/internal/middleware"
	"pet-profile-service/internal/platform/logger"
	"pet-profile-service/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	if log == nil {
		log = logger.Nop()
	}

	r.Route("/pets", func(pr chi.Router) {
		pr.Post("/", createPetHandler(svc, log))

		// Tiene que ir ANTES que /{petID}: si no, "user" se toma como id.
		pr.Get("/user/{userID}", listByOwnerHandler(svc, log))

		pr.Get("/{petID}", getPetHandler(svc, log))
		pr.Put("/{petID}", updatePetHandler(svc, log))
		pr.Delete("/{petID}", deletePetHandler(svc, log))
	})
}

// createPetRequest documenta el body; el handler decodifica campo por campo.
type createPetRequest struct {
	Name    string   `json:"name" example:"Rex"`
	Species string   `json:"species" example:"dog"`
	Breed   string   `json:"breed" example:"labrador"`
	Age     *float64 `json:"age" example:"3"`
}

// petResponse es la forma canónica. Siempre las mismas 7 keys:
// breed "" y age null cuando no hay dato.
type petResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Name      string    `json:"name"`
	Species   string    `json:"species"`
	Breed     string    `json:"breed"`
	Age       *int      `json:"age"`
	CreatedAt time.Time `json:"createdAt"`
}

type messageResponse struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// createPetHandler crea un perfil para el usuario autenticado.
//
//	@Summary	Create a pet profile
//	@Tags		pets
//	@Accept		json
//	@Produce	json
//	@Param		body	body		createPetRequest	true	"pet profile"
//	@Success	201		{object}	petResponse
//	@Failure	400		{object}	messageResponse	"validation error or owner not found"
//	@Failure	401		{object}	messageResponse
//	@Failure	500		{object}	messageResponse	"user directory or storage failure"
//	@Security	BearerAuth
//	@Router		/pets/ [post]
func createPetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Decodificamos a map: un tipo inválido es un error de campo, no de JSON.
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			metrics.PetCreates.WithLabelValues("invalid").Inc()
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: "invalid json"})
			return
		}

		// El owner es siempre el caller; cualquier ownerId/userId del body se ignora.
		var ownerID string
		if claims, ok := middleware.GetClaims(r.Context()); ok {
			ownerID = claims.UserID
		}

		p, err := svc.Create(r.Context(), ownerID, decodeCreate(raw))
		metrics.PetCreates.WithLabelValues(createOutcome(err)).Inc()
		if err != nil {
			writeError(w, r, log, err)
			return
		}

		logger.FromContext(r.Context(), log).Info("pet created", map[string]any{
			"pet_id":   p.ID,
			"owner_id": p.OwnerID,
		})
		writeJSON(w, http.StatusCreated, toPetResponse(p))
	}
}

// listByOwnerHandler lista las mascotas de un usuario (sin auth).
//
//	@Summary	List pet profiles of a user
//	@Tags		pets
//	@Produce	json
//	@Param		userID	path		string	true	"owner id"
//	@Success	200		{array}		petResponse
//	@Failure	500		{object}	messageResponse
//	@Router		/pets/user/{userID} [get]
func listByOwnerHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListByOwner(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getPetHandler devuelve un perfil por id (sin auth).
//
//	@Summary	Get a pet profile
//	@Tags		pets
//	@Produce	json
//	@Param		petID	path		string	true	"pet id"
//	@Success	200		{object}	petResponse
//	@Failure	404		{object}	messageResponse
//	@Failure	500		{object}	messageResponse
//	@Router		/pets/{petID} [get]
func getPetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.GetByID(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

// updatePetHandler sobrescribe campos. Requiere auth pero NO chequea ownership.
//
//	@Summary	Update a pet profile
//	@Tags		pets
//	@Accept		json
//	@Produce	json
//	@Param		petID	path		string				true	"pet id"
//	@Param		body	body		createPetRequest	true	"fields to overwrite"
//	@Success	200		{object}	petResponse
//	@Failure	400		{object}	messageResponse
//	@Failure	401		{object}	messageResponse
//	@Failure	404		{object}	messageResponse
//	@Failure	500		{object}	messageResponse
//	@Security	BearerAuth
//	@Router		/pets/{petID} [put]
func updatePetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !authenticated(r) {
			writeError(w, r, log, ErrUnauthenticated)
			return
		}

		// Decodificamos a map para detectar presencia ("age": null limpia).
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: "invalid json"})
			return
		}

		patch, err := decodePatch(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: err.Error()})
			return
		}

		updated, err := svc.Update(r.Context(), chi.URLParam(r, "petID"), patch)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(updated))
	}
}

// deletePetHandler borra un perfil. Idempotente; requiere auth, sin ownership.
//
//	@Summary	Delete a pet profile
//	@Tags		pets
//	@Produce	json
//	@Param		petID	path		string	true	"pet id"
//	@Success	200		{object}	messageResponse
//	@Failure	401		{object}	messageResponse
//	@Failure	500		{object}	messageResponse
//	@Security	BearerAuth
//	@Router		/pets/{petID} [delete]
func deletePetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !authenticated(r) {
			writeError(w, r, log, ErrUnauthenticated)
			return
		}
		if err := svc.Delete(r.Context(), chi.URLParam(r, "petID")); err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "Pet deleted"})
	}
}

// decodeCreate arma el input de creación. ownerId/userId y keys
// desconocidas se ignoran; null cuenta como ausente.
func decodeCreate(raw map[string]json.RawMessage) CreateInput {
	var in CreateInput
	bad := func(field, msg string) {
		if in.typeErrors == nil {
			in.typeErrors = map[string]string{}
		}
		in.typeErrors[field] = msg
	}

	for _, f := range []struct {
		key string
		dst *string
	}{{"name", &in.Name}, {"species", &in.Species}, {"breed", &in.Breed}} {
		s, ok := rawString(raw, f.key)
		if !ok {
			bad(f.key, f.key+" must be a string")
			continue
		}
		if s != nil {
			*f.dst = *s
		}
	}

	age, ok := rawNumber(raw, "age")
	if !ok {
		bad("age", msgAgeInteger)
	}
	in.Age = age

	return in
}

// decodePatch toma name/species/breed/age. id, ownerId, userId, createdAt
// y keys desconocidas se ignoran (clientes que reenvían el registro completo).
// Age acepta los mismos números que create (3 o 3.0, rango int32) pero no
// exige >= 0: update no valida reglas de negocio.
func decodePatch(raw map[string]json.RawMessage) (Patch, error) {
	var p Patch

	str := func(key string) (*string, error) {
		s, ok := rawString(raw, key)
		if !ok {
			return nil, errors.New(key + " must be a string")
		}
		return s, nil
	}

	var err error
	if p.Name, err = str("name"); err != nil {
		return Patch{}, err
	}
	if p.Species, err = str("species"); err != nil {
		return Patch{}, err
	}
	if p.Breed, err = str("breed"); err != nil {
		return Patch{}, err
	}

	if _, ok := raw["age"]; ok {
		p.Age.Present = true
		f, ok := rawNumber(raw, "age")
		if !ok {
			return Patch{}, errors.New("age must be an integer or null")
		}
		if f != nil {
			age, msg := integralAge(*f)
			if msg == msgAgeInteger {
				return Patch{}, errors.New("age must be an integer or null")
			}
			if msg != "" {
				return Patch{}, errors.New(msg)
			}
			p.Age.Value = &age
		}
	}

	return p, nil
}

// rawString devuelve (nil, true) si la key no vino y "" si vino null.
// ok=false si el valor no es un string.
func rawString(raw map[string]json.RawMessage, key string) (*string, bool) {
	v, present := raw[key]
	if !present {
		return nil, true
	}
	var s *string
	if err := json.Unmarshal(v, &s); err != nil {
		return nil, false
	}
	if s == nil {
		empty := ""
		s = &empty
	}
	return s, true
}

// rawNumber devuelve (nil, true) si la key no vino o vino null.
// ok=false si el valor no es un número.
func rawNumber(raw map[string]json.RawMessage, key string) (*float64, bool) {
	v, present := raw[key]
	if !present {
		return nil, true
	}
	var f *float64
	if err := json.Unmarshal(v, &f); err != nil {
		return nil, false
	}
	return f, true
}

func authenticated(r *http.Request) bool {
	claims, ok := middleware.GetClaims(r.Context())
	return ok && claims.UserID != ""
}

// writeError es el único punto de traducción error -> HTTP.
func writeError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	var verr *ValidationError

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "validation failed", Errors: verr.Fields})
	case errors.Is(err, ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, messageResponse{Message: "unauthorized"})
	case errors.Is(err, ErrOwnerNotFound):
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "owner not found"})
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, messageResponse{Message: "Pet not found"})
	case errors.Is(err, ErrDependency):
		logger.FromContext(r.Context(), log).Error("user directory failure", map[string]any{"err": err})
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "user directory unavailable"})
	case errors.Is(err, ErrStorage):
		logger.FromContext(r.Context(), log).Error("storage failure", map[string]any{"err": err})
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "storage error"})
	default:
		logger.FromContext(r.Context(), log).Error("unexpected error", map[string]any{"err": err})
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "internal error"})
	}
}

func createOutcome(err error) string {
	var verr *ValidationError
	switch {
	case err == nil:
		return "created"
	case errors.As(err, &verr):
		return "invalid"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrOwnerNotFound):
		return "owner_not_found"
	case errors.Is(err, ErrDependency):
		return "dependency_error"
	case errors.Is(err, ErrStorage):
		return "storage_error"
	default:
		return "error"
	}
}

func toPetResponse(p Pet) petResponse {
	return petResponse{
		ID:        p.ID,
		OwnerID:   p.OwnerID,
		Name:      p.Name,
		Species:   p.Species,
		Breed:     p.Breed,
		Age:       p.Age,
		CreatedAt: p.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
