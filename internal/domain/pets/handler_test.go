package pets

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pet-profile-service/internal/middleware"
	"pet-profile-service/internal/platform/logger"
	"pet-profile-service/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, repo *fakeRepo, dir *fakeDirectory) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Use(middleware.AuthContext(nil))
	RegisterRoutes(r, newTestService(repo, dir), logger.Nop())

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func call(t *testing.T, ts *httptest.Server, method, path, userID, body string) (int, map[string]any, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, rdr)
	require.NoError(t, err)
	if userID != "" {
		req.Header.Set(middleware.DebugUserHeader, userID)
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.Equal(t, "application/json", res.Header.Get("Content-Type"))

	var obj map[string]any
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		require.NoError(t, json.Unmarshal(raw, &obj))
	}
	return res.StatusCode, obj, raw
}

func TestCreateHandler_CanonicalShape(t *testing.T) {
	repo := newFakeRepo()
	ts := newTestServer(t, repo, &fakeDirectory{users: map[string]bool{"u1": true}})

	before := testutil.ToFloat64(metrics.PetCreates.WithLabelValues("created"))

	// ownerId/userId del body se ignoran: el owner es el caller.
	st, body, raw := call(t, ts, http.MethodPost, "/pets", "u1", `{"name":"Rex","species":"dog","userId":"u2","ownerId":"u3"}`)
	require.Equal(t, http.StatusCreated, st, string(raw))

	require.Len(t, body, 7)
	for _, k := range []string{"id", "ownerId", "name", "species", "breed", "age", "createdAt"} {
		require.Contains(t, body, k)
	}
	require.Equal(t, "u1", body["ownerId"])
	require.Equal(t, "", body["breed"])
	require.Nil(t, body["age"])
	require.NotEmpty(t, body["id"])

	require.Equal(t, before+1, testutil.ToFloat64(metrics.PetCreates.WithLabelValues("created")))
	require.Len(t, repo.byID, 1)
}

func TestCreateHandler_Errors(t *testing.T) {
	cases := []struct {
		name    string
		user    string
		body    string
		dir     *fakeDirectory
		status  int
		message string
	}{
		{"invalid json", "u1", `{"name":`, &fakeDirectory{}, http.StatusBadRequest, "invalid json"},
		{"not an object", "u1", `[{"name":"Rex"}]`, &fakeDirectory{}, http.StatusBadRequest, "invalid json"},
		{"empty body", "u1", ``, &fakeDirectory{}, http.StatusBadRequest, "validation failed"},
		{"unauthenticated", "", `{"name":"Rex","species":"dog"}`, &fakeDirectory{}, http.StatusUnauthorized, "unauthorized"},
		{"owner not found", "ghost", `{"name":"Rex","species":"dog"}`, &fakeDirectory{users: map[string]bool{}}, http.StatusBadRequest, "owner not found"},
		{"directory down", "u1", `{"name":"Rex","species":"dog"}`, &fakeDirectory{err: errors.New("timeout")}, http.StatusInternalServerError, "user directory unavailable"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newFakeRepo()
			ts := newTestServer(t, repo, tc.dir)

			st, body, raw := call(t, ts, http.MethodPost, "/pets/", tc.user, tc.body)
			require.Equal(t, tc.status, st, string(raw))
			require.Equal(t, tc.message, body["message"])
			require.Empty(t, repo.byID, "nothing may be persisted")
		})
	}
}

func TestCreateHandler_ValidationBody(t *testing.T) {
	cases := []struct {
		name string
		body string
		want map[string]string // field -> message
	}{
		{"missing name and fractional age", `{"species":"dog","age":1.5}`,
			map[string]string{"name": "name is required", "age": "age must be an integer"}},
		{"age as string", `{"species":"dog","age":"3"}`,
			map[string]string{"name": "name is required", "age": "age must be an integer"}},
		{"name as number", `{"name":5,"species":"dog"}`,
			map[string]string{"name": "name must be a string"}},
		{"every field wrong", `{"name":true,"species":["dog"],"breed":7,"age":{}}`,
			map[string]string{"name": "name must be a string", "species": "species must be a string", "breed": "breed must be a string", "age": "age must be an integer"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newFakeRepo()
			ts := newTestServer(t, repo, &fakeDirectory{users: map[string]bool{"u1": true}})

			st, body, raw := call(t, ts, http.MethodPost, "/pets", "u1", tc.body)
			require.Equal(t, http.StatusBadRequest, st, string(raw))
			require.Equal(t, "validation failed", body["message"])

			errs, ok := body["errors"].([]any)
			require.True(t, ok, string(raw))
			got := map[string]string{}
			for _, e := range errs {
				fe := e.(map[string]any)
				got[fe["field"].(string)] = fe["message"].(string)
			}
			require.Equal(t, tc.want, got)
			require.Empty(t, repo.byID)
		})
	}
}

func TestCreateHandler_AcceptsIntegralFloatAge(t *testing.T) {
	ts := newTestServer(t, newFakeRepo(), &fakeDirectory{users: map[string]bool{"u1": true}})

	st, body, raw := call(t, ts, http.MethodPost, "/pets", "u1", `{"name":"Rex","species":"dog","age":3.0,"breed":null}`)
	require.Equal(t, http.StatusCreated, st, string(raw))
	require.Equal(t, float64(3), body["age"])
	require.Equal(t, "", body["breed"])
}

func TestCreateHandler_StorageFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.failWith = errors.New("disk full")
	ts := newTestServer(t, repo, &fakeDirectory{users: map[string]bool{"u1": true}})

	st, body, _ := call(t, ts, http.MethodPost, "/pets", "u1", `{"name":"Rex","species":"dog"}`)
	require.Equal(t, http.StatusInternalServerError, st)
	require.Equal(t, "storage error", body["message"])
}

func TestListByOwnerRoute_NotShadowedByID(t *testing.T) {
	repo := newFakeRepo()
	ts := newTestServer(t, repo, &fakeDirectory{users: map[string]bool{"abc": true, "other": true}})

	call(t, ts, http.MethodPost, "/pets", "abc", `{"name":"Rex","species":"dog"}`)
	call(t, ts, http.MethodPost, "/pets", "other", `{"name":"Tom","species":"cat"}`)

	st, _, raw := call(t, ts, http.MethodGet, "/pets/user/abc", "", "")
	require.Equal(t, http.StatusOK, st)

	var list []map[string]any
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list, 1)
	require.Equal(t, "abc", list[0]["ownerId"])

	st, _, raw = call(t, ts, http.MethodGet, "/pets/user/nobody", "", "")
	require.Equal(t, http.StatusOK, st)
	require.JSONEq(t, `[]`, string(raw))
}

func TestGetHandler(t *testing.T) {
	ts := newTestServer(t, newFakeRepo(), &fakeDirectory{users: map[string]bool{"u1": true}})

	_, created, _ := call(t, ts, http.MethodPost, "/pets", "u1", `{"name":"Rex","species":"dog","breed":"lab","age":3}`)

	st, got, _ := call(t, ts, http.MethodGet, "/pets/"+created["id"].(string), "", "")
	require.Equal(t, http.StatusOK, st)
	require.Equal(t, created, got)

	st, body, _ := call(t, ts, http.MethodGet, "/pets/does-not-exist", "", "")
	require.Equal(t, http.StatusNotFound, st)
	require.Equal(t, "Pet not found", body["message"])
}

func TestUpdateHandler(t *testing.T) {
	ts := newTestServer(t, newFakeRepo(), &fakeDirectory{users: map[string]bool{"u1": true}})

	_, created, _ := call(t, ts, http.MethodPost, "/pets", "u1", `{"name":"Rex","species":"dog","breed":"lab","age":3}`)
	id := created["id"].(string)

	st, _, _ := call(t, ts, http.MethodPut, "/pets/"+id, "", `{"age":5}`)
	require.Equal(t, http.StatusUnauthorized, st)

	// Cualquier usuario autenticado puede editar (sin chequeo de ownership).
	st, updated, _ := call(t, ts, http.MethodPut, "/pets/"+id, "someone-else", `{"age":5,"id":"hijack","ownerId":"x","createdAt":"2000-01-01T00:00:00Z"}`)
	require.Equal(t, http.StatusOK, st)

	want := map[string]any{}
	for k, v := range created {
		want[k] = v
	}
	want["age"] = float64(5)
	require.Equal(t, want, updated)

	st, updated, _ = call(t, ts, http.MethodPut, "/pets/"+id, "u1", `{"age":null,"breed":null}`)
	require.Equal(t, http.StatusOK, st)
	require.Nil(t, updated["age"])
	require.Equal(t, "", updated["breed"])

	st, body, _ := call(t, ts, http.MethodPut, "/pets/"+id, "u1", `{"name":7}`)
	require.Equal(t, http.StatusBadRequest, st)
	require.Equal(t, "name must be a string", body["message"])

	st, _, _ = call(t, ts, http.MethodPut, "/pets/"+id, "u1", `not json`)
	require.Equal(t, http.StatusBadRequest, st)

	// age con la misma aritmética que create: 3.0 vale, fuera de int32 no.
	st, updated, _ = call(t, ts, http.MethodPut, "/pets/"+id, "u1", `{"age":3.0}`)
	require.Equal(t, http.StatusOK, st)
	require.Equal(t, float64(3), updated["age"])

	st, body, _ = call(t, ts, http.MethodPut, "/pets/"+id, "u1", `{"age":3000000000}`)
	require.Equal(t, http.StatusBadRequest, st)
	require.Equal(t, "age is out of range", body["message"])

	st, body, _ = call(t, ts, http.MethodPut, "/pets/"+id, "u1", `{"age":2.5}`)
	require.Equal(t, http.StatusBadRequest, st)
	require.Equal(t, "age must be an integer or null", body["message"])

	st, _, _ = call(t, ts, http.MethodPut, "/pets/missing", "u1", `{"name":"x"}`)
	require.Equal(t, http.StatusNotFound, st)
}

func TestDeleteHandler(t *testing.T) {
	ts := newTestServer(t, newFakeRepo(), &fakeDirectory{users: map[string]bool{"u1": true}})

	_, created, _ := call(t, ts, http.MethodPost, "/pets", "u1", `{"name":"Rex","species":"dog"}`)
	id := created["id"].(string)

	st, _, _ := call(t, ts, http.MethodDelete, "/pets/"+id, "", "")
	require.Equal(t, http.StatusUnauthorized, st)

	for i := 0; i < 2; i++ {
		st, body, _ := call(t, ts, http.MethodDelete, "/pets/"+id, "u1", "")
		require.Equal(t, http.StatusOK, st)
		require.Equal(t, "Pet deleted", body["message"])
	}

	st, _, _ = call(t, ts, http.MethodGet, "/pets/"+id, "", "")
	require.Equal(t, http.StatusNotFound, st)
}

func TestDecodePatch(t *testing.T) {
	p, err := decodePatch(map[string]json.RawMessage{
		"name":    json.RawMessage(`"Max"`),
		"age":     json.RawMessage(`null`),
		"unknown": json.RawMessage(`{}`),
	})
	require.NoError(t, err)
	require.Equal(t, "Max", *p.Name)
	require.Nil(t, p.Species)
	require.True(t, p.Age.Present)
	require.Nil(t, p.Age.Value)

	_, err = decodePatch(map[string]json.RawMessage{"age": json.RawMessage(`2.5`)})
	require.Error(t, err)

	p, err = decodePatch(map[string]json.RawMessage{"age": json.RawMessage(`-4.0`)})
	require.NoError(t, err)
	require.Equal(t, -4, *p.Age.Value, "update does not enforce age >= 0")

	_, err = decodePatch(map[string]json.RawMessage{"age": json.RawMessage(`-3000000000`)})
	require.EqualError(t, err, "age is out of range")

	p, err = decodePatch(nil)
	require.NoError(t, err)
	require.True(t, p.IsEmpty())
}

func TestDecodeCreate(t *testing.T) {
	in := decodeCreate(map[string]json.RawMessage{
		"name":    json.RawMessage(`"Rex"`),
		"species": json.RawMessage(`null`),
		"age":     json.RawMessage(`"3"`),
		"ownerId": json.RawMessage(`"someone"`),
	})
	require.Equal(t, "Rex", in.Name)
	require.Equal(t, "", in.Species)
	require.Nil(t, in.Age)
	require.Equal(t, map[string]string{"age": "age must be an integer"}, in.typeErrors)

	var verr *ValidationError
	require.ErrorAs(t, validateCreate(in), &verr)
	require.Equal(t, []string{"species", "age"}, verr.FieldNames())

	in = decodeCreate(nil)
	require.Nil(t, in.typeErrors)
	require.ErrorAs(t, validateCreate(in), &verr)
	require.Equal(t, []string{"name", "species"}, verr.FieldNames())
}
