package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDoJSON_DecodesAndSendsHeaders(t *testing.T) {
	var got *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"42"}`))
	}))
	defer ts.Close()

	c, err := NewWithBaseURL(ts.URL+"/", time.Second)
	require.NoError(t, err)
	c.Headers = map[string]string{"X-Api-Key": "secret"}

	var out struct {
		ID string `json:"id"`
	}
	err = c.DoJSON(context.Background(), http.MethodGet, "user/42", map[string]string{"X-Request-ID": "abc"}, nil, &out)
	require.NoError(t, err)
	require.Equal(t, "42", out.ID)

	require.Equal(t, "secret", got.Header.Get("X-Api-Key"))
	require.Equal(t, "abc", got.Header.Get("X-Request-ID"))
	require.Equal(t, "/user/42", got.URL.Path)
}

func TestDoJSON_Non2xxIsHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer ts.Close()

	c := New(time.Second)
	err := c.DoJSON(context.Background(), http.MethodGet, ts.URL+"/x", nil, nil, nil)

	code, ok := StatusCode(err)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, code)

	var herr *HTTPError
	require.True(t, errors.As(err, &herr))
	require.Equal(t, "nope", herr.Body)
}

func TestDoJSON_TransportErrorIsNotHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	err := New(time.Second).DoJSON(context.Background(), http.MethodGet, url, nil, nil, nil)
	require.Error(t, err)
	_, ok := StatusCode(err)
	require.False(t, ok)
}

func TestResolveURL(t *testing.T) {
	c := New(0)
	_, err := c.resolveURL("/relative")
	require.Error(t, err, "relative path without BaseURL must fail")

	_, err = NewWithBaseURL("::not a url", 0)
	require.Error(t, err)
}
