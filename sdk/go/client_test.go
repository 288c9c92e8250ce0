package qadashsdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSendsBearerAfterLogin(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v0/auth/login":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "jane.doe@x.com", body["email"])
			_ = json.NewEncoder(w).Encode(map[string]any{"token": "tok", "user": map[string]string{"id": "jane.doe@x.com", "name": "Jane Doe"}})
		case "/api/v0/projects":
			gotAuth = r.Header.Get("Authorization")
			gotQuery = r.URL.RawQuery
			_ = json.NewEncoder(w).Encode([]map[string]any{{"id": "FIN-001", "name": "Ledger", "status": "Active"}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	token, user, err := c.Login(context.Background(), "jane.doe@x.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.Equal(t, "Jane Doe", user.Name)

	items, err := c.ListProjects(context.Background(), ProjectQuery{Status: "Active"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "FIN-001", items[0].ID)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "status=Active", gotQuery)
}

func TestClientDecodesErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"not_found","message":"not found"}}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Result(context.Background(), "RES-NOPE")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "not_found", apiErr.Code)
}
