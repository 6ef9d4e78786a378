package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog/selector/internal/catalog"
)

func TestCatalogClient_LoadCategories(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/catalog.json", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"categories": [{"id": 5, "name": "Music", "children": [` +
			`{"id": 51, "name": "Guitars", "properties": [` +
			`{"id": 501, "name": "Strings", "options": [{"id": 1, "name": "6"}, {"id": 2, "name": "Other"}]}]}]}]}`))
	}))
	defer srv.Close()

	c := NewCatalogClient(srv.URL+"/catalog.json", 5*time.Second, 0)
	defer c.Close()

	cat, err := catalog.Load(context.Background(), c)
	require.NoError(t, err)

	sub, ok := cat.FindSubcategory(5, 51)
	require.True(t, ok)
	assert.Equal(t, "Strings", cat.PropertyChainOf(sub)[0].Name)
}

func TestCatalogClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewCatalogClient(srv.URL, 5*time.Second, 0)
	defer c.Close()

	_, err := c.LoadCategories(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}
