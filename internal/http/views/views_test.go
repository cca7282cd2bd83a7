package views

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Home(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	w := httptest.NewRecorder()
	err = renderer.Render(w, http.StatusOK, "home.html", Page{
		Title:    "Home",
		Username: "alice",
		Files:    []string{"Report.pdf", "<script>.txt"},
		Success:  []string{"File uploaded successfully!"},
	})
	require.NoError(t, err)

	body := w.Body.String()
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, body, "Welcome, alice")
	assert.Contains(t, body, `href="/view/Report.pdf"`)
	assert.Contains(t, body, "File uploaded successfully!")
	assert.NotContains(t, body, "<script>.txt")
}

func TestRender_EmptyHome(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	w := httptest.NewRecorder()
	require.NoError(t, renderer.Render(w, http.StatusOK, "home.html", Page{Username: "bob"}))
	assert.Contains(t, w.Body.String(), "No files.")
}

func TestRender_UnknownTemplate(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	w := httptest.NewRecorder()
	assert.Error(t, renderer.Render(w, http.StatusOK, "missing.html", nil))
	assert.Empty(t, w.Body.String())
}

func TestStatic(t *testing.T) {
	w := httptest.NewRecorder()
	Static().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/style.css", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "font-family")
}
