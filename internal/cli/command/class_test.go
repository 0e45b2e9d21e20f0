package command

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassList(t *testing.T) {
	srv := newMockServer(t)
	srv.handle("GET /classes", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]any{
			"items": []map[string]any{
				{"id": "objhost.Store", "description": "key/value store", "pid": 4242, "registered_at": "2026-01-02T03:04:05Z"},
			},
		})
	})

	out, err := runCLI(t, srv.URL, "class", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "CLASS")
	assert.Contains(t, out, "objhost.Store")
	assert.Contains(t, out, "4242")
}
