package ghclient

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotas(t *testing.T) {
	f := newFakeGitHub(t)
	f.mux.HandleFunc("/rate_limit", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"resources": {
			"core": {"limit": 5000, "remaining": 42, "reset": 1773144000},
			"search": {"limit": 30, "remaining": 30, "reset": 1773144000}
		}}`)
	})

	quotas, err := f.client(t, "test-token").Quotas(context.Background())
	require.NoError(t, err)
	require.Len(t, quotas, 2)

	assert.Equal(t, "core", quotas[0].Name)
	assert.Equal(t, 42, quotas[0].Remaining)
	assert.Equal(t, 5000, quotas[0].Limit)
	assert.Equal(t, int64(1773144000), quotas[0].ResetAt.Unix())
	assert.True(t, quotas[0].Low(100))

	assert.Equal(t, "search", quotas[1].Name)
	assert.False(t, quotas[1].Low(10))
}
