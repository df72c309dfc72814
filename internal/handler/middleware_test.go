package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YannKr/overmark/internal/auth"
)

func TestRequireAPIAuth(t *testing.T) {
	env := newTestEnv(t)
	token, err := auth.NewToken()
	require.NoError(t, err)
	hash, err := auth.HashToken(token)
	require.NoError(t, err)
	env.h.Cfg.APITokenHash = hash

	rec := env.do(t, http.MethodGet, "/api/v1/positions", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	rec = env.do(t, http.MethodGet, "/api/v1/positions", "", "Authorization", "Bearer om_wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/positions", "", "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)

	// health checks stay public
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/healthz", "").Code)
}
