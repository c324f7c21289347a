package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCredentialHashRoundTrip(t *testing.T) {
	a := New("secret", bcrypt.MinCost)

	hash, err := a.HashCredential("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	assert.True(t, CheckCredential(hash, "hunter2"))
	assert.False(t, CheckCredential(hash, "hunter3"))
	assert.False(t, CheckCredential("not-a-hash", "hunter2"))
}

func TestTokenRoundTrip(t *testing.T) {
	a := New("secret", bcrypt.MinCost)

	token, err := a.GenerateToken("acct-1")
	require.NoError(t, err)

	claims, err := a.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "acct-1", claims.AccountID)
}

func TestTokenSignedWithOtherKeyRejected(t *testing.T) {
	a := New("secret", bcrypt.MinCost)
	other := New("different-secret", bcrypt.MinCost)

	token, err := other.GenerateToken("acct-1")
	require.NoError(t, err)

	_, err = a.ValidateToken(token)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	a := New("secret", bcrypt.MinCost)

	var gotID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = AccountIDFromContext(r.Context())
	})
	handler := a.Middleware(next)

	t.Run("valid token", func(t *testing.T) {
		token, err := a.GenerateToken("acct-42")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "acct-42", gotID)
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "not-a-bearer-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAccountIDFromContextMissing(t *testing.T) {
	_, ok := AccountIDFromContext(context.Background())
	assert.False(t, ok)
}
