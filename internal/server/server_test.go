package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gurrammuni/jithu-bank/internal/auth"
	"github.com/gurrammuni/jithu-bank/internal/ledger"
	"github.com/gurrammuni/jithu-bank/internal/models"
	"github.com/gurrammuni/jithu-bank/internal/storage/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	l := ledger.New(memory.NewStore(), nil)
	a := auth.New("test-secret", bcrypt.MinCost)
	ts := httptest.NewServer(New(l, a).Router())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, out.Bytes()
}

func signupAndLogin(t *testing.T, ts *httptest.Server, username, password string) string {
	t.Helper()
	resp, _ := doJSON(t, ts, http.MethodPost, "/signup", "", map[string]string{
		"username": username, "password": password,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, ts, http.MethodPost, "/login", "", map[string]string{
		"username": username, "password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var loginResp map[string]string
	require.NoError(t, json.Unmarshal(body, &loginResp))
	require.NotEmpty(t, loginResp["token"])
	return loginResp["token"]
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, ts, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestSignupFirstUserIsAdmin(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, ts, http.MethodPost, "/signup", "", map[string]string{
		"username": "alice", "password": "pw1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var first accountResponse
	require.NoError(t, json.Unmarshal(body, &first))
	assert.True(t, first.IsAdmin)

	resp, body = doJSON(t, ts, http.MethodPost, "/signup", "", map[string]string{
		"username": "bob", "password": "pw2",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var second accountResponse
	require.NoError(t, json.Unmarshal(body, &second))
	assert.False(t, second.IsAdmin)
}

func TestSignupDuplicateUsername(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := doJSON(t, ts, http.MethodPost, "/signup", "", map[string]string{
		"username": "alice", "password": "pw",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, ts, http.MethodPost, "/signup", "", map[string]string{
		"username": "alice", "password": "other",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSignupMissingFields(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := doJSON(t, ts, http.MethodPost, "/signup", "", map[string]string{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginWrongPassword(t *testing.T) {
	ts := newTestServer(t)
	signupAndLogin(t, ts, "alice", "pw")

	resp, _ := doJSON(t, ts, http.MethodPost, "/login", "", map[string]string{
		"username": "alice", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthenticatedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/me"},
		{http.MethodPost, "/deposit"},
		{http.MethodPost, "/withdraw"},
		{http.MethodPost, "/transfer"},
		{http.MethodGet, "/transactions"},
	} {
		resp, _ := doJSON(t, ts, route.method, route.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", route.method, route.path)
	}
}

func TestDepositWithdrawFlow(t *testing.T) {
	ts := newTestServer(t)
	token := signupAndLogin(t, ts, "alice", "pw")

	resp, body := doJSON(t, ts, http.MethodPost, "/deposit", token, map[string]string{"amount": "100.50"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var bal balanceResponse
	require.NoError(t, json.Unmarshal(body, &bal))
	assert.Equal(t, "100.5", bal.Balance.String())

	// Withdrawal PIN is the login password.
	resp, body = doJSON(t, ts, http.MethodPost, "/withdraw", token, map[string]string{
		"amount": "40", "pin": "pw",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &bal))
	assert.Equal(t, "60.5", bal.Balance.String())

	resp, _ = doJSON(t, ts, http.MethodPost, "/withdraw", token, map[string]string{
		"amount": "40", "pin": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, ts, http.MethodPost, "/withdraw", token, map[string]string{
		"amount": "1000", "pin": "pw",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDepositInvalidAmount(t *testing.T) {
	ts := newTestServer(t)
	token := signupAndLogin(t, ts, "alice", "pw")

	for _, amount := range []string{"0", "-5", "abc"} {
		resp, _ := doJSON(t, ts, http.MethodPost, "/deposit", token, map[string]string{"amount": amount})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "amount %q", amount)
	}
}

func TestTransferFlow(t *testing.T) {
	ts := newTestServer(t)
	aliceToken := signupAndLogin(t, ts, "alice", "pw1")
	bobToken := signupAndLogin(t, ts, "bob", "pw2")

	resp, _ := doJSON(t, ts, http.MethodPost, "/deposit", aliceToken, map[string]string{"amount": "100"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, ts, http.MethodPost, "/transfer", aliceToken, map[string]string{
		"to_username": "bob", "amount": "30",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var bal balanceResponse
	require.NoError(t, json.Unmarshal(body, &bal))
	assert.Equal(t, "70", bal.Balance.String())

	resp, body = doJSON(t, ts, http.MethodGet, "/me", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var bob accountResponse
	require.NoError(t, json.Unmarshal(body, &bob))
	assert.Equal(t, "30", bob.Balance.String())

	resp, _ = doJSON(t, ts, http.MethodPost, "/transfer", aliceToken, map[string]string{
		"to_username": "nobody", "amount": "10",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTransactionsHistory(t *testing.T) {
	ts := newTestServer(t)
	token := signupAndLogin(t, ts, "alice", "pw")

	resp, body := doJSON(t, ts, http.MethodGet, "/transactions", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	resp, _ = doJSON(t, ts, http.MethodPost, "/deposit", token, map[string]string{"amount": "10"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, ts, http.MethodPost, "/withdraw", token, map[string]string{"amount": "4", "pin": "pw"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, ts, http.MethodGet, "/transactions", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var txns []models.Transaction
	require.NoError(t, json.Unmarshal(body, &txns))
	require.Len(t, txns, 2)
	assert.Equal(t, models.KindDeposit, txns[0].Kind)
	assert.Equal(t, models.KindWithdraw, txns[1].Kind)
	assert.Equal(t, "6", txns[1].Balance.String())
}
