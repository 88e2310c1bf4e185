package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotCool09/myowobot/internal/catalog"
	"github.com/NotCool09/myowobot/internal/config"
	"github.com/NotCool09/myowobot/internal/model"
	"github.com/NotCool09/myowobot/internal/store"
)

var admin = config.AdminConfig{Username: "owner", Password: "hunter2", Secret: "s3cret"}

func seeded(t *testing.T) store.Store {
	t.Helper()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	st := store.NewMemory(store.Defaults{StartBalance: 100, StartRank: "Newbie", Now: func() time.Time { return now }})
	err := st.Update(context.Background(), func(tx store.Tx) error {
		for id, bal := range map[int64]int64{1: 5000, 2: 250, 3: 1200} {
			u, err := tx.User(id)
			if err != nil {
				return err
			}
			u.Balance = bal
			if err := tx.SaveUser(u); err != nil {
				return err
			}
		}
		inv, err := tx.Inventory(1)
		if err != nil {
			return err
		}
		inv.Add("cat", 3)
		if err := tx.SaveInventory(inv); err != nil {
			return err
		}
		if err := tx.SaveMarriage(&model.Marriage{ID: "m1", Proposer: 1, Proposee: 2, Accepted: true, ProposedAt: now, MarriedAt: &now}); err != nil {
			return err
		}
		return tx.SaveMarriage(&model.Marriage{ID: "m2", Proposer: 3, Proposee: 1, ProposedAt: now})
	})
	require.NoError(t, err)
	return st
}

func do(t *testing.T, s *Server, path string, auth func(*http.Request)) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != nil {
		auth(req)
	}
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(body) > 0 {
		require.NoError(t, json.Unmarshal(body, &out), string(body))
	}
	return resp.StatusCode, out
}

func withSecret(req *http.Request) { req.Header.Set(SecretHeader, "s3cret") }

func TestHealthNeedsNoAuth(t *testing.T) {
	s := New(seeded(t), catalog.Default(), config.AdminConfig{})
	code, body := do(t, s, "/healthz", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestAPIRefusedWithoutConfiguredCredentials(t *testing.T) {
	s := New(seeded(t), catalog.Default(), config.AdminConfig{})
	code, _ := do(t, s, "/api/users/1", withSecret)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestAuth(t *testing.T) {
	s := New(seeded(t), catalog.Default(), admin)

	tests := []struct {
		name string
		auth func(*http.Request)
		want int
	}{
		{"none", nil, http.StatusUnauthorized},
		{"secret", withSecret, http.StatusOK},
		{"wrong secret", func(r *http.Request) { r.Header.Set(SecretHeader, "nope") }, http.StatusUnauthorized},
		{"basic", func(r *http.Request) { r.SetBasicAuth("owner", "hunter2") }, http.StatusOK},
		{"wrong password", func(r *http.Request) { r.SetBasicAuth("owner", "guess") }, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := do(t, s, "/api/users/1", tt.auth)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestUser(t *testing.T) {
	s := New(seeded(t), catalog.Default(), admin)

	code, body := do(t, s, "/api/users/1", withSecret)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 5000, body["balance"])
	assert.Equal(t, "Commoner", body["wealth_rank"])

	code, _ = do(t, s, "/api/users/42", withSecret)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, s, "/api/users/abc", withSecret)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestInventory(t *testing.T) {
	s := New(seeded(t), catalog.Default(), admin)

	code, body := do(t, s, "/api/users/1/inventory", withSecret)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 3, body["total"])
	assert.Equal(t, map[string]any{"cat": float64(3)}, body["items"])
}

func TestTop(t *testing.T) {
	s := New(seeded(t), catalog.Default(), admin)

	code, body := do(t, s, "/api/top/balance?limit=2", withSecret)
	require.Equal(t, http.StatusOK, code)
	users := body["users"].([]any)
	require.Len(t, users, 2)
	assert.EqualValues(t, 1, users[0].(map[string]any)["id"])
	assert.EqualValues(t, 3, users[1].(map[string]any)["id"])

	code, _ = do(t, s, "/api/top/karma", withSecret)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = do(t, s, "/api/top/xp?limit=500", withSecret)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestMarriages(t *testing.T) {
	s := New(seeded(t), catalog.Default(), admin)

	_, body := do(t, s, "/api/marriages", withSecret)
	assert.Len(t, body["marriages"], 2)

	_, body = do(t, s, "/api/marriages?active=true", withSecret)
	list := body["marriages"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "m1", list[0].(map[string]any)["id"])
}
