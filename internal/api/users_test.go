package api

import (
	"net/http"
	"testing"

	"github.com/udovin/ctf/internal/config"
)

func TestRegisterUser(t *testing.T) {
	e := newTestEnv(t, config.Config{})
	rec := e.Request(http.MethodPost, "/api/v0/users", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
	})
	expectStatus(t, http.StatusCreated, rec.Code)
	var user User
	decodeJSON(t, rec, &user)
	if user.ID == "" || user.Username != "alice" || user.Email != "alice@example.com" {
		t.Fatalf("Unexpected user: %v", user)
	}
	rec = e.Request(http.MethodGet, "/api/v0/users/"+user.ID, nil)
	expectStatus(t, http.StatusOK, rec.Code)
	expectJSON(t, rec, `{
		"id": "`+user.ID+`",
		"username": "alice",
		"score": 0,
		"solved_challenges": []
	}`)
	rec = e.Request(http.MethodPost, "/api/v0/users", map[string]string{
		"username": "Alice",
		"email":    "other@example.com",
	})
	expectStatus(t, http.StatusConflict, rec.Code)
	rec = e.Request(http.MethodPost, "/api/v0/users", map[string]string{
		"username": "bob",
		"email":    "not an email",
	})
	expectStatus(t, http.StatusBadRequest, rec.Code)
	rec = e.Request(http.MethodGet, "/api/v0/users/unknown", nil)
	expectStatus(t, http.StatusNotFound, rec.Code)
	expectJSON(t, rec, `{"code":"not_found","message":"User not found."}`)
}

func TestObserveUserAfterSolve(t *testing.T) {
	e := newTestEnv(t, config.Config{})
	rec := e.Request(http.MethodPost, "/api/v0/challenges/c1/submit", map[string]string{
		"user_id": "u1",
		"flag":    "CTF{r0b0ts_4r3_n0t_s3cur3}",
	})
	expectStatus(t, http.StatusOK, rec.Code)
	rec = e.Request(http.MethodGet, "/api/v0/users/u1", nil)
	expectStatus(t, http.StatusOK, rec.Code)
	expectJSON(t, rec, `{
		"id": "u1",
		"username": "u1",
		"score": 100,
		"solved_challenges": ["c1"]
	}`)
}
